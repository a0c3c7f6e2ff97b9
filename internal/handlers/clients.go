// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"postflow/internal/models"
)

// ClientsList returns all clients with their embedded calendar lists and
// post counts — the denormalized fields make this a single query.
func (a *Admin) ClientsList(w http.ResponseWriter, r *http.Request) {
	clients, err := a.clients.List()
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	if clients == nil {
		clients = []models.Client{}
	}
	writeJSON(w, http.StatusOK, clients)
}

// ClientCreate registers a new client under a generated access code. A
// code collision returns 409 and writes nothing; the admin UI retries.
func (a *Admin) ClientCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateName(req.Name); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	client, err := a.clients.Create(req.Name)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

// ClientGet returns one client by ID.
func (a *Admin) ClientGet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	client, err := a.clients.FindByID(id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// ClientRename changes a client's display name.
func (a *Admin) ClientRename(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateName(req.Name); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := a.clients.Rename(id, req.Name); err != nil {
		writeRegistryError(w, err)
		return
	}

	a.invalidatePortal(r.Context(), id)

	client, err := a.clients.FindByID(id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// ClientDelete removes a client and cascades over its posts, images, and
// calendars. The portal cache entry is dropped first, while the code can
// still be resolved.
func (a *Admin) ClientDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	a.invalidatePortal(r.Context(), id)

	if err := a.clients.Delete(r.Context(), id); err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
