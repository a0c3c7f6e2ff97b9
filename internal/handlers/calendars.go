// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"postflow/internal/models"
)

// CalendarsList returns a client's calendars from the source table.
func (a *Admin) CalendarsList(w http.ResponseWriter, r *http.Request) {
	clientID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	calendars, err := a.calendars.ListByClient(clientID)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	if calendars == nil {
		calendars = []models.Calendar{}
	}
	writeJSON(w, http.StatusOK, calendars)
}

// CalendarCreate adds a calendar to a client and syncs the client's
// embedded calendar list.
func (a *Admin) CalendarCreate(w http.ResponseWriter, r *http.Request) {
	clientID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := validateName(req.Name); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if msg := validateColor(req.Color); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	cal, err := a.calendars.Create(clientID, req.Name, req.Color)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	a.invalidatePortal(r.Context(), clientID)
	writeJSON(w, http.StatusCreated, cal)
}

// CalendarUpdate changes a calendar's name and/or color. Existing posts
// keep the display snapshot taken when they were written.
func (a *Admin) CalendarUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Name  *string `json:"name"`
		Color *string `json:"color"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == nil && req.Color == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}
	if req.Name != nil {
		if msg := validateName(*req.Name); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
	}
	if req.Color != nil {
		if msg := validateColor(*req.Color); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
	}

	if err := a.calendars.Update(id, req.Name, req.Color); err != nil {
		writeRegistryError(w, err)
		return
	}

	cal, err := a.calendars.FindByID(id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	if cal != nil {
		a.invalidatePortal(r.Context(), cal.ClientID)
	}
	writeJSON(w, http.StatusOK, cal)
}

// CalendarDelete removes a calendar and every post on it.
func (a *Admin) CalendarDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	// Resolve the owner before the row disappears.
	cal, err := a.calendars.FindByID(id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	if err := a.calendars.Delete(r.Context(), id); err != nil {
		writeRegistryError(w, err)
		return
	}

	if cal != nil {
		a.invalidatePortal(r.Context(), cal.ClientID)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
