// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"postflow/internal/cache"
	"postflow/internal/models"
	"postflow/internal/registry"
)

// Portal groups the unauthenticated client-portal handlers. Clients reach
// their schedule with nothing but the access code the agency shared.
type Portal struct {
	clients     *registry.ClientRegistry
	posts       *registry.PostRegistry
	portalCache *cache.PortalCache
	baseURL     string
}

// NewPortal creates a new Portal handler group. portalCache may be nil
// (caching disabled); baseURL is the public origin used in QR codes and
// may be empty, in which case the QR encodes the bare access code.
func NewPortal(clients *registry.ClientRegistry, posts *registry.PostRegistry, portalCache *cache.PortalCache, baseURL string) *Portal {
	return &Portal{
		clients:     clients,
		posts:       posts,
		portalCache: portalCache,
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

// portalPayload is the full portal response for one access code.
type portalPayload struct {
	Client struct {
		Name       string                   `json:"name"`
		Code       string                   `json:"code"`
		PostsCount int                      `json:"posts_count"`
		Calendars  []models.CalendarSummary `json:"calendars"`
	} `json:"client"`
	Posts []models.Post `json:"posts"`
}

// View resolves an access code to the client's schedule: identity, the
// embedded calendar list, and every post ordered by date. Responses are
// cached per code with a short TTL.
func (p *Portal) View(w http.ResponseWriter, r *http.Request) {
	code := normalizeCode(chi.URLParam(r, "code"))

	if p.portalCache != nil {
		if cached, ok := p.portalCache.Get(r.Context(), code); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}
	}

	client, err := p.clients.FindByCode(code)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "unknown access code")
		return
	}

	posts, err := p.posts.ListByClient(client.ID)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}

	var payload portalPayload
	payload.Client.Name = client.Name
	payload.Client.Code = client.Code
	payload.Client.PostsCount = client.PostsCount
	payload.Client.Calendars = client.Calendars
	payload.Posts = posts

	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("portal payload encode failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if p.portalCache != nil {
		p.portalCache.Set(r.Context(), code, body)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Posts returns only the post list for an access code, for portal views
// that poll the schedule without refetching the client identity. Served
// uncached; the combined View payload is the cached path.
func (p *Portal) Posts(w http.ResponseWriter, r *http.Request) {
	code := normalizeCode(chi.URLParam(r, "code"))

	client, err := p.clients.FindByCode(code)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "unknown access code")
		return
	}

	posts, err := p.posts.ListByClient(client.ID)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// QR renders a PNG QR code for a client's portal link, for the agency to
// print or forward. 404s on unknown codes so codes cannot be probed into
// QR images.
func (p *Portal) QR(w http.ResponseWriter, r *http.Request) {
	code := normalizeCode(chi.URLParam(r, "code"))

	client, err := p.clients.FindByCode(code)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "unknown access code")
		return
	}

	target := code
	if p.baseURL != "" {
		target = p.baseURL + "/portal/" + code
	}

	png, err := qrcode.Encode(target, qrcode.Medium, 256)
	if err != nil {
		slog.Error("portal qr generation failed", "error", err, "code", code)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// normalizeCode uppercases an access code so portal lookups are
// case-insensitive for hand-typed codes.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
