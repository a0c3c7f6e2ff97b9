// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"postflow/internal/models"
	"postflow/internal/store"
)

// ClientRegistry owns the client lifecycle: code generation and the
// uniqueness check at creation, and the three-phase cascade on deletion.
type ClientRegistry struct {
	clients   *store.ClientStore
	calendars *store.CalendarStore
	posts     *store.PostStore
	blobs     BlobStore

	// generateCode produces candidate access codes. Overridable in tests
	// to force collisions deterministically.
	generateCode func() string
}

// NewClientRegistry creates a ClientRegistry. blobs may be nil when object
// storage is not configured; image cleanup is then skipped.
func NewClientRegistry(clients *store.ClientStore, calendars *store.CalendarStore, posts *store.PostStore, blobs BlobStore) *ClientRegistry {
	return &ClientRegistry{
		clients:      clients,
		calendars:    calendars,
		posts:        posts,
		blobs:        blobs,
		generateCode: GenerateClientCode,
	}
}

// Create registers a new client under a freshly generated access code.
// If the generated code collides with an existing client, Create fails
// with ErrDuplicateCode and writes nothing — it never regenerates on its
// own; retrying is the caller's decision.
func (r *ClientRegistry) Create(name string) (*models.Client, error) {
	code := r.generateCode()

	existing, err := r.clients.FindByCode(code)
	if err != nil {
		return nil, fmt.Errorf("check code %s: %w", code, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("code %s: %w", code, ErrDuplicateCode)
	}

	client, err := r.clients.Create(code, name)
	if err != nil {
		return nil, err
	}

	slog.Info("client created", "id", client.ID, "code", client.Code)
	return client, nil
}

// FindByCode returns the client with the given access code, or nil when no
// such client exists. Absence is not an error.
func (r *ClientRegistry) FindByCode(code string) (*models.Client, error) {
	return r.clients.FindByCode(code)
}

// FindByID returns the client with the given ID, or nil when absent.
func (r *ClientRegistry) FindByID(id uuid.UUID) (*models.Client, error) {
	return r.clients.FindByID(id)
}

// List returns all clients.
func (r *ClientRegistry) List() ([]models.Client, error) {
	return r.clients.List()
}

// Rename changes a client's display name. The embedded calendar list and
// posts_count are owned by the calendar and post registries and cannot be
// written through here.
func (r *ClientRegistry) Rename(id uuid.UUID, name string) error {
	err := r.clients.UpdateName(id, name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	return err
}

// Delete removes a client and everything under it, in three phases:
// first every post (each image deleted best-effort before its record),
// then every calendar, then the client row itself. The phases are separate
// store calls with no transaction — a crash mid-way leaves partial state
// for the reconciler to report, but never a client with surviving posts
// once the call returns successfully.
func (r *ClientRegistry) Delete(ctx context.Context, id uuid.UUID) error {
	client, err := r.clients.FindByID(id)
	if err != nil {
		return err
	}
	if client == nil {
		return fmt.Errorf("client %s: %w", id, ErrNotFound)
	}

	// Phase 1: posts and their images.
	posts, err := r.posts.ListByClient(id)
	if err != nil {
		return fmt.Errorf("cascade list posts: %w", err)
	}
	for _, p := range posts {
		deleteImage(ctx, r.blobs, p.ImageURL)
		if err := r.posts.Delete(p.ID); err != nil {
			return fmt.Errorf("cascade delete post %s: %w", p.ID, err)
		}
	}

	// Phase 2: calendars.
	calendars, err := r.calendars.ListByClient(id)
	if err != nil {
		return fmt.Errorf("cascade list calendars: %w", err)
	}
	for _, c := range calendars {
		if err := r.calendars.Delete(c.ID); err != nil {
			return fmt.Errorf("cascade delete calendar %s: %w", c.ID, err)
		}
	}

	// Phase 3: the client row.
	if err := r.clients.Delete(id); err != nil {
		return err
	}

	slog.Info("client deleted", "id", id, "code", client.Code,
		"posts", len(posts), "calendars", len(calendars))
	return nil
}
