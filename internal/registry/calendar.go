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

// CalendarRegistry owns the calendar lifecycle and keeps the owning
// client's embedded calendar list synchronized with the calendars table.
// Each sync is a read-modify-write of the whole list: there is no
// field-level primitive, and concurrent writers can lose updates. The
// reconciler recomputes the list from the calendars table when that
// happens.
type CalendarRegistry struct {
	calendars *store.CalendarStore
	clients   *store.ClientStore
	posts     *store.PostStore
	blobs     BlobStore
}

// NewCalendarRegistry creates a CalendarRegistry. blobs may be nil when
// object storage is not configured.
func NewCalendarRegistry(calendars *store.CalendarStore, clients *store.ClientStore, posts *store.PostStore, blobs BlobStore) *CalendarRegistry {
	return &CalendarRegistry{
		calendars: calendars,
		clients:   clients,
		posts:     posts,
		blobs:     blobs,
	}
}

// Create inserts a calendar and appends its summary to the owning client's
// embedded list. The two writes are separate: if the client read fails the
// standalone calendar row already exists and is returned along with the
// error; if the client simply no longer exists, the append is skipped and
// the calendar is left orphaned for the reconciler-era cleanup to find.
func (r *CalendarRegistry) Create(clientID uuid.UUID, name, color string) (*models.Calendar, error) {
	cal, err := r.calendars.Create(clientID, name, color)
	if err != nil {
		return nil, err
	}

	client, err := r.clients.FindByID(clientID)
	if err != nil {
		return cal, fmt.Errorf("calendar %s created but client read failed: %w", cal.ID, err)
	}
	if client == nil {
		slog.Warn("calendar created for missing client", "calendar", cal.ID, "client", clientID)
		return cal, nil
	}

	if err := r.clients.SetCalendars(clientID, append(client.Calendars, cal.AsSummary())); err != nil {
		return cal, fmt.Errorf("calendar %s created but embedded list append failed: %w", cal.ID, err)
	}

	slog.Info("calendar created", "id", cal.ID, "client", clientID, "name", name)
	return cal, nil
}

// FindByID returns the calendar with the given ID, or nil when absent.
func (r *CalendarRegistry) FindByID(id uuid.UUID) (*models.Calendar, error) {
	return r.calendars.FindByID(id)
}

// ListByClient returns a client's calendars from the source table. The
// embedded list on the client row is the fast path; this accessor reads
// the rows themselves.
func (r *CalendarRegistry) ListByClient(clientID uuid.UUID) ([]models.Calendar, error) {
	return r.calendars.ListByClient(clientID)
}

// Update changes a calendar's name and/or color, then rewrites the
// matching entry in the owning client's embedded list. The standalone
// update lands first; if any later read fails, the embedded entry stays
// stale until the reconciler rewrites it.
func (r *CalendarRegistry) Update(id uuid.UUID, name, color *string) error {
	err := r.calendars.Update(id, name, color)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("calendar %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}

	// Re-read the row to learn the owning client and the final values.
	cal, err := r.calendars.FindByID(id)
	if err != nil {
		return fmt.Errorf("calendar %s updated but re-read failed: %w", id, err)
	}
	if cal == nil {
		// Deleted between the update and the re-read; nothing to sync.
		return nil
	}

	client, err := r.clients.FindByID(cal.ClientID)
	if err != nil {
		return fmt.Errorf("calendar %s updated but client read failed: %w", id, err)
	}
	if client == nil {
		return nil
	}

	synced := make([]models.CalendarSummary, len(client.Calendars))
	for i, entry := range client.Calendars {
		if entry.ID == id {
			entry = cal.AsSummary()
		}
		synced[i] = entry
	}
	if err := r.clients.SetCalendars(cal.ClientID, synced); err != nil {
		return fmt.Errorf("calendar %s updated but embedded list rewrite failed: %w", id, err)
	}
	return nil
}

// Delete removes a calendar: first every post on it (images best-effort),
// then the calendar row, then the entry in the owning client's embedded
// list. Deleting a calendar's posts intentionally does not touch the
// client's posts_count — matching the original protocol; the reconciler
// repairs the resulting drift.
func (r *CalendarRegistry) Delete(ctx context.Context, id uuid.UUID) error {
	cal, err := r.calendars.FindByID(id)
	if err != nil {
		return err
	}
	if cal == nil {
		return fmt.Errorf("calendar %s: %w", id, ErrNotFound)
	}

	posts, err := r.posts.ListByCalendar(id)
	if err != nil {
		return fmt.Errorf("cascade list posts: %w", err)
	}
	for _, p := range posts {
		deleteImage(ctx, r.blobs, p.ImageURL)
		if err := r.posts.Delete(p.ID); err != nil {
			return fmt.Errorf("cascade delete post %s: %w", p.ID, err)
		}
	}

	if err := r.calendars.Delete(id); err != nil {
		return err
	}

	client, err := r.clients.FindByID(cal.ClientID)
	if err != nil {
		return fmt.Errorf("calendar %s deleted but client read failed: %w", id, err)
	}
	if client == nil {
		return nil
	}

	filtered := client.Calendars[:0:0]
	for _, entry := range client.Calendars {
		if entry.ID != id {
			filtered = append(filtered, entry)
		}
	}
	if err := r.clients.SetCalendars(cal.ClientID, filtered); err != nil {
		return fmt.Errorf("calendar %s deleted but embedded list rewrite failed: %w", id, err)
	}

	slog.Info("calendar deleted", "id", id, "client", cal.ClientID, "posts", len(posts))
	return nil
}
