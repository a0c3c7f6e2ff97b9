// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package registry

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"postflow/internal/models"
	"postflow/internal/storage"
	"postflow/internal/store"
)

// ImageUpload carries an uploaded image through the registry to blob
// storage.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CreatePostInput is the full set of fields for a new post. The image is
// mandatory at creation.
type CreatePostInput struct {
	ClientID   uuid.UUID
	CalendarID uuid.UUID
	Caption    string
	Date       time.Time
	Image      ImageUpload
}

// UpdatePostInput is a partial update. Nil fields are left untouched.
// CalendarName and CalendarColor are written exactly as given: the
// registry does not re-derive them from CalendarID, so a caller that
// reassigns the calendar must supply a consistent snapshot itself.
type UpdatePostInput struct {
	Caption       *string
	Date          *time.Time
	CalendarID    *uuid.UUID
	CalendarName  *string
	CalendarColor *string
	Image         *ImageUpload
}

// PostRegistry owns the post lifecycle: image blob management, the
// calendar display snapshot taken at write time, and the owning client's
// posts_count aggregate.
type PostRegistry struct {
	posts     *store.PostStore
	calendars *store.CalendarStore
	clients   *store.ClientStore
	blobs     BlobStore
}

// NewPostRegistry creates a PostRegistry. blobs may be nil when object
// storage is not configured; creating posts then fails with
// ErrStorageDisabled.
func NewPostRegistry(posts *store.PostStore, calendars *store.CalendarStore, clients *store.ClientStore, blobs BlobStore) *PostRegistry {
	return &PostRegistry{
		posts:     posts,
		calendars: calendars,
		clients:   clients,
		blobs:     blobs,
	}
}

// Create uploads the image, snapshots the calendar's display fields, and
// inserts the post, then bumps the owning client's posts_count. The
// snapshot defaults to empty strings when the calendar is missing — a
// post on a vanished calendar is tolerated, not fatal. The counter bump
// is a read-modify-write of the client row, not an atomic increment:
// two concurrent creates can lose one count, and the reconciler recomputes
// it from the posts table.
func (r *PostRegistry) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if r.blobs == nil {
		return nil, ErrStorageDisabled
	}

	key := storage.ImageKey(time.Now(), in.Image.Filename)
	if err := r.blobs.Upload(ctx, key, in.Image.ContentType, bytes.NewReader(in.Image.Data), int64(len(in.Image.Data))); err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	imageURL := r.blobs.FileURL(key)

	// Snapshot the calendar's display fields as of now. The post keeps
	// these values even if the calendar is later renamed or recolored.
	var calendarName, calendarColor string
	cal, err := r.calendars.FindByID(in.CalendarID)
	if err != nil {
		return nil, fmt.Errorf("snapshot calendar: %w", err)
	}
	if cal != nil {
		calendarName = cal.Name
		calendarColor = cal.Color
	}

	post, err := r.posts.Create(&models.Post{
		ClientID:      in.ClientID,
		CalendarID:    in.CalendarID,
		CalendarName:  calendarName,
		CalendarColor: calendarColor,
		Caption:       in.Caption,
		Date:          in.Date,
		ImageURL:      imageURL,
		Status:        models.PostStatusScheduled,
	})
	if err != nil {
		return nil, err
	}

	client, err := r.clients.FindByID(in.ClientID)
	if err != nil {
		return post, fmt.Errorf("post %s created but client read failed: %w", post.ID, err)
	}
	if client != nil {
		if err := r.clients.SetPostsCount(in.ClientID, client.PostsCount+1); err != nil {
			return post, fmt.Errorf("post %s created but counter update failed: %w", post.ID, err)
		}
	}

	slog.Info("post created", "id", post.ID, "client", in.ClientID, "calendar", in.CalendarID)
	return post, nil
}

// FindByID returns the post with the given ID, or nil when absent.
func (r *PostRegistry) FindByID(id uuid.UUID) (*models.Post, error) {
	return r.posts.FindByID(id)
}

// ListByClient returns a client's posts ordered by scheduled date.
func (r *PostRegistry) ListByClient(clientID uuid.UUID) ([]models.Post, error) {
	return r.posts.ListByClient(clientID)
}

// ListByCalendar returns a calendar's posts ordered by scheduled date.
func (r *PostRegistry) ListByCalendar(calendarID uuid.UUID) ([]models.Post, error) {
	return r.posts.ListByCalendar(calendarID)
}

// Update merges the given fields into a post. When a replacement image is
// supplied, the old image is deleted from blob storage first (best-effort,
// reconstructing its key from the stored URL), then the new one uploaded
// and its URL written with the rest of the fields.
func (r *PostRegistry) Update(ctx context.Context, id uuid.UUID, in UpdatePostInput) (*models.Post, error) {
	up := store.PostUpdate{
		Caption:       in.Caption,
		Date:          in.Date,
		CalendarID:    in.CalendarID,
		CalendarName:  in.CalendarName,
		CalendarColor: in.CalendarColor,
	}

	if in.Image != nil {
		if r.blobs == nil {
			return nil, ErrStorageDisabled
		}

		current, err := r.posts.FindByID(id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
		}

		deleteImage(ctx, r.blobs, current.ImageURL)

		key := storage.ImageKey(time.Now(), in.Image.Filename)
		if err := r.blobs.Upload(ctx, key, in.Image.ContentType, bytes.NewReader(in.Image.Data), int64(len(in.Image.Data))); err != nil {
			return nil, fmt.Errorf("upload replacement image: %w", err)
		}
		url := r.blobs.FileURL(key)
		up.ImageURL = &url
	}

	err := r.posts.Update(id, up)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return r.posts.FindByID(id)
}

// Delete removes a post: image first (best-effort), then the record, then
// the owning client's posts_count is decremented, floored at zero.
func (r *PostRegistry) Delete(ctx context.Context, id uuid.UUID) error {
	post, err := r.posts.FindByID(id)
	if err != nil {
		return err
	}
	if post == nil {
		return fmt.Errorf("post %s: %w", id, ErrNotFound)
	}

	deleteImage(ctx, r.blobs, post.ImageURL)

	if err := r.posts.Delete(id); err != nil {
		return err
	}

	client, err := r.clients.FindByID(post.ClientID)
	if err != nil {
		return fmt.Errorf("post %s deleted but client read failed: %w", id, err)
	}
	if client != nil {
		count := client.PostsCount - 1
		if count < 0 {
			count = 0
		}
		if err := r.clients.SetPostsCount(post.ClientID, count); err != nil {
			return fmt.Errorf("post %s deleted but counter update failed: %w", id, err)
		}
	}

	slog.Info("post deleted", "id", id, "client", post.ClientID)
	return nil
}
