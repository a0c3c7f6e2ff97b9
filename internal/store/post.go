// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"postflow/internal/models"
)

// PostStore handles all post-related database operations.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// postColumns lists the columns selected in post queries.
const postColumns = `id, client_id, calendar_id, calendar_name, calendar_color,
	caption, scheduled_at, image_url, status, created_at, updated_at`

func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	err := scanner.Scan(
		&p.ID, &p.ClientID, &p.CalendarID, &p.CalendarName, &p.CalendarColor,
		&p.Caption, &p.Date, &p.ImageURL, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new post row. The caller supplies the denormalized
// calendar fields and the image URL; the store writes them verbatim.
func (s *PostStore) Create(p *models.Post) (*models.Post, error) {
	row := s.db.QueryRow(`
		INSERT INTO posts (client_id, calendar_id, calendar_name, calendar_color,
			caption, scheduled_at, image_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+postColumns,
		p.ClientID, p.CalendarID, p.CalendarName, p.CalendarColor,
		p.Caption, p.Date, p.ImageURL, p.Status,
	)
	created, err := scanPost(row)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return created, nil
}

// FindByID retrieves a post by its UUID. Returns nil if not found.
func (s *PostStore) FindByID(id uuid.UUID) (*models.Post, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// ListByClient returns all of a client's posts ordered by scheduled date.
func (s *PostStore) ListByClient(clientID uuid.UUID) ([]models.Post, error) {
	return s.list(`WHERE client_id = $1`, clientID)
}

// ListByCalendar returns all posts on a calendar ordered by scheduled date.
func (s *PostStore) ListByCalendar(calendarID uuid.UUID) ([]models.Post, error) {
	return s.list(`WHERE calendar_id = $1`, calendarID)
}

// ListByDateRange returns posts scheduled in [from, to), ordered by
// scheduled date. Used for the "scheduled today" notification feed.
func (s *PostStore) ListByDateRange(from, to time.Time) ([]models.Post, error) {
	return s.list(`WHERE scheduled_at >= $1 AND scheduled_at < $2`, from, to)
}

func (s *PostStore) list(where string, args ...any) ([]models.Post, error) {
	rows, err := s.db.Query(`
		SELECT `+postColumns+`
		FROM posts
		`+where+`
		ORDER BY scheduled_at ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// PostUpdate describes a partial update to a post. Nil fields are left
// untouched. The denormalized calendar fields are written exactly as
// given — the store never re-derives them from calendar_id.
type PostUpdate struct {
	Caption       *string
	Date          *time.Time
	CalendarID    *uuid.UUID
	CalendarName  *string
	CalendarColor *string
	ImageURL      *string
}

// Update merges the given fields into a post row.
func (s *PostStore) Update(id uuid.UUID, up PostUpdate) error {
	res, err := s.db.Exec(`
		UPDATE posts
		SET caption = COALESCE($1, caption),
			scheduled_at = COALESCE($2, scheduled_at),
			calendar_id = COALESCE($3, calendar_id),
			calendar_name = COALESCE($4, calendar_name),
			calendar_color = COALESCE($5, calendar_color),
			image_url = COALESCE($6, image_url),
			updated_at = NOW()
		WHERE id = $7
	`, up.Caption, up.Date, up.CalendarID, up.CalendarName, up.CalendarColor, up.ImageURL, id)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a post row. The image blob and the owning client's
// posts_count are the registry's responsibility.
func (s *PostStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// CountByClient returns the number of posts for a client, straight from
// the source table. Used by the reconciler to recompute the denormalized
// posts_count aggregate.
func (s *PostStore) CountByClient(clientID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM posts WHERE client_id = $1`, clientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}
