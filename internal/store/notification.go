package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"postflow/internal/models"
)

// NotificationStore handles the per-user "seen" markers for the
// "posts scheduled today" notification feed.
type NotificationStore struct {
	db *sql.DB
}

// NewNotificationStore creates a new NotificationStore with the given
// database connection.
func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// notificationColumns lists the columns selected in notification queries.
const notificationColumns = `id, post_id, user_id, seen, seen_at, created_at`

func scanNotification(scanner interface{ Scan(...any) error }) (*models.NotificationSeen, error) {
	var n models.NotificationSeen
	err := scanner.Scan(&n.ID, &n.PostID, &n.UserID, &n.Seen, &n.SeenAt, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// FindByPostAndUser retrieves the marker for a (post, user) pair.
// Returns nil if the pair has never been marked.
func (s *NotificationStore) FindByPostAndUser(postID, userID uuid.UUID) (*models.NotificationSeen, error) {
	row := s.db.QueryRow(`
		SELECT `+notificationColumns+`
		FROM notification_seen
		WHERE post_id = $1 AND user_id = $2
	`, postID, userID)
	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find notification marker: %w", err)
	}
	return n, nil
}

// Create inserts a new seen marker for a (post, user) pair.
func (s *NotificationStore) Create(postID, userID uuid.UUID) (*models.NotificationSeen, error) {
	row := s.db.QueryRow(`
		INSERT INTO notification_seen (post_id, user_id, seen)
		VALUES ($1, $2, TRUE)
		RETURNING `+notificationColumns, postID, userID)
	n, err := scanNotification(row)
	if err != nil {
		return nil, fmt.Errorf("create notification marker: %w", err)
	}
	return n, nil
}

// Refresh re-marks an existing marker as seen and bumps seen_at.
func (s *NotificationStore) Refresh(id uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE notification_seen SET seen = TRUE, seen_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("refresh notification marker: %w", err)
	}
	return nil
}

// ListSeenByUser returns all seen markers for a user.
func (s *NotificationStore) ListSeenByUser(userID uuid.UUID) ([]models.NotificationSeen, error) {
	rows, err := s.db.Query(`
		SELECT `+notificationColumns+`
		FROM notification_seen
		WHERE user_id = $1 AND seen = TRUE
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list seen notifications: %w", err)
	}
	defer rows.Close()

	var markers []models.NotificationSeen
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification marker: %w", err)
		}
		markers = append(markers, *n)
	}
	return markers, rows.Err()
}
