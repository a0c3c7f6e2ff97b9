package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationSeen records that a user has acknowledged the "scheduled
// today" notification for one post. Uniqueness key is (PostID, UserID):
// marking the same pair again refreshes SeenAt instead of creating a
// duplicate row.
type NotificationSeen struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	UserID    uuid.UUID `json:"user_id"`
	Seen      bool      `json:"seen"`
	SeenAt    time.Time `json:"seen_at"`
	CreatedAt time.Time `json:"created_at"`
}
