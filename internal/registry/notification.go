package registry

import (
	"time"

	"github.com/google/uuid"

	"postflow/internal/models"
	"postflow/internal/store"
)

// NotificationLedger tracks which "scheduled today" notifications each
// operator has acknowledged. It is independent of the other registries
// apart from reading the posts table for the today feed.
type NotificationLedger struct {
	posts   *store.PostStore
	markers *store.NotificationStore
}

// NewNotificationLedger creates a NotificationLedger.
func NewNotificationLedger(posts *store.PostStore, markers *store.NotificationStore) *NotificationLedger {
	return &NotificationLedger{posts: posts, markers: markers}
}

// TodayPosts returns every post scheduled inside the current local day:
// [start of today, start of tomorrow). A post at 23:59:59 today is
// included; one at 00:00:00 tomorrow is not.
func (l *NotificationLedger) TodayPosts() ([]models.Post, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return l.posts.ListByDateRange(start, start.AddDate(0, 0, 1))
}

// MarkSeen records that a user has seen the notification for a post.
// The (post, user) pair is the uniqueness key: a repeat call refreshes
// seen_at on the existing marker instead of creating a duplicate. Returns
// the marker's ID either way.
func (l *NotificationLedger) MarkSeen(postID, userID uuid.UUID) (uuid.UUID, error) {
	existing, err := l.markers.FindByPostAndUser(postID, userID)
	if err != nil {
		return uuid.Nil, err
	}

	if existing != nil {
		if err := l.markers.Refresh(existing.ID); err != nil {
			return uuid.Nil, err
		}
		return existing.ID, nil
	}

	created, err := l.markers.Create(postID, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return created.ID, nil
}

// SeenByUser returns all seen markers for a user. Callers filter the
// TodayPosts feed against these to compute the unread count.
func (l *NotificationLedger) SeenByUser(userID uuid.UUID) ([]models.NotificationSeen, error) {
	return l.markers.ListSeenByUser(userID)
}
