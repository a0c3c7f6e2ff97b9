package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"postflow/internal/middleware"
	"postflow/internal/models"
)

// todayPostView is a post in the today feed with the caller's seen flag.
type todayPostView struct {
	models.Post
	Seen bool `json:"seen"`
}

// NotificationsToday returns every post scheduled inside the current day,
// each flagged with whether the calling operator has acknowledged it, plus
// the unseen count for the badge.
func (a *Admin) NotificationsToday(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	posts, err := a.ledger.TodayPosts()
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	markers, err := a.ledger.SeenByUser(sess.UserID)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	seen := make(map[uuid.UUID]bool, len(markers))
	for _, m := range markers {
		seen[m.PostID] = true
	}

	views := make([]todayPostView, len(posts))
	unseen := 0
	for i, p := range posts {
		views[i] = todayPostView{Post: p, Seen: seen[p.ID]}
		if !views[i].Seen {
			unseen++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts":        views,
		"unseen_count": unseen,
	})
}

// NotificationMarkSeen records that the calling operator has seen the
// notification for a post. Idempotent per (post, operator) pair.
func (a *Admin) NotificationMarkSeen(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	postID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	markerID, err := a.ledger.MarkSeen(postID, sess.UserID)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": markerID, "seen": true})
}
