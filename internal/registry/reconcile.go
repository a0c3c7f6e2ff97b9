package registry

import (
	"log/slog"
	"slices"

	"postflow/internal/models"
	"postflow/internal/store"
)

// Reconciler recomputes every client's denormalized fields from the
// source-of-truth tables: the embedded calendar list from the calendars
// table (creation order) and posts_count from the posts table. It repairs
// the drift the non-transactional protocol can leave behind — a counter
// missed in a crash, a lost embedded-list update, posts removed by a
// calendar cascade. Safe to run at any time; it only writes on drift.
type Reconciler struct {
	clients   *store.ClientStore
	calendars *store.CalendarStore
	posts     *store.PostStore
}

// NewReconciler creates a Reconciler over the given stores.
func NewReconciler(clients *store.ClientStore, calendars *store.CalendarStore, posts *store.PostStore) *Reconciler {
	return &Reconciler{clients: clients, calendars: calendars, posts: posts}
}

// Stats summarizes one reconciliation pass.
type Stats struct {
	Clients           int // clients examined
	RepairedCalendars int // embedded lists rewritten
	RepairedCounts    int // posts_count values corrected
}

// Run reconciles all clients and returns what it repaired. Per-client
// errors abort the pass; everything repaired before the error stays
// repaired (each write is independent, like the protocol it mends).
func (r *Reconciler) Run() (Stats, error) {
	var stats Stats

	clients, err := r.clients.List()
	if err != nil {
		return stats, err
	}
	stats.Clients = len(clients)

	for _, client := range clients {
		calendars, err := r.calendars.ListByClient(client.ID)
		if err != nil {
			return stats, err
		}
		want := make([]models.CalendarSummary, len(calendars))
		for i, cal := range calendars {
			want[i] = cal.AsSummary()
		}

		if !slices.Equal(client.Calendars, want) {
			if err := r.clients.SetCalendars(client.ID, want); err != nil {
				return stats, err
			}
			stats.RepairedCalendars++
			slog.Warn("reconciler rewrote embedded calendar list",
				"client", client.ID, "had", len(client.Calendars), "now", len(want))
		}

		count, err := r.posts.CountByClient(client.ID)
		if err != nil {
			return stats, err
		}
		if count != client.PostsCount {
			if err := r.clients.SetPostsCount(client.ID, count); err != nil {
				return stats, err
			}
			stats.RepairedCounts++
			slog.Warn("reconciler corrected posts_count",
				"client", client.ID, "had", client.PostsCount, "now", count)
		}
	}

	return stats, nil
}
