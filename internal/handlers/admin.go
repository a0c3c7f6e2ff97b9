// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"postflow/internal/cache"
	"postflow/internal/registry"
)

// Admin groups the authenticated admin API handlers: clients, calendars,
// posts, and the notification feed. All writes go through the registries,
// which own the denormalized-data bookkeeping.
type Admin struct {
	clients     *registry.ClientRegistry
	calendars   *registry.CalendarRegistry
	posts       *registry.PostRegistry
	ledger      *registry.NotificationLedger
	portalCache *cache.PortalCache
}

// NewAdmin creates a new Admin handler group. portalCache may be nil when
// Valkey caching is not wired (tests).
func NewAdmin(
	clients *registry.ClientRegistry,
	calendars *registry.CalendarRegistry,
	posts *registry.PostRegistry,
	ledger *registry.NotificationLedger,
	portalCache *cache.PortalCache,
) *Admin {
	return &Admin{
		clients:     clients,
		calendars:   calendars,
		posts:       posts,
		ledger:      ledger,
		portalCache: portalCache,
	}
}

// invalidatePortal drops the cached portal payload for a client, looked up
// by ID. Best-effort: a failed lookup just means the entry expires on TTL.
func (a *Admin) invalidatePortal(ctx context.Context, clientID uuid.UUID) {
	if a.portalCache == nil {
		return
	}
	client, err := a.clients.FindByID(clientID)
	if err != nil || client == nil {
		slog.Debug("portal invalidation skipped", "client", clientID, "error", err)
		return
	}
	a.portalCache.Invalidate(ctx, client.Code)
}
