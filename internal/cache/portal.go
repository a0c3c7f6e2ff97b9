// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// portal.go provides a Valkey-backed cache for client-portal responses.
// Portal lookups hit on every page load from every client device, so the
// serialized payload for an access code is cached to skip the DB reads.
// Admin writes invalidate by code; the short TTL bounds staleness when an
// invalidation is missed.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// portalKeyPrefix is the Valkey key prefix for cached portal payloads.
	portalKeyPrefix = "portal:"

	// DefaultPortalTTL is how long a portal payload stays cached.
	DefaultPortalTTL = 2 * time.Minute
)

// PortalCache manages cached portal payloads in Valkey, keyed by client
// access code.
type PortalCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPortalCache creates a portal cache backed by the given Valkey client.
func NewPortalCache(client *redis.Client, ttl time.Duration) *PortalCache {
	if ttl == 0 {
		ttl = DefaultPortalTTL
	}
	return &PortalCache{client: client, ttl: ttl}
}

// Get retrieves the cached payload for an access code. Returns false on miss.
func (pc *PortalCache) Get(ctx context.Context, code string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, portalKeyPrefix+code).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("portal cache get error", "code", code, "error", err)
		return nil, false
	}
	slog.Debug("portal cache hit", "code", code)
	return val, true
}

// Set stores a serialized portal payload for an access code with the
// configured TTL.
func (pc *PortalCache) Set(ctx context.Context, code string, payload []byte) {
	if err := pc.client.Set(ctx, portalKeyPrefix+code, payload, pc.ttl).Err(); err != nil {
		slog.Warn("portal cache set error", "code", code, "error", err)
	}
}

// Invalidate removes the cached payload for an access code. Called after
// any admin write that changes what the code's portal would show.
func (pc *PortalCache) Invalidate(ctx context.Context, code string) {
	if err := pc.client.Del(ctx, portalKeyPrefix+code).Err(); err != nil {
		slog.Warn("portal cache invalidate error", "code", code, "error", err)
	}
	slog.Debug("portal cache invalidated", "code", code)
}

// InvalidateAll removes every cached portal payload by scanning for the
// prefix. Used after bulk repairs, since any client could be affected.
func (pc *PortalCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := pc.client.Scan(ctx, cursor, portalKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("portal cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("portal cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("portal cache fully cleared", "deleted", deleted)
	}
}
