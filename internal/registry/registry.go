// Package registry implements the consistency protocol that keeps the
// denormalized scheduling data correct: the calendar summaries embedded in
// each client row, the calendar name/color snapshots on each post, and the
// hand-maintained posts_count aggregate.
//
// Every multi-step operation here (cascade deletes, embedded-list sync,
// counter updates) is a sequence of independent store round-trips with no
// transaction around them. A crash between steps leaves partial state;
// that is a documented property of the design, and the Reconciler is the
// remediation. Image deletion is always best-effort — a failed blob delete
// is logged and never blocks the primary operation.
package registry

import (
	"context"
	"io"
	"log/slog"
)

// BlobStore is the object storage consumed by the registries for post
// images. *storage.Client satisfies it; tests substitute an in-memory fake.
type BlobStore interface {
	// Upload stores an object under key.
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	// Delete removes the object under key.
	Delete(ctx context.Context, key string) error
	// FileURL returns the public URL for key.
	FileURL(key string) string
	// ExtractKey recovers the object key from a stored URL, reporting
	// whether the URL belongs to this storage.
	ExtractKey(rawURL string) (string, bool)
}

// deleteImage removes a post image from blob storage, best-effort. The
// object key is reconstructed from the stored URL; any failure (foreign
// URL, storage error, storage not configured) is logged and swallowed so
// the surrounding record mutation proceeds regardless.
func deleteImage(ctx context.Context, blobs BlobStore, imageURL string) {
	if blobs == nil || imageURL == "" {
		return
	}
	key, ok := blobs.ExtractKey(imageURL)
	if !ok {
		slog.Warn("image cleanup skipped: url does not match storage", "url", imageURL)
		return
	}
	if err := blobs.Delete(ctx, key); err != nil {
		slog.Warn("image cleanup failed", "key", key, "error", err)
	}
}
