// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"postflow/internal/cache"
	"postflow/internal/database"
	"postflow/internal/middleware"
	"postflow/internal/models"
	"postflow/internal/registry"
	"postflow/internal/session"
	"postflow/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "postflow")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "postflow")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		// Clean up test session and portal cache keys.
		for _, pattern := range []string{"session:*", "portal:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// fakeBlobs is an in-memory BlobStore for handler tests.
type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
}

const fakeBlobsBase = "https://blobs.test/postflow/"

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (f *fakeBlobs) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeBlobs) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobs) FileURL(key string) string {
	return fakeBlobsBase + key
}

func (f *fakeBlobs) ExtractKey(rawURL string) (string, bool) {
	if !strings.HasPrefix(rawURL, fakeBlobsBase) {
		return "", false
	}
	return strings.TrimPrefix(rawURL, fakeBlobsBase), true
}

func (f *fakeBlobs) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB          *sql.DB
	Valkey      *redis.Client
	Sessions    *session.Store
	Blobs       *fakeBlobs
	UserStore   *store.UserStore
	Clients     *registry.ClientRegistry
	Calendars   *registry.CalendarRegistry
	Posts       *registry.PostRegistry
	Ledger      *registry.NotificationLedger
	PortalCache *cache.PortalCache
	Admin       *Admin
	Auth        *Auth
	Portal      *Portal
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	sessions := session.NewStore(vk, false)
	blobs := newFakeBlobs()

	userStore := store.NewUserStore(db)
	clientStore := store.NewClientStore(db)
	calendarStore := store.NewCalendarStore(db)
	postStore := store.NewPostStore(db)
	notificationStore := store.NewNotificationStore(db)

	clients := registry.NewClientRegistry(clientStore, calendarStore, postStore, blobs)
	calendars := registry.NewCalendarRegistry(calendarStore, clientStore, postStore, blobs)
	posts := registry.NewPostRegistry(postStore, calendarStore, clientStore, blobs)
	ledger := registry.NewNotificationLedger(postStore, notificationStore)

	portalCache := cache.NewPortalCache(vk, 1*time.Minute)

	admin := NewAdmin(clients, calendars, posts, ledger, portalCache)
	auth := NewAuth(sessions, userStore)
	portal := NewPortal(clients, posts, portalCache, "https://postflow.test")

	return &testEnv{
		DB:          db,
		Valkey:      vk,
		Sessions:    sessions,
		Blobs:       blobs,
		UserStore:   userStore,
		Clients:     clients,
		Calendars:   calendars,
		Posts:       posts,
		Ledger:      ledger,
		PortalCache: portalCache,
		Admin:       admin,
		Auth:        auth,
		Portal:      portal,
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates a session.Data for testing.
func testSession(userID uuid.UUID, email string, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       email,
		DisplayName: "Test Operator",
		TwoFADone:   twoFADone,
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiURLParamAndSession adds both chi URL param and session to a request.
func withChiURLParamAndSession(r *http.Request, key, value string, sess *session.Data) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	return r.WithContext(ctx)
}

// createTestClient registers a client through the registry and cleans up
// every row it may accumulate over the test.
func createTestClient(t *testing.T, e *testEnv, name string) *models.Client {
	t.Helper()

	var client *models.Client
	var err error
	for i := 0; i < 5; i++ {
		client, err = e.Clients.Create(name)
		if err == nil {
			break
		}
		if !errors.Is(err, registry.ErrDuplicateCode) {
			t.Fatalf("create client: %v", err)
		}
	}
	if client == nil {
		t.Fatalf("create client: code collision persisted: %v", err)
	}

	id := client.ID
	t.Cleanup(func() { cleanupClientRows(t, e.DB, id) })
	return client
}

// cleanupClientRows removes every row belonging to a client, in dependency
// order.
func cleanupClientRows(t *testing.T, db *sql.DB, clientID uuid.UUID) {
	t.Helper()
	db.Exec(`DELETE FROM notification_seen WHERE post_id IN (SELECT id FROM posts WHERE client_id = $1)`, clientID)
	db.Exec(`DELETE FROM posts WHERE client_id = $1`, clientID)
	db.Exec(`DELETE FROM calendars WHERE client_id = $1`, clientID)
	db.Exec(`DELETE FROM clients WHERE id = $1`, clientID)
}

// createTestUser inserts an operator account with a known password and
// removes it afterwards.
func createTestUser(t *testing.T, e *testEnv, email, password string) *models.User {
	t.Helper()

	// Tests may leave a user behind after a failed run.
	if existing, _ := e.UserStore.FindByEmail(email); existing != nil {
		e.UserStore.Delete(existing.ID)
	}

	user, err := e.UserStore.Create(email, password, "Test Operator")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { e.UserStore.Delete(user.ID) })
	return user
}

// pngBytes returns a buffer that http.DetectContentType sniffs as image/png.
func pngBytes() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
}

// multipartBody builds a multipart form with the given fields and an
// optional image part. Returns the body and the Content-Type header value.
func multipartBody(t *testing.T, fields map[string]string, imageName string, imageData []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if imageName != "" {
		part, err := mw.CreateFormFile("image", imageName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(imageData); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, mw.FormDataContentType()
}

// testPostForm returns a complete, valid PostCreate form for the given
// client and calendar.
func testPostForm(client *models.Client, calendarID uuid.UUID) map[string]string {
	return map[string]string{
		"client_id":   client.ID.String(),
		"calendar_id": calendarID.String(),
		"caption":     "Launch day!",
		"date":        time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	}
}
