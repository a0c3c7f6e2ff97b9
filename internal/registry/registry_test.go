// registry_test.go provides shared test infrastructure for the registry
// integration tests: a PostgreSQL connection (tests are skipped when the
// database is unavailable) and an in-memory blob store standing in for S3.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"postflow/internal/database"
	"postflow/internal/models"
	"postflow/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped.
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
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// fakeBlobs is an in-memory BlobStore. It mimics the URL scheme of the
// real S3 client so ExtractKey round-trips.
type fakeBlobs struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failDelete bool
	deletes    int
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
	f.deletes++
	if f.failDelete {
		return errors.New("simulated blob delete failure")
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobs) FileURL(key string) string {
	return fakeBlobsBase + key
}

func (f *fakeBlobs) ExtractKey(rawURL string) (string, bool) {
	if len(rawURL) > len(fakeBlobsBase) && rawURL[:len(fakeBlobsBase)] == fakeBlobsBase {
		return rawURL[len(fakeBlobsBase):], true
	}
	return "", false
}

func (f *fakeBlobs) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

func (f *fakeBlobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// testEnv bundles the stores, registries, and fake blob store for one test.
type testEnv struct {
	db        *sql.DB
	clients   *store.ClientStore
	calendars *store.CalendarStore
	posts     *store.PostStore
	markers   *store.NotificationStore
	blobs     *fakeBlobs

	clientReg   *ClientRegistry
	calendarReg *CalendarRegistry
	postReg     *PostRegistry
	ledger      *NotificationLedger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testDB(t)

	e := &testEnv{
		db:        db,
		clients:   store.NewClientStore(db),
		calendars: store.NewCalendarStore(db),
		posts:     store.NewPostStore(db),
		markers:   store.NewNotificationStore(db),
		blobs:     newFakeBlobs(),
	}
	e.clientReg = NewClientRegistry(e.clients, e.calendars, e.posts, e.blobs)
	e.calendarReg = NewCalendarRegistry(e.calendars, e.clients, e.posts, e.blobs)
	e.postReg = NewPostRegistry(e.posts, e.calendars, e.clients, e.blobs)
	e.ledger = NewNotificationLedger(e.posts, e.markers)
	return e
}

// createClient registers a client through the registry, retrying the rare
// code collision with leftover rows, and schedules full row cleanup.
func (e *testEnv) createClient(t *testing.T, name string) *models.Client {
	t.Helper()

	var client *models.Client
	var err error
	for i := 0; i < 5; i++ {
		client, err = e.clientReg.Create(name)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrDuplicateCode) {
			t.Fatalf("create client: %v", err)
		}
	}
	if client == nil {
		t.Fatalf("create client: %v", err)
	}

	id := client.ID
	t.Cleanup(func() {
		e.db.Exec(`DELETE FROM notification_seen WHERE post_id IN (SELECT id FROM posts WHERE client_id = $1)`, id)
		e.db.Exec(`DELETE FROM posts WHERE client_id = $1`, id)
		e.db.Exec(`DELETE FROM calendars WHERE client_id = $1`, id)
		e.db.Exec(`DELETE FROM clients WHERE id = $1`, id)
	})
	return client
}

// testDate builds a mid-morning local timestamp on the given day.
func testDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 10, 0, 0, 0, time.Local)
}

// image builds a small test upload.
func image(name string) ImageUpload {
	return ImageUpload{
		Filename:    name,
		ContentType: "image/jpeg",
		Data:        []byte(fmt.Sprintf("jpeg-bytes-%s", name)),
	}
}
