// Package store provides database access methods for all Postflow
// entities. Each store struct wraps a *sql.DB and exposes typed query
// methods. Stores are deliberately dumb CRUD: the multi-step consistency
// protocol (cascades, embedded-list sync, counters) lives in the registry
// layer on top.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"postflow/internal/models"
)

// ClientStore handles all client-related database operations.
type ClientStore struct {
	db *sql.DB
}

// NewClientStore creates a new ClientStore with the given database connection.
func NewClientStore(db *sql.DB) *ClientStore {
	return &ClientStore{db: db}
}

// clientColumns lists the columns selected in client queries.
const clientColumns = `id, code, name, posts_count, calendars, created_at, updated_at`

// scanClient scans a client row, decoding the embedded calendar list from JSONB.
func scanClient(scanner interface{ Scan(...any) error }) (*models.Client, error) {
	var c models.Client
	var calendars []byte
	err := scanner.Scan(&c.ID, &c.Code, &c.Name, &c.PostsCount, &calendars, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(calendars, &c.Calendars); err != nil {
		return nil, fmt.Errorf("decode embedded calendars: %w", err)
	}
	return &c, nil
}

// Create inserts a new client with an empty embedded calendar list and a
// zero post count. Fails if the code is already taken (unique constraint).
func (s *ClientStore) Create(code, name string) (*models.Client, error) {
	row := s.db.QueryRow(`
		INSERT INTO clients (code, name)
		VALUES ($1, $2)
		RETURNING `+clientColumns, code, name)
	c, err := scanClient(row)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

// FindByID retrieves a client by its UUID. Returns nil if not found.
func (s *ClientStore) FindByID(id uuid.UUID) (*models.Client, error) {
	row := s.db.QueryRow(`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find client by id: %w", err)
	}
	return c, nil
}

// FindByCode retrieves a client by its access code. Returns nil if not found.
func (s *ClientStore) FindByCode(code string) (*models.Client, error) {
	row := s.db.QueryRow(`SELECT `+clientColumns+` FROM clients WHERE code = $1`, code)
	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find client by code: %w", err)
	}
	return c, nil
}

// List returns all clients ordered by creation date.
func (s *ClientStore) List() ([]models.Client, error) {
	rows, err := s.db.Query(`SELECT ` + clientColumns + ` FROM clients ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

// UpdateName changes a client's display name. The denormalized fields
// (calendars, posts_count) are owned by the registry layer and are never
// touched here.
func (s *ClientStore) UpdateName(id uuid.UUID, name string) error {
	res, err := s.db.Exec(`UPDATE clients SET name = $1, updated_at = NOW() WHERE id = $2`, name, id)
	if err != nil {
		return fmt.Errorf("update client name: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetCalendars replaces the client's embedded calendar list wholesale.
// Callers read the current client, compute the new list, and write it back;
// there is no field-level merge primitive for the JSONB value.
func (s *ClientStore) SetCalendars(id uuid.UUID, calendars []models.CalendarSummary) error {
	if calendars == nil {
		calendars = []models.CalendarSummary{}
	}
	payload, err := json.Marshal(calendars)
	if err != nil {
		return fmt.Errorf("encode embedded calendars: %w", err)
	}
	_, err = s.db.Exec(`UPDATE clients SET calendars = $1, updated_at = NOW() WHERE id = $2`, payload, id)
	if err != nil {
		return fmt.Errorf("set client calendars: %w", err)
	}
	return nil
}

// SetPostsCount overwrites the client's post-count aggregate.
func (s *ClientStore) SetPostsCount(id uuid.UUID, count int) error {
	_, err := s.db.Exec(`UPDATE clients SET posts_count = $1, updated_at = NOW() WHERE id = $2`, count, id)
	if err != nil {
		return fmt.Errorf("set client posts count: %w", err)
	}
	return nil
}

// Delete removes a client row. Dependent calendars and posts are NOT
// touched — the registry cascades over them before calling this.
func (s *ClientStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}
