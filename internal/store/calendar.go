// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"postflow/internal/models"
)

// CalendarStore handles all calendar-related database operations.
type CalendarStore struct {
	db *sql.DB
}

// NewCalendarStore creates a new CalendarStore with the given database connection.
func NewCalendarStore(db *sql.DB) *CalendarStore {
	return &CalendarStore{db: db}
}

// calendarColumns lists the columns selected in calendar queries.
const calendarColumns = `id, client_id, name, color, created_at`

func scanCalendar(scanner interface{ Scan(...any) error }) (*models.Calendar, error) {
	var c models.Calendar
	err := scanner.Scan(&c.ID, &c.ClientID, &c.Name, &c.Color, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new calendar row and returns it with the generated ID.
func (s *CalendarStore) Create(clientID uuid.UUID, name, color string) (*models.Calendar, error) {
	row := s.db.QueryRow(`
		INSERT INTO calendars (client_id, name, color)
		VALUES ($1, $2, $3)
		RETURNING `+calendarColumns, clientID, name, color)
	c, err := scanCalendar(row)
	if err != nil {
		return nil, fmt.Errorf("create calendar: %w", err)
	}
	return c, nil
}

// FindByID retrieves a calendar by its UUID. Returns nil if not found.
func (s *CalendarStore) FindByID(id uuid.UUID) (*models.Calendar, error) {
	row := s.db.QueryRow(`SELECT `+calendarColumns+` FROM calendars WHERE id = $1`, id)
	c, err := scanCalendar(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find calendar by id: %w", err)
	}
	return c, nil
}

// ListByClient returns a client's calendars in creation order — the same
// order the embedded list on the client row is maintained in.
func (s *CalendarStore) ListByClient(clientID uuid.UUID) ([]models.Calendar, error) {
	rows, err := s.db.Query(`
		SELECT `+calendarColumns+`
		FROM calendars
		WHERE client_id = $1
		ORDER BY created_at ASC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}
	defer rows.Close()

	var calendars []models.Calendar
	for rows.Next() {
		c, err := scanCalendar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calendar: %w", err)
		}
		calendars = append(calendars, *c)
	}
	return calendars, rows.Err()
}

// Update changes a calendar's name and/or color. Nil fields are left
// untouched. client_id is immutable.
func (s *CalendarStore) Update(id uuid.UUID, name, color *string) error {
	res, err := s.db.Exec(`
		UPDATE calendars
		SET name = COALESCE($1, name), color = COALESCE($2, color)
		WHERE id = $3
	`, name, color, id)
	if err != nil {
		return fmt.Errorf("update calendar: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a calendar row. Posts referencing it are NOT touched —
// the registry cascades over them before calling this.
func (s *CalendarStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM calendars WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete calendar: %w", err)
	}
	return nil
}
