// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// CalendarSummary is the denormalized projection of a Calendar embedded in
// its owning Client record. It is a cached copy, not an independent entity:
// the calendars table remains the source of truth, and the registry layer
// is responsible for keeping the embedded list in sync on every calendar
// create, update, and delete.
type CalendarSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
}

// Client represents a tenant of the scheduler. Clients authenticate with a
// human-shareable access code and see a read-only view of their posts.
//
// Calendars and PostsCount are denormalized: Calendars mirrors the client's
// calendar rows (insertion order) and PostsCount mirrors the number of post
// rows. Both are maintained by hand on every mutation and can drift after a
// partial failure; the reconciler recomputes them from the source tables.
type Client struct {
	ID         uuid.UUID         `json:"id"`
	Code       string            `json:"code"`
	Name       string            `json:"name"`
	PostsCount int               `json:"posts_count"`
	Calendars  []CalendarSummary `json:"calendars"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Summary returns the embedded-list entry for the given calendar.
func (c *Client) Summary(calendarID uuid.UUID) *CalendarSummary {
	for i := range c.Calendars {
		if c.Calendars[i].ID == calendarID {
			return &c.Calendars[i]
		}
	}
	return nil
}
