// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// PostStatus is the lifecycle state of a scheduled post. Stored as an open
// string so future states (published, failed) don't require a migration.
type PostStatus string

const (
	// PostStatusScheduled is the only status written today.
	PostStatusScheduled PostStatus = "scheduled"
)

// Post is a scheduled piece of content: an image plus a caption, dated
// against one client/calendar pair.
//
// CalendarName and CalendarColor are snapshots of the calendar's display
// fields taken at the most recent write to the post. They are not a live
// join: renaming or recoloring a calendar leaves existing posts showing the
// old values. That staleness is an accepted property of the data model.
type Post struct {
	ID            uuid.UUID  `json:"id"`
	ClientID      uuid.UUID  `json:"client_id"`
	CalendarID    uuid.UUID  `json:"calendar_id"`
	CalendarName  string     `json:"calendar_name"`
	CalendarColor string     `json:"calendar_color"`
	Caption       string     `json:"caption"`
	Date          time.Time  `json:"date"`
	ImageURL      string     `json:"image_url"`
	Status        PostStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ScheduledOn reports whether the post's date falls inside the local day
// that contains t.
func (p *Post) ScheduledOn(t time.Time) bool {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 0, 1)
	return !p.Date.Before(start) && p.Date.Before(end)
}
