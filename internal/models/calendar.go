// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Calendar is a named, colored posting channel belonging to one client,
// typically one per social network ("Instagram", "Facebook"). ClientID is
// immutable after creation.
type Calendar struct {
	ID        uuid.UUID `json:"id"`
	ClientID  uuid.UUID `json:"client_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// AsSummary projects the calendar to the shape embedded in the owning
// client's calendar list.
func (c *Calendar) AsSummary() CalendarSummary {
	return CalendarSummary{ID: c.ID, Name: c.Name, Color: c.Color}
}
