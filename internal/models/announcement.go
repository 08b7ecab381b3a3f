package models

import "time"

// Announcement is a short message shown on the dashboard.
type Announcement struct {
	ID        string    `db:"id" json:"id"`
	Message   string    `db:"message" json:"message"`
	Date      time.Time `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
