package models

import "time"

// WorkLog is an actual clock-in/clock-out record for a teacher.
// A nil CheckOut means the teacher is still clocked in; at most one open
// log may exist per teacher at a time.
type WorkLog struct {
	ID        string     `db:"id" json:"id"`
	TeacherID string     `db:"teacher_id" json:"teacher_id"`
	CheckIn   time.Time  `db:"check_in" json:"check_in"`
	CheckOut  *time.Time `db:"check_out" json:"check_out,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Open reports whether the log is still missing a check-out.
func (l WorkLog) Open() bool {
	return l.CheckOut == nil
}

// HoursAsOf returns the worked duration in fractional hours, closing an
// open log against the supplied instant.
func (l WorkLog) HoursAsOf(asOf time.Time) float64 {
	end := asOf
	if l.CheckOut != nil {
		end = *l.CheckOut
	}
	if !end.After(l.CheckIn) {
		return 0
	}
	return end.Sub(l.CheckIn).Hours()
}
