package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AvailabilityWindow declares whether a teacher can work on a weekday and
// within which time-of-day window ("HH:mm").
type AvailabilityWindow struct {
	Day         int    `json:"day"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	IsAvailable bool   `json:"isAvailable"`
}

// AvailabilityWindows is the ordered set of seven per-weekday windows
// persisted as JSONB.
type AvailabilityWindows []AvailabilityWindow

// Value marshals windows to JSON for persistence.
func (w AvailabilityWindows) Value() (driver.Value, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("marshal availability windows: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the window slice.
func (w *AvailabilityWindows) Scan(value interface{}) error {
	if value == nil {
		*w = nil
		return nil
	}
	data, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("availability windows: %w", err)
	}
	if len(data) == 0 {
		*w = nil
		return nil
	}
	if err := json.Unmarshal(data, w); err != nil {
		return fmt.Errorf("unmarshal availability windows: %w", err)
	}
	return nil
}

// CapacityConstraints bounds a teacher's hours and flags preferences.
type CapacityConstraints struct {
	MaxDailyHours    float64  `json:"maxDailyHours"`
	MaxWeeklyHours   float64  `json:"maxWeeklyHours"`
	PreferredDays    []int    `json:"preferredDays"`
	UnavailableDates []string `json:"unavailableDates"`
}

// Value marshals constraints to JSON for persistence.
func (c CapacityConstraints) Value() (driver.Value, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal capacity constraints: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the constraints struct.
func (c *CapacityConstraints) Scan(value interface{}) error {
	if value == nil {
		*c = CapacityConstraints{}
		return nil
	}
	data, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("capacity constraints: %w", err)
	}
	if len(data) == 0 {
		*c = CapacityConstraints{}
		return nil
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("unmarshal capacity constraints: %w", err)
	}
	return nil
}

// CapacityProfile is a versioned statement of a teacher's weekly
// availability and hour limits. At most one profile per teacher is
// current at any time.
type CapacityProfile struct {
	ID            string              `db:"id" json:"id"`
	TeacherID     string              `db:"teacher_id" json:"teacher_id"`
	Name          string              `db:"name" json:"name"`
	Availability  AvailabilityWindows `db:"availability" json:"availability"`
	Constraints   CapacityConstraints `db:"constraints" json:"constraints"`
	EffectiveDate time.Time           `db:"effective_date" json:"effective_date"`
	IsCurrent     bool                `db:"is_current" json:"is_current"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updated_at"`
}

// Window returns the availability window declared for the weekday, or nil
// when the profile has none.
func (p CapacityProfile) Window(day int) *AvailabilityWindow {
	for i := range p.Availability {
		if p.Availability[i].Day == day {
			return &p.Availability[i]
		}
	}
	return nil
}

// ExplicitlyUnavailable reports whether the profile declares the weekday
// unavailable. Absence of a window is not a violation.
func (p CapacityProfile) ExplicitlyUnavailable(day int) bool {
	w := p.Window(day)
	return w != nil && !w.IsAvailable
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
}
