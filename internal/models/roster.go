package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a JSON-persisted list of identifiers.
type StringList []string

// Value marshals the list to JSON for persistence.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the list.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	data, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("string list: %w", err)
	}
	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	if err := json.Unmarshal(data, l); err != nil {
		return fmt.Errorf("unmarshal string list: %w", err)
	}
	return nil
}

// PriorityList orders teachers by seniority within each category.
// Stored as a singleton document.
type PriorityList struct {
	Titulares  StringList `db:"titulares" json:"titulares"`
	Auxiliares StringList `db:"auxiliares" json:"auxiliares"`
}

// ShiftRoster assigns teachers to the morning and afternoon shifts.
// Stored as a singleton document.
type ShiftRoster struct {
	Morning   StringList `db:"morning" json:"morning"`
	Afternoon StringList `db:"afternoon" json:"afternoon"`
}
