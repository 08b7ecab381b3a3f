package models

import (
	"time"

	"github.com/lib/pq"
)

// ClassType enumerates the kinds of classes on the grid.
type ClassType string

const (
	ClassTypeCalistenia     ClassType = "Calistenia"
	ClassTypeEscalada       ClassType = "Escalada"
	ClassTypeBoth           ClassType = "Ambos"
	ClassTypePonto          ClassType = "Ponto"
	ClassTypeCalisteniaKids ClassType = "Calistenia Kids"
	ClassTypeFisioterapia   ClassType = "Fisioterapia"
	ClassTypeAulaLivre      ClassType = "Aula Livre"
	ClassTypeSupervisao     ClassType = "Supervisão Horário Livre"
)

var classTypes = map[ClassType]struct{}{
	ClassTypeCalistenia:     {},
	ClassTypeEscalada:       {},
	ClassTypeBoth:           {},
	ClassTypePonto:          {},
	ClassTypeCalisteniaKids: {},
	ClassTypeFisioterapia:   {},
	ClassTypeAulaLivre:      {},
	ClassTypeSupervisao:     {},
}

// ValidClassType reports whether the value is a known class type.
func ValidClassType(t ClassType) bool {
	_, ok := classTypes[t]
	return ok
}

// ScheduleEntry is one scheduled class occurrence on the live grid or
// inside a proposal. Day uses 0=Sunday through 6=Saturday and must agree
// with the start instant's weekday.
type ScheduleEntry struct {
	ID          string         `db:"id" json:"id"`
	TeacherIDs  pq.StringArray `db:"teacher_ids" json:"teacher_ids"`
	StudentIDs  pq.StringArray `db:"student_ids" json:"student_ids"`
	StartTime   time.Time      `db:"start_time" json:"start_time"`
	EndTime     time.Time      `db:"end_time" json:"end_time"`
	Day         int            `db:"day" json:"day"`
	ClassType   ClassType      `db:"class_type" json:"class_type"`
	WorkLogID   *string        `db:"work_log_id" json:"work_log_id,omitempty"`
	IsUnplanned bool           `db:"is_unplanned" json:"is_unplanned"`
	IsRecurring bool           `db:"is_recurring" json:"is_recurring"`
	Capacity    *int           `db:"capacity" json:"capacity,omitempty"`
	Notes       *string        `db:"notes" json:"notes,omitempty"`
	ProposalID  *string        `db:"proposal_id" json:"proposal_id,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// DurationHours returns the entry length in fractional hours.
func (e ScheduleEntry) DurationHours() float64 {
	return e.EndTime.Sub(e.StartTime).Hours()
}

// Names reports whether the entry assigns the given teacher.
func (e ScheduleEntry) Names(teacherID string) bool {
	for _, id := range e.TeacherIDs {
		if id == teacherID {
			return true
		}
	}
	return false
}

// ScheduleFilter describes query params for listing live entries.
type ScheduleFilter struct {
	TeacherID string
	Day       *int
	ClassType *ClassType
	From      *time.Time
	To        *time.Time
}
