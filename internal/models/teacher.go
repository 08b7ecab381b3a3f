package models

import "time"

// TeacherCategory distinguishes lead instructors from assistants.
type TeacherCategory string

const (
	TeacherCategoryTitular  TeacherCategory = "Titular"
	TeacherCategoryAuxiliar TeacherCategory = "Auxiliar"
)

// ValidTeacherCategory reports whether the value is a known category.
func ValidTeacherCategory(c TeacherCategory) bool {
	return c == TeacherCategoryTitular || c == TeacherCategoryAuxiliar
}

// Teacher represents an instructor with contracted weekly hours.
type Teacher struct {
	ID              string          `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	Category        TeacherCategory `db:"category" json:"category"`
	ContractedHours float64         `db:"contracted_hours" json:"contracted_hours"`
	Active          bool            `db:"active" json:"active"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Category  *TeacherCategory
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
