package dto

import (
	"math"

	"github.com/arenafit/schedule-api/internal/models"
)

// WorkloadView is the presentation shape of a teacher's workload balance.
// Hours are rounded to two decimals here and nowhere earlier.
type WorkloadView struct {
	TeacherID       string  `json:"teacherId"`
	TeacherName     string  `json:"teacherName"`
	WorkedHours     float64 `json:"workedHours"`
	ContractedHours float64 `json:"contractedHours"`
	Overtime        float64 `json:"overtime"`
	Deficit         float64 `json:"deficit"`
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// NewWorkloadView renders a computed workload for API responses.
func NewWorkloadView(w models.Workload, teacherName string) WorkloadView {
	return WorkloadView{
		TeacherID:       w.TeacherID,
		TeacherName:     teacherName,
		WorkedHours:     Round2(w.WorkedHours),
		ContractedHours: Round2(w.ContractedHours),
		Overtime:        Round2(w.Overtime),
		Deficit:         Round2(w.Deficit),
	}
}
