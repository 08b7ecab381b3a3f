package models

// Workload is the derived per-teacher balance of worked versus contracted
// hours. It is computed on demand and never persisted. Values carry full
// precision; rounding happens at presentation boundaries only.
type Workload struct {
	TeacherID       string  `json:"teacher_id"`
	WorkedHours     float64 `json:"worked_hours"`
	ContractedHours float64 `json:"contracted_hours"`
	Overtime        float64 `json:"overtime"`
	Deficit         float64 `json:"deficit"`
}
