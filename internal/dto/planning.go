package dto

// CapacityIssue flags a schedule entry that assigns a teacher on a weekday
// their current capacity profile declares unavailable.
type CapacityIssue struct {
	TeacherID string `json:"teacherId"`
	Day       int    `json:"day"`
	Issue     string `json:"issue"`
}

// ResourceConflictItem flags a double-booked shared resource.
type ResourceConflictItem struct {
	ResourceID string `json:"resourceId"`
	Day        int    `json:"day"`
	Issue      string `json:"issue"`
}

// WorkloadBalance buckets teachers by how far the hours scheduled for them
// in the analyzed entry set sit from their contracted hours.
type WorkloadBalance struct {
	OverCapacity  []string `json:"overCapacity"`
	UnderCapacity []string `json:"underCapacity"`
	Balanced      []string `json:"balanced"`
}

// TeacherWorkloadItem reports scheduled-versus-contracted hours for one
// teacher within the analyzed entry set.
type TeacherWorkloadItem struct {
	TeacherID       string  `json:"teacherId"`
	ScheduledHours  float64 `json:"scheduledHours"`
	ContractedHours float64 `json:"contractedHours"`
	Variance        float64 `json:"variance"`
}

// PlanningAnalysis is the full capacity and balance report for the live
// schedule or a proposal.
type PlanningAnalysis struct {
	CapacityIssues    []CapacityIssue        `json:"capacityIssues"`
	ResourceConflicts []ResourceConflictItem `json:"resourceConflicts"`
	WorkloadBalance   WorkloadBalance        `json:"workloadBalance"`
	Workloads         []TeacherWorkloadItem  `json:"workloads"`
}
