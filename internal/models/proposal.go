package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ProposalStatus captures the draft-schedule lifecycle. Approved and
// rejected are terminal.
type ProposalStatus string

const (
	ProposalStatusDraft    ProposalStatus = "draft"
	ProposalStatusReview   ProposalStatus = "review"
	ProposalStatusApproved ProposalStatus = "approved"
	ProposalStatusRejected ProposalStatus = "rejected"
)

// proposalTransitions is the central transition table for the proposal
// state machine. Terminal states have no outgoing edges.
var proposalTransitions = map[ProposalStatus][]ProposalStatus{
	ProposalStatusDraft:  {ProposalStatusReview, ProposalStatusApproved, ProposalStatusRejected},
	ProposalStatusReview: {ProposalStatusApproved, ProposalStatusRejected},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to ProposalStatus) bool {
	for _, next := range proposalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Valid reports whether the status is one of the known lifecycle states.
func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalStatusDraft, ProposalStatusReview, ProposalStatusApproved, ProposalStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s ProposalStatus) Terminal() bool {
	return len(proposalTransitions[s]) == 0
}

// Mutable reports whether a proposal in this status accepts entry edits.
func (s ProposalStatus) Mutable() bool {
	return s == ProposalStatusDraft || s == ProposalStatusReview
}

// TeacherConflict records availability problems for one teacher.
type TeacherConflict struct {
	TeacherID string   `json:"teacherId"`
	Conflicts []string `json:"conflicts"`
}

// ResourceConflict records room/equipment double-booking for one resource.
type ResourceConflict struct {
	ResourceID string   `json:"resourceId"`
	Conflicts  []string `json:"conflicts"`
}

// WorkloadIssue records a scheduled-versus-contracted imbalance.
type WorkloadIssue struct {
	TeacherID  string  `json:"teacherId"`
	Hours      float64 `json:"hours"`
	Contracted float64 `json:"contracted"`
}

// ConflictAnalysis is the analysis snapshot stored on a proposal,
// refreshed on demand rather than on every mutation.
type ConflictAnalysis struct {
	TeacherConflicts  []TeacherConflict  `json:"teacherConflicts"`
	ResourceConflicts []ResourceConflict `json:"resourceConflicts"`
	WorkloadIssues    []WorkloadIssue    `json:"workloadIssues"`
}

// Value marshals the analysis snapshot to JSON for persistence.
func (a ConflictAnalysis) Value() (driver.Value, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal conflict analysis: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the analysis snapshot.
func (a *ConflictAnalysis) Scan(value interface{}) error {
	if value == nil {
		*a = ConflictAnalysis{}
		return nil
	}
	data, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("conflict analysis: %w", err)
	}
	if len(data) == 0 {
		*a = ConflictAnalysis{}
		return nil
	}
	if err := json.Unmarshal(data, a); err != nil {
		return fmt.Errorf("unmarshal conflict analysis: %w", err)
	}
	return nil
}

// ScheduleProposal is a draft alternate schedule evaluated before being
// merged into the live grid. Its entries live in proposal_entries and are
// loaded alongside the row.
type ScheduleProposal struct {
	ID              string           `db:"id" json:"id"`
	Name            string           `db:"name" json:"name"`
	CreatedBy       string           `db:"created_by" json:"created_by"`
	Status          ProposalStatus   `db:"status" json:"status"`
	BaseScheduleID  *string          `db:"base_schedule_id" json:"base_schedule_id,omitempty"`
	ConflictReport  ConflictAnalysis `db:"conflict_report" json:"conflict_report"`
	Notes           *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
	ProposedEntries []ScheduleEntry  `db:"-" json:"proposed_entries"`
}
