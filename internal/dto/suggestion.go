package dto

import "encoding/json"

// SuggestionKind discriminates assistant suggestion payloads.
type SuggestionKind string

const (
	SuggestionKindReassignment  SuggestionKind = "reassignment"
	SuggestionKindGeneratedWeek SuggestionKind = "generated_week"
)

// Suggestion is the tagged envelope received from the planning assistant.
// Payload stays raw until the kind-specific decoder validates it.
type Suggestion struct {
	Kind    SuggestionKind  `json:"kind" validate:"required,oneof=reassignment generated_week"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

// ReassignmentSuggestion proposes moving one entry to a new teacher set.
type ReassignmentSuggestion struct {
	ScheduleEntryID string   `json:"scheduleEntryId" validate:"required"`
	NewTeacherIDs   []string `json:"newTeacherIds" validate:"required,min=1,dive,required"`
	Reasoning       string   `json:"reasoning"`
}

// GeneratedClass is one class slot inside a generated-week suggestion.
// Times use "HH:mm" and Day runs Monday=1 through Friday=5.
type GeneratedClass struct {
	Day        int      `json:"day" validate:"min=1,max=5"`
	StartTime  string   `json:"startTime" validate:"required"`
	EndTime    string   `json:"endTime" validate:"required"`
	ClassType  string   `json:"classType" validate:"required"`
	TeacherIDs []string `json:"teacherIds" validate:"required,min=1,dive,required"`
	Capacity   *int     `json:"capacity,omitempty" validate:"omitempty,min=1"`
	Notes      *string  `json:"notes,omitempty"`
}

// GeneratedWeekPayload carries a full generated weekly schedule.
type GeneratedWeekPayload struct {
	Summary          string           `json:"summary"`
	Warnings         []string         `json:"warnings"`
	GeneratedClasses []GeneratedClass `json:"generatedClasses" validate:"required,min=1,dive"`
}

// ApplySuggestionResult reports what a suggestion changed.
type ApplySuggestionResult struct {
	Kind         SuggestionKind `json:"kind"`
	ProposalID   *string        `json:"proposalId,omitempty"`
	EntryIDs     []string       `json:"entryIds,omitempty"`
	EntriesAdded int            `json:"entriesAdded"`
}
