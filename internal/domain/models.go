package domain

import (
	"time"
)

// Role distinguishes the two sides of a conversation turn.
type Role string

const (
	RoleSubmitter Role = "submitter"
	RoleResponder Role = "responder"
)

// PayloadKind identifies which variant of a structured payload is set.
type PayloadKind string

const (
	PayloadNone      PayloadKind = "none"
	PayloadNutrition PayloadKind = "nutrition"
	PayloadActivity  PayloadKind = "activity"
)

// NutritionRecord is one food item extracted from a responder turn.
type NutritionRecord struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	Note     string  `json:"note"`
	Healthy  bool    `json:"healthy"`
}

// ActivityRecord is one physical activity extracted from a responder turn.
type ActivityRecord struct {
	Name           string  `json:"name"`
	DurationMin    float64 `json:"duration_min"`
	CaloriesBurned float64 `json:"calories_burned"`
	Note           string  `json:"note"`
	Emoji          string  `json:"emoji"`
}

// StructuredPayload is a tagged union: exactly one of the record slices is
// populated, matching Kind. The zero value of the slices plus PayloadNone
// means no structured data.
type StructuredPayload struct {
	Kind      PayloadKind       `json:"kind"`
	Nutrition []NutritionRecord `json:"nutrition,omitempty"`
	Activity  []ActivityRecord  `json:"activity,omitempty"`
}

// NonePayload returns the empty payload variant.
func NonePayload() StructuredPayload {
	return StructuredPayload{Kind: PayloadNone}
}

// Entry is one turn of the conversation log. A responder entry references the
// submitter entry it answers through RepliesTo; adjacency in the log is kept
// for display order only.
type Entry struct {
	ID            string            `json:"id"`
	Role          Role              `json:"role"`
	Content       string            `json:"content"`
	AttachmentRef string            `json:"attachment_ref,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
	RepliesTo     string            `json:"replies_to,omitempty"`
	Payload       StructuredPayload `json:"payload"`
}

// HasAttachment reports whether the entry carries an image reference.
func (e Entry) HasAttachment() bool {
	return e.AttachmentRef != ""
}

// Targets are the user's daily nutrition targets.
type Targets struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
}

// Profile holds the data the provider's system instruction is derived from.
// Changing any field invalidates the active provider session.
type Profile struct {
	Targets          Targets  `json:"targets"`
	HealthConditions []string `json:"health_conditions,omitempty"`
}

// Totals are the per-day sums over all responder entries.
type Totals struct {
	CaloriesIn     float64 `json:"calories_in"`
	ProteinG       float64 `json:"protein_g"`
	FatG           float64 `json:"fat_g"`
	CaloriesBurned float64 `json:"calories_burned"`
	MinutesActive  float64 `json:"minutes_active"`
}

// GoalsMet records target compliance for one day, evaluated with tolerance
// bands at aggregation time.
type GoalsMet struct {
	Calories bool `json:"calories"`
	Protein  bool `json:"protein"`
	Fat      bool `json:"fat"`
}

// DailySummary is the derived aggregate for one calendar date. It is always
// recomputed in full from the entry log for that date, never patched.
type DailySummary struct {
	Date            string   `json:"date"`
	Totals          Totals   `json:"totals"`
	TargetsSnapshot Targets  `json:"targets_snapshot"`
	EntriesLogged   int      `json:"entries_logged"`
	GoalsMet        GoalsMet `json:"goals_met"`
}

// DateOf formats a timestamp as the ISO calendar date used to key summaries.
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}
