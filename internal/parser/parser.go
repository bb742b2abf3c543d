// Package parser splits a completed responder turn into its structured-data
// block and the surrounding prose.
package parser

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/sukeshetty/fitness-tracker/internal/domain"
	"github.com/sukeshetty/fitness-tracker/internal/logger"
)

const (
	fenceOpen  = "```json"
	fenceClose = "```"

	// DefaultActivityEmoji is used when the provider omits an icon.
	DefaultActivityEmoji = "🏃"
)

// Result is the outcome of parsing one responder turn.
type Result struct {
	Payload   domain.StructuredPayload
	Remainder string
}

// Parse extracts the first fenced JSON block from text, decodes it into typed
// records and returns the prose remainder. A missing, malformed or
// unrecognized block is not an error: the payload is none and the remainder
// is the full original text, so the user always sees the provider's prose.
// Parse is pure and idempotent.
func Parse(text string) Result {
	block, remainder, found := extractBlock(text)
	if !found {
		return Result{Payload: domain.NonePayload(), Remainder: text}
	}

	parsed := gjson.Parse(strings.TrimSpace(block))
	if !parsed.IsArray() {
		logger.Warn("Structured block is not a JSON array, keeping prose only",
			"block_len", len(block))
		return Result{Payload: domain.NonePayload(), Remainder: text}
	}

	records := parsed.Array()
	if len(records) == 0 {
		logger.Warn("Structured block decoded to an empty array, keeping prose only")
		return Result{Payload: domain.NonePayload(), Remainder: text}
	}

	// Classification looks at the first element only. Nutrition wins when
	// both shapes would match.
	first := records[0]
	switch {
	case isNutritionShaped(first):
		return Result{
			Payload: domain.StructuredPayload{
				Kind:      domain.PayloadNutrition,
				Nutrition: decodeNutrition(records),
			},
			Remainder: remainder,
		}
	case isActivityShaped(first):
		return Result{
			Payload: domain.StructuredPayload{
				Kind:     domain.PayloadActivity,
				Activity: decodeActivity(records),
			},
			Remainder: remainder,
		}
	default:
		logger.Warn("Structured block has unrecognized record shape, keeping prose only")
		return Result{Payload: domain.NonePayload(), Remainder: text}
	}
}

// extractBlock locates the first fenced JSON block. The block runs to the
// closing fence, or to the end of the text when the provider truncated it.
func extractBlock(text string) (block, remainder string, found bool) {
	start := strings.Index(text, fenceOpen)
	if start == -1 {
		return "", "", false
	}

	bodyStart := start + len(fenceOpen)
	rest := text[bodyStart:]

	end := strings.Index(rest, fenceClose)
	if end == -1 {
		block = rest
		remainder = strings.TrimSpace(text[:start])
		return block, remainder, true
	}

	block = rest[:end]
	after := rest[end+len(fenceClose):]
	remainder = strings.TrimSpace(strings.TrimSpace(text[:start]) + "\n" + strings.TrimSpace(after))
	return block, remainder, true
}

func isNutritionShaped(el gjson.Result) bool {
	return hasAny(el, "name", "food", "ingredient", "item") &&
		hasAny(el, "calories", "kcal")
}

func isActivityShaped(el gjson.Result) bool {
	return hasAny(el, "activity", "name", "exercise") &&
		hasAny(el, "calories_burned", "caloriesBurned", "burned")
}

func hasAny(el gjson.Result, keys ...string) bool {
	for _, k := range keys {
		if el.Get(k).Exists() {
			return true
		}
	}
	return false
}

func decodeNutrition(records []gjson.Result) []domain.NutritionRecord {
	out := make([]domain.NutritionRecord, 0, len(records))
	for _, el := range records {
		out = append(out, domain.NutritionRecord{
			Name:     firstString(el, "name", "food", "ingredient", "item"),
			Calories: firstNumber(el, "calories", "kcal"),
			ProteinG: firstNumber(el, "protein_g", "protein", "proteinGrams"),
			FatG:     firstNumber(el, "fat_g", "fat", "fatGrams"),
			Note:     firstString(el, "note", "description"),
			Healthy:  el.Get("healthy").Bool() || el.Get("is_healthy").Bool(),
		})
	}
	return out
}

func decodeActivity(records []gjson.Result) []domain.ActivityRecord {
	out := make([]domain.ActivityRecord, 0, len(records))
	for _, el := range records {
		rec := domain.ActivityRecord{
			Name:           firstString(el, "activity", "name", "exercise"),
			DurationMin:    firstNumber(el, "duration_min", "duration_minutes", "durationMinutes", "duration"),
			CaloriesBurned: firstNumber(el, "calories_burned", "caloriesBurned", "burned"),
			Note:           firstString(el, "note", "description"),
			Emoji:          firstString(el, "emoji", "icon"),
		}
		if rec.Emoji == "" {
			rec.Emoji = DefaultActivityEmoji
		}
		out = append(out, rec)
	}
	return out
}

func firstString(el gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := el.Get(k); v.Exists() {
			return v.String()
		}
	}
	return ""
}

// firstNumber coerces the first present key to a number. String literals like
// "150" parse to 150; values with no leading number ("n/a") fall back to 0.
func firstNumber(el gjson.Result, keys ...string) float64 {
	for _, k := range keys {
		if v := el.Get(k); v.Exists() {
			return v.Float()
		}
	}
	return 0
}
