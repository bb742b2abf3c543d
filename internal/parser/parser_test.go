package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukeshetty/fitness-tracker/internal/domain"
)

const nutritionResponse = "Here's the breakdown of your meal:\n\n" +
	"```json\n" +
	`[{"name": "Scrambled eggs", "calories": 180, "protein_g": 12, "fat_g": 14, "note": "2 large eggs", "healthy": true},` + "\n" +
	` {"name": "Toast", "calories": "150", "protein_g": "n/a", "fat_g": 2, "note": "white bread"}]` + "\n" +
	"```\n\n" +
	"A solid breakfast, around 330 kcal in total."

func TestParseNutritionBlock(t *testing.T) {
	res := Parse(nutritionResponse)

	require.Equal(t, domain.PayloadNutrition, res.Payload.Kind)
	require.Len(t, res.Payload.Nutrition, 2)

	eggs := res.Payload.Nutrition[0]
	assert.Equal(t, "Scrambled eggs", eggs.Name)
	assert.Equal(t, 180.0, eggs.Calories)
	assert.Equal(t, 12.0, eggs.ProteinG)
	assert.True(t, eggs.Healthy)

	// Numeric coercion: "150" becomes 150, "n/a" becomes 0.
	toast := res.Payload.Nutrition[1]
	assert.Equal(t, 150.0, toast.Calories)
	assert.Equal(t, 0.0, toast.ProteinG)

	assert.Contains(t, res.Remainder, "Here's the breakdown")
	assert.Contains(t, res.Remainder, "solid breakfast")
	assert.NotContains(t, res.Remainder, "```")
}

func TestParseActivityBlock(t *testing.T) {
	text := "Nice work!\n```json\n" +
		`[{"activity": "Morning run", "duration_min": 30, "calories_burned": 320, "emoji": "🏃"},` +
		` {"activity": "Stretching", "duration_min": 10, "calories_burned": 40}]` +
		"\n```\nKeep it up."

	res := Parse(text)
	require.Equal(t, domain.PayloadActivity, res.Payload.Kind)
	require.Len(t, res.Payload.Activity, 2)
	assert.Equal(t, "Morning run", res.Payload.Activity[0].Name)
	assert.Equal(t, 320.0, res.Payload.Activity[0].CaloriesBurned)
	// Missing emoji gets the default icon.
	assert.Equal(t, DefaultActivityEmoji, res.Payload.Activity[1].Emoji)
}

func TestParseNutritionWinsOverActivity(t *testing.T) {
	// A record carrying both shapes classifies as nutrition.
	text := "```json\n" +
		`[{"name": "Protein bar", "calories": 200, "calories_burned": 0}]` +
		"\n```"

	res := Parse(text)
	assert.Equal(t, domain.PayloadNutrition, res.Payload.Kind)
}

func TestParseNoBlock(t *testing.T) {
	text := "I couldn't identify any food in that message. Could you describe it?"
	res := Parse(text)
	assert.Equal(t, domain.PayloadNone, res.Payload.Kind)
	assert.Equal(t, text, res.Remainder)
}

func TestParseMalformedBlockKeepsProse(t *testing.T) {
	text := "Here you go:\n```json\n{not valid json at all\n```\nDone."
	res := Parse(text)
	assert.Equal(t, domain.PayloadNone, res.Payload.Kind)
	assert.Equal(t, text, res.Remainder)
}

func TestParseUnrecognizedShapeKeepsProse(t *testing.T) {
	text := "```json\n[{\"foo\": 1}]\n```\nSome prose."
	res := Parse(text)
	assert.Equal(t, domain.PayloadNone, res.Payload.Kind)
	assert.Equal(t, text, res.Remainder)
}

func TestParseIdempotent(t *testing.T) {
	first := Parse(nutritionResponse)
	second := Parse(first.Remainder)
	assert.Equal(t, domain.PayloadNone, second.Payload.Kind)
	assert.Equal(t, first.Remainder, second.Remainder)

	// Re-parsing identical input yields identical output.
	again := Parse(nutritionResponse)
	assert.Equal(t, first, again)
}

func TestParseUnterminatedFence(t *testing.T) {
	text := "Totals below.\n```json\n[{\"name\": \"Rice\", \"calories\": 210}]"
	res := Parse(text)
	require.Equal(t, domain.PayloadNutrition, res.Payload.Kind)
	assert.Equal(t, "Totals below.", res.Remainder)
}
