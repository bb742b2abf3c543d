package pipeline

import (
	"fmt"
	"strings"

	"github.com/sukeshetty/fitness-tracker/internal/domain"
)

// BuildSystemInstruction derives the provider's system instruction from the
// profile. The provider session is conditioned on this string, so any profile
// change must regenerate it.
func BuildSystemInstruction(profile domain.Profile) string {
	var b strings.Builder

	b.WriteString(`You are a nutrition and fitness logging assistant. The user describes meals
they ate or physical activity they did, in free text. For every message you
reply with a short friendly comment AND a structured breakdown.

REQUIREMENTS:
- Estimate nutrition values from standard nutritional databases
- Consider portion sizes mentioned by the user
- Keep the prose brief, two or three sentences
- Always include exactly one fenced JSON block

For meals, the JSON block must be an array of objects with these exact fields:
  [{"name": "...", "calories": 0, "protein_g": 0, "fat_g": 0, "note": "...", "healthy": true}]

For physical activity, use these exact fields instead:
  [{"activity": "...", "duration_min": 0, "calories_burned": 0, "note": "...", "emoji": "..."}]

Format the block as:
` + "```json\n[...]\n```\n")

	t := profile.Targets
	fmt.Fprintf(&b, `
USER DAILY TARGETS:
- Calories: %.0f kcal
- Protein: %.0f g
- Fat: %.0f g
Relate your comment to these targets when it helps.
`, t.Calories, t.ProteinG, t.FatG)

	if len(profile.HealthConditions) > 0 {
		fmt.Fprintf(&b, `
HEALTH CONDITIONS TO ACCOUNT FOR: %s
Flag foods that conflict with these conditions in the note field.
`, strings.Join(profile.HealthConditions, ", "))
	}

	return b.String()
}
