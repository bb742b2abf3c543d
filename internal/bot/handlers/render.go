package handlers

import (
	"fmt"
	"strings"

	"github.com/sukeshetty/fitness-tracker/internal/domain"
)

func renderResponder(entry domain.Entry) string {
	var b strings.Builder
	if entry.Content != "" {
		b.WriteString(entry.Content)
	}

	switch entry.Payload.Kind {
	case domain.PayloadNutrition:
		b.WriteString("\n")
		for _, r := range entry.Payload.Nutrition {
			flag := ""
			if r.Healthy {
				flag = " 💚"
			}
			fmt.Fprintf(&b, "\n🍽 %s — %.0f kcal, %.0fg protein, %.0fg fat%s", r.Name, r.Calories, r.ProteinG, r.FatG, flag)
			if r.Note != "" {
				fmt.Fprintf(&b, "\n   _%s_", r.Note)
			}
		}
	case domain.PayloadActivity:
		b.WriteString("\n")
		for _, r := range entry.Payload.Activity {
			fmt.Fprintf(&b, "\n%s %s — %.0f min, %.0f kcal burned", r.Emoji, r.Name, r.DurationMin, r.CaloriesBurned)
			if r.Note != "" {
				fmt.Fprintf(&b, "\n   _%s_", r.Note)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func renderSummary(s domain.DailySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *%s*\n\n", s.Date)
	fmt.Fprintf(&b, "🍽 In: %.0f kcal (%.0fg protein, %.0fg fat)\n", s.Totals.CaloriesIn, s.Totals.ProteinG, s.Totals.FatG)
	fmt.Fprintf(&b, "🔥 Burned: %.0f kcal over %.0f active minutes\n", s.Totals.CaloriesBurned, s.Totals.MinutesActive)
	fmt.Fprintf(&b, "📝 Meals logged: %d\n\n", s.EntriesLogged)

	fmt.Fprintf(&b, "Targets (%.0f kcal / %.0fg protein / %.0fg fat):\n", s.TargetsSnapshot.Calories, s.TargetsSnapshot.ProteinG, s.TargetsSnapshot.FatG)
	fmt.Fprintf(&b, "%s calories  %s protein  %s fat", goalMark(s.GoalsMet.Calories), goalMark(s.GoalsMet.Protein), goalMark(s.GoalsMet.Fat))
	return b.String()
}

func goalMark(met bool) string {
	if met {
		return "✅"
	}
	return "⚠️"
}
