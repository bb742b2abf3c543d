// Package aggregate derives per-day totals and target compliance from the
// conversation log.
package aggregate

import (
	"github.com/sukeshetty/fitness-tracker/internal/domain"
)

// Tolerance bands applied when evaluating daily targets.
const (
	calorieTolerance = 1.1
	proteinTolerance = 0.9
	fatTolerance     = 1.1
)

// Recompute builds the DailySummary for date from scratch. It is a pure
// function of its inputs: only responder entries whose timestamp falls on
// date contribute, entry order does not matter, and an empty log yields a
// zero-totals summary. Targets are snapshotted into the result.
func Recompute(entries []domain.Entry, targets domain.Targets, date string) domain.DailySummary {
	summary := domain.DailySummary{
		Date:            date,
		TargetsSnapshot: targets,
	}

	for _, e := range entries {
		if e.Role != domain.RoleResponder || domain.DateOf(e.Timestamp) != date {
			continue
		}
		switch e.Payload.Kind {
		case domain.PayloadNutrition:
			if len(e.Payload.Nutrition) > 0 {
				summary.EntriesLogged++
			}
			for _, r := range e.Payload.Nutrition {
				summary.Totals.CaloriesIn += r.Calories
				summary.Totals.ProteinG += r.ProteinG
				summary.Totals.FatG += r.FatG
			}
		case domain.PayloadActivity:
			for _, r := range e.Payload.Activity {
				summary.Totals.CaloriesBurned += r.CaloriesBurned
				summary.Totals.MinutesActive += r.DurationMin
			}
		}
	}

	summary.GoalsMet = domain.GoalsMet{
		Calories: summary.Totals.CaloriesIn-summary.Totals.CaloriesBurned <= targets.Calories*calorieTolerance,
		Protein:  summary.Totals.ProteinG >= targets.ProteinG*proteinTolerance,
		Fat:      summary.Totals.FatG <= targets.FatG*fatTolerance,
	}
	return summary
}
