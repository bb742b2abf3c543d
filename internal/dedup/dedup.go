// Package dedup flags probable re-submissions before a provider request is
// issued.
package dedup

import (
	"time"

	"github.com/sukeshetty/fitness-tracker/internal/domain"
	"github.com/sukeshetty/fitness-tracker/internal/similarity"
)

const (
	// DefaultWindow is how far back prior submissions are considered.
	DefaultWindow = 5 * time.Minute
	// DefaultThreshold is the similarity above which a submission is held
	// for explicit user confirmation.
	DefaultThreshold = 0.85
)

// Check scans recent submitter entries for a probable duplicate of candidate.
// Entries carrying an attachment are exempt on both sides: the image content
// disambiguates them. Returns the most recent entry scoring above threshold,
// or nil.
func Check(candidate string, hasAttachment bool, recent []domain.Entry, window time.Duration, threshold float64, now time.Time) *domain.Entry {
	if hasAttachment {
		return nil
	}

	var best *domain.Entry
	for i := range recent {
		e := &recent[i]
		if e.Role != domain.RoleSubmitter || e.HasAttachment() {
			continue
		}
		if now.Sub(e.Timestamp) > window || e.Timestamp.After(now) {
			continue
		}
		if similarity.Score(candidate, e.Content) <= threshold {
			continue
		}
		if best == nil || e.Timestamp.After(best.Timestamp) {
			best = e
		}
	}
	return best
}
