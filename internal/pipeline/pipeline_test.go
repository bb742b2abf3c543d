package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukeshetty/fitness-tracker/internal/apperrors"
	"github.com/sukeshetty/fitness-tracker/internal/domain"
	"github.com/sukeshetty/fitness-tracker/internal/provider"
	"github.com/sukeshetty/fitness-tracker/internal/store"
)

const breakfastReply = "Nice breakfast!\n```json\n" +
	`[{"name": "Eggs", "calories": 180, "protein_g": 12, "fat_g": 14},` +
	` {"name": "Toast", "calories": 150, "protein_g": 5, "fat_g": 2}]` +
	"\n```\nAround 330 kcal in total."

func newTestPipeline(t *testing.T, p *provider.ScriptedProvider) (*Pipeline, *store.MemoryStore, *time.Time) {
	t.Helper()
	st := store.NewMemoryStore()
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	clock := &now

	pl, err := New(context.Background(), p, st, Options{Now: func() time.Time { return *clock }})
	require.NoError(t, err)
	require.NoError(t, pl.SetProfile(context.Background(), domain.Profile{
		Targets: domain.Targets{Calories: 2000, ProteinG: 120, FatG: 70},
	}))
	return pl, st, clock
}

func TestSubmitEndToEnd(t *testing.T) {
	p := provider.NewScriptedProvider(provider.ScriptedTurn{Fragments: []string{breakfastReply}})
	pl, _, _ := newTestPipeline(t, p)

	res, err := pl.Submit(context.Background(), "2 eggs and toast", "", nil)
	require.NoError(t, err)

	entries := pl.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, domain.RoleSubmitter, entries[0].Role)
	assert.Equal(t, domain.RoleResponder, entries[1].Role)
	assert.Equal(t, entries[0].ID, entries[1].RepliesTo)

	require.Equal(t, domain.PayloadNutrition, res.Responder.Payload.Kind)
	assert.GreaterOrEqual(t, len(res.Responder.Payload.Nutrition), 1)
	assert.NotEmpty(t, res.Responder.Content)
	assert.NotContains(t, res.Responder.Content, "```")

	summary, ok := pl.Summary("2026-08-30")
	require.True(t, ok)
	assert.Equal(t, 1, summary.EntriesLogged)
	assert.Equal(t, 330.0, summary.Totals.CaloriesIn)
}

func TestSubmitStreamsCumulativePartials(t *testing.T) {
	p := provider.NewScriptedProvider(provider.ScriptedTurn{
		Fragments: []string{"Nice ", "breakfast!"},
	})
	pl, _, _ := newTestPipeline(t, p)

	var partials []string
	_, err := pl.Submit(context.Background(), "2 eggs", "", func(id, text string) {
		partials = append(partials, text)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Nice ", "Nice breakfast!"}, partials)
}

func TestSubmitProviderFailureRollsBack(t *testing.T) {
	p := provider.NewScriptedProvider(provider.ScriptedTurn{
		Fragments: []string{"partial text "},
		Err:       errors.New("stream reset"),
	})
	pl, _, _ := newTestPipeline(t, p)

	_, err := pl.Submit(context.Background(), "2 eggs and toast", "", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeProvider, apperrors.TypeOf(err))

	// No residue: the failed attempt's entries are gone entirely.
	assert.Empty(t, pl.Entries())
	_, ok := pl.Summary("2026-08-30")
	assert.False(t, ok)
}

func TestSubmitDuplicateHeldForConfirmation(t *testing.T) {
	p := provider.NewScriptedProvider(
		provider.ScriptedTurn{Fragments: []string{breakfastReply}},
		provider.ScriptedTurn{Fragments: []string{breakfastReply}},
	)
	pl, _, clock := newTestPipeline(t, p)

	_, err := pl.Submit(context.Background(), "2 eggs and toast", "", nil)
	require.NoError(t, err)

	*clock = clock.Add(2 * time.Minute)
	_, err = pl.Submit(context.Background(), "2 eggs and toast", "", nil)
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "2 eggs and toast", dup.Match.Content)
	// Held, not dispatched: no new entries, no provider call.
	assert.Len(t, pl.Entries(), 2)
	assert.Equal(t, 1, p.Calls())

	// Explicit confirmation sends it through.
	_, err = pl.SubmitConfirmed(context.Background(), "2 eggs and toast", "", nil)
	require.NoError(t, err)
	assert.Len(t, pl.Entries(), 4)

	summary, _ := pl.Summary("2026-08-30")
	assert.Equal(t, 2, summary.EntriesLogged)
	assert.Equal(t, 660.0, summary.Totals.CaloriesIn)
}

func TestSubmitOutsideWindowNotDuplicate(t *testing.T) {
	p := provider.NewScriptedProvider(
		provider.ScriptedTurn{Fragments: []string{breakfastReply}},
		provider.ScriptedTurn{Fragments: []string{breakfastReply}},
	)
	pl, _, clock := newTestPipeline(t, p)

	_, err := pl.Submit(context.Background(), "2 eggs and toast", "", nil)
	require.NoError(t, err)

	*clock = clock.Add(10 * time.Minute)
	_, err = pl.Submit(context.Background(), "2 eggs and toast", "", nil)
	require.NoError(t, err)
	assert.Len(t, pl.Entries(), 4)
}

func TestEditReplacesPairInPlace(t *testing.T) {
	secondReply := "Updated!\n```json\n" +
		`[{"name": "Eggs", "calories": 270, "protein_g": 18, "fat_g": 21}]` +
		"\n```\nThree eggs it is."
	p := provider.NewScriptedProvider(
		provider.ScriptedTurn{Fragments: []string{breakfastReply}},
		provider.ScriptedTurn{Fragments: []string{secondReply}},
	)
	pl, _, clock := newTestPipeline(t, p)

	res, err := pl.Submit(context.Background(), "2 eggs and toast", "", nil)
	require.NoError(t, err)

	*clock = clock.Add(30 * time.Minute)
	responder, err := pl.Edit(context.Background(), res.Submitter.ID, "3 eggs, no toast", nil)
	require.NoError(t, err)
	require.NotNil(t, responder)
	assert.Equal(t, "Three eggs it is.", responder.Content[len(responder.Content)-len("Three eggs it is."):])

	entries := pl.Entries()
	require.Len(t, entries, 2, "the pair is edited in place, not re-appended")
	assert.Equal(t, "3 eggs, no toast", entries[0].Content)
	assert.Equal(t, *clock, entries[0].Timestamp)
	assert.Equal(t, "Three eggs it is.", entries[1].Content[len(entries[1].Content)-len("Three eggs it is."):])
	require.Equal(t, domain.PayloadNutrition, entries[1].Payload.Kind)
	assert.Equal(t, 270.0, entries[1].Payload.Nutrition[0].Calories)

	summary, _ := pl.Summary("2026-08-30")
	assert.Equal(t, 270.0, summary.Totals.CaloriesIn)
	assert.Equal(t, 1, summary.EntriesLogged)
}

func TestEditFailureRestoresSnapshotExactly(t *testing.T) {
	p := provider.NewScriptedProvider(
		provider.ScriptedTurn{Fragments: []string{breakfastReply}},
		provider.ScriptedTurn{
			Fragments: []string{"half a reply that will be disc"},
			Err:       errors.New("timeout"),
		},
	)
	pl, _, clock := newTestPipeline(t, p)

	res, err := pl.Submit(context.Background(), "2 eggs and toast", "", nil)
	require.NoError(t, err)
	before := pl.Entries()

	*clock = clock.Add(15 * time.Minute)
	_, err = pl.Edit(context.Background(), res.Submitter.ID, "3 eggs, no toast", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeProvider, apperrors.TypeOf(err))

	// The log matches the pre-edit snapshot exactly: original content,
	// original timestamps, original payload, no partial residue.
	assert.Equal(t, before, pl.Entries())
	assert.Equal(t, "2 eggs and toast", pl.Entries()[0].Content)
}

func TestEditUnknownEntry(t *testing.T) {
	p := provider.NewScriptedProvider()
	pl, _, _ := newTestPipeline(t, p)

	_, err := pl.Edit(context.Background(), "no-such-id", "text", nil)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestSummariesPersistAcrossColdLoad(t *testing.T) {
	p := provider.NewScriptedProvider(provider.ScriptedTurn{Fragments: []string{breakfastReply}})
	pl, st, _ := newTestPipeline(t, p)

	_, err := pl.Submit(context.Background(), "2 eggs and toast", "", nil)
	require.NoError(t, err)

	// A fresh pipeline over the same store restores profile and summaries.
	reloaded, err := New(context.Background(), p, st, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2000.0, reloaded.Profile().Targets.Calories)

	summary, ok := reloaded.Summary("2026-08-30")
	require.True(t, ok)
	assert.Equal(t, 330.0, summary.Totals.CaloriesIn)

	raw, ok, err := st.Get(context.Background(), store.KeyDailySummaries)
	require.NoError(t, err)
	require.True(t, ok)
	var decoded map[string]domain.DailySummary
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Contains(t, decoded, "2026-08-30")
}

func TestSubmitQuotaErrorKeepsEntries(t *testing.T) {
	p := provider.NewScriptedProvider(provider.ScriptedTurn{Fragments: []string{breakfastReply}})
	st := store.NewMemoryStore()
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	pl, err := New(context.Background(), p, st, Options{Now: func() time.Time { return now }})
	require.NoError(t, err)

	// Leave just enough room for nothing: every summary write is rejected.
	st.MaxBytes = 1

	_, err = pl.Submit(context.Background(), "2 eggs and toast", "", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeStorageQuota, apperrors.TypeOf(err))

	// The conversation itself is intact; only persistence failed.
	assert.Len(t, pl.Entries(), 2)
	summary, ok := pl.Summary("2026-08-30")
	assert.True(t, ok)
	assert.Equal(t, 330.0, summary.Totals.CaloriesIn)
}

func TestProfileChangeDoesNotRewritePastSummaries(t *testing.T) {
	p := provider.NewScriptedProvider(provider.ScriptedTurn{Fragments: []string{breakfastReply}})
	pl, _, _ := newTestPipeline(t, p)

	_, err := pl.Submit(context.Background(), "2 eggs and toast", "", nil)
	require.NoError(t, err)

	require.NoError(t, pl.SetProfile(context.Background(), domain.Profile{
		Targets: domain.Targets{Calories: 1500, ProteinG: 100, FatG: 50},
	}))

	// The stored summary keeps the targets that were live at aggregation
	// time.
	summary, _ := pl.Summary("2026-08-30")
	assert.Equal(t, 2000.0, summary.TargetsSnapshot.Calories)
}
