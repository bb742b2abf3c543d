// Package pipeline owns the conversation log and orchestrates submissions,
// retroactive edits and the derived daily summaries. All mutation goes
// through the operations here; consumers only ever see snapshot copies.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sukeshetty/fitness-tracker/internal/aggregate"
	"github.com/sukeshetty/fitness-tracker/internal/apperrors"
	"github.com/sukeshetty/fitness-tracker/internal/chat"
	"github.com/sukeshetty/fitness-tracker/internal/dedup"
	"github.com/sukeshetty/fitness-tracker/internal/domain"
	"github.com/sukeshetty/fitness-tracker/internal/logger"
	"github.com/sukeshetty/fitness-tracker/internal/parser"
	"github.com/sukeshetty/fitness-tracker/internal/provider"
	"github.com/sukeshetty/fitness-tracker/internal/store"
)

// ErrBusy is returned while a send or edit is in flight. Operations are
// strictly sequential per user.
var ErrBusy = errors.New("pipeline: an operation is already in flight")

// ErrEntryNotFound is returned for edit requests naming an unknown or
// non-submitter entry.
var ErrEntryNotFound = errors.New("pipeline: entry not found")

// DuplicateError reports a probable re-submission. The submission is held,
// not dispatched; the caller asks the user and retries with SubmitConfirmed.
type DuplicateError struct {
	Match domain.Entry
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("pipeline: probable duplicate of entry %s", e.Match.ID)
}

type state int

const (
	stateIdle state = iota
	stateSending
	stateEditing
)

// Options tunes a Pipeline. Zero values select the defaults.
type Options struct {
	DuplicateWindow    time.Duration
	DuplicateThreshold float64
	// Now overrides the clock in tests.
	Now func() time.Time
}

// SubmitResult holds the pair of entries a successful submission created.
type SubmitResult struct {
	Submitter domain.Entry
	Responder domain.Entry
}

// Pipeline is the aggregate root for one user's conversation.
type Pipeline struct {
	transport *chat.Transport
	store     store.Store
	providerN string

	dupWindow    time.Duration
	dupThreshold float64
	now          func() time.Time

	mu        sync.Mutex
	state     state
	entries   []domain.Entry
	profile   domain.Profile
	summaries map[string]domain.DailySummary
}

// New builds a pipeline on top of a completion provider and a store,
// restoring the persisted profile and summaries (cold load).
func New(ctx context.Context, p provider.Provider, st store.Store, opts Options) (*Pipeline, error) {
	pl := &Pipeline{
		store:        st,
		providerN:    p.Name(),
		dupWindow:    opts.DuplicateWindow,
		dupThreshold: opts.DuplicateThreshold,
		now:          opts.Now,
		summaries:    make(map[string]domain.DailySummary),
	}
	if pl.dupWindow == 0 {
		pl.dupWindow = dedup.DefaultWindow
	}
	if pl.dupThreshold == 0 {
		pl.dupThreshold = dedup.DefaultThreshold
	}
	if pl.now == nil {
		pl.now = time.Now
	}

	if err := pl.load(ctx); err != nil {
		return nil, err
	}

	pl.transport = chat.NewTransport(p, BuildSystemInstruction(pl.profile))
	return pl, nil
}

func (p *Pipeline) load(ctx context.Context) error {
	raw, ok, err := p.store.Get(ctx, store.KeyProfile)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &p.profile); err != nil {
			return fmt.Errorf("failed to decode profile: %w", err)
		}
	}

	raw, ok, err = p.store.Get(ctx, store.KeyDailySummaries)
	if err != nil {
		return fmt.Errorf("failed to load summaries: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &p.summaries); err != nil {
			return fmt.Errorf("failed to decode summaries: %w", err)
		}
	}
	return nil
}

// Entries returns a snapshot copy of the conversation log in display order.
func (p *Pipeline) Entries() []domain.Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Profile returns the current profile.
func (p *Pipeline) Profile() domain.Profile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile
}

// Summary returns the derived summary for an ISO date, if one exists.
func (p *Pipeline) Summary(date string) (domain.DailySummary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.summaries[date]
	return s, ok
}

// SetProfile replaces the profile, persists it and invalidates the provider
// session: its system instruction is derived from the profile, so the next
// send builds a fresh session. Past summaries keep their targets snapshot.
func (p *Pipeline) SetProfile(ctx context.Context, profile domain.Profile) error {
	p.mu.Lock()
	p.profile = profile
	raw, err := json.Marshal(profile)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	p.transport.SetInstruction(BuildSystemInstruction(profile))

	if err := p.store.Set(ctx, store.KeyProfile, string(raw)); err != nil {
		if errors.Is(err, store.ErrQuotaExceeded) {
			return apperrors.NewStorageQuotaError(err)
		}
		return fmt.Errorf("failed to persist profile: %w", err)
	}
	return nil
}

// Submit runs a new submission through the full flow: duplicate check,
// streamed provider request, structured parse, daily aggregation. onPartial
// (optional) receives the responder entry id and the cumulative text after
// each fragment. A probable duplicate is reported as *DuplicateError with no
// side effects. A provider failure removes the just-created entries entirely.
// A storage_quota error means the entries and in-memory summaries are intact
// but the summary write was rejected.
func (p *Pipeline) Submit(ctx context.Context, text, attachmentRef string, onPartial func(entryID, text string)) (*SubmitResult, error) {
	return p.submit(ctx, text, attachmentRef, onPartial, false)
}

// SubmitConfirmed bypasses the duplicate check after the user explicitly
// confirmed a flagged submission.
func (p *Pipeline) SubmitConfirmed(ctx context.Context, text, attachmentRef string, onPartial func(entryID, text string)) (*SubmitResult, error) {
	return p.submit(ctx, text, attachmentRef, onPartial, true)
}

func (p *Pipeline) submit(ctx context.Context, text, attachmentRef string, onPartial func(entryID, text string), confirmed bool) (*SubmitResult, error) {
	p.mu.Lock()
	if p.state != stateIdle {
		p.mu.Unlock()
		return nil, ErrBusy
	}

	if !confirmed {
		if match := dedup.Check(text, attachmentRef != "", p.entries, p.dupWindow, p.dupThreshold, p.now()); match != nil {
			matched := *match
			p.mu.Unlock()
			return nil, &DuplicateError{Match: matched}
		}
	}

	now := p.now()
	submitter := domain.Entry{
		ID:            uuid.NewString(),
		Role:          domain.RoleSubmitter,
		Content:       text,
		AttachmentRef: attachmentRef,
		Timestamp:     now,
		Payload:       domain.NonePayload(),
	}
	responder := domain.Entry{
		ID:        uuid.NewString(),
		Role:      domain.RoleResponder,
		Timestamp: now,
		RepliesTo: submitter.ID,
		Payload:   domain.NonePayload(),
	}
	p.entries = append(p.entries, submitter, responder)
	p.state = stateSending
	p.mu.Unlock()

	err := p.transport.Send(ctx, text,
		func(cumulative string) {
			p.updateResponderContent(responder.ID, cumulative)
			if onPartial != nil {
				onPartial(responder.ID, cumulative)
			}
		},
		func(final string) {
			p.finishResponder(responder.ID, final)
		},
	)

	if err != nil {
		// Full rollback: the failed attempt leaves no residue in the log.
		p.mu.Lock()
		p.removeEntries(submitter.ID, responder.ID)
		p.state = stateIdle
		p.mu.Unlock()
		logger.Error("Submission failed, entries rolled back", "error", err)
		return nil, apperrors.NewProviderError(err, p.providerN)
	}

	p.mu.Lock()
	p.state = stateIdle
	result := &SubmitResult{}
	if e, i := p.findLocked(submitter.ID); i >= 0 {
		result.Submitter = *e
	}
	var date string
	if e, i := p.findLocked(responder.ID); i >= 0 {
		result.Responder = *e
		date = domain.DateOf(e.Timestamp)
	}
	p.mu.Unlock()

	if err := p.recomputeAndPersist(ctx, date); err != nil {
		return result, err
	}
	return result, nil
}

// Edit retroactively changes a prior submitter entry and replays it against
// the provider. The paired responder entry is cleared and refilled in place,
// and the refreshed responder is returned. On provider failure the whole log
// is restored to its pre-edit snapshot.
func (p *Pipeline) Edit(ctx context.Context, entryID, newText string, onPartial func(entryID, text string)) (*domain.Entry, error) {
	p.mu.Lock()
	if p.state != stateIdle {
		p.mu.Unlock()
		return nil, ErrBusy
	}

	target, idx := p.findLocked(entryID)
	if idx < 0 || target.Role != domain.RoleSubmitter {
		p.mu.Unlock()
		return nil, ErrEntryNotFound
	}

	responder, ridx := p.findReplyLocked(entryID)
	if ridx < 0 {
		p.mu.Unlock()
		return nil, ErrEntryNotFound
	}

	// Rollback snapshot: a full copy of the log, restored verbatim on
	// failure.
	snapshot := make([]domain.Entry, len(p.entries))
	copy(snapshot, p.entries)
	oldDate := domain.DateOf(responder.Timestamp)

	now := p.now()
	target.Content = newText
	target.Timestamp = now
	responder.Content = ""
	responder.Payload = domain.NonePayload()
	responderID := responder.ID

	p.state = stateEditing
	p.mu.Unlock()

	err := p.transport.Send(ctx, newText,
		func(cumulative string) {
			p.updateResponderContent(responderID, cumulative)
			if onPartial != nil {
				onPartial(responderID, cumulative)
			}
		},
		func(final string) {
			p.finishResponder(responderID, final)
			p.touchEntry(responderID, p.now())
		},
	)

	if err != nil {
		p.mu.Lock()
		p.entries = snapshot
		p.state = stateIdle
		p.mu.Unlock()
		logger.Error("Edit failed, log restored from snapshot", "entry_id", entryID, "error", err)
		return nil, apperrors.NewProviderError(err, p.providerN)
	}

	p.mu.Lock()
	p.state = stateIdle
	var newDate string
	var refreshed *domain.Entry
	if e, i := p.findLocked(responderID); i >= 0 {
		newDate = domain.DateOf(e.Timestamp)
		cp := *e
		refreshed = &cp
	}
	p.mu.Unlock()

	// The edit may have moved the pair across days; both affected dates are
	// recomputed from scratch.
	if oldDate != "" && oldDate != newDate {
		if err := p.recomputeAndPersist(ctx, oldDate); err != nil {
			return refreshed, err
		}
	}
	return refreshed, p.recomputeAndPersist(ctx, newDate)
}

// RecomputeDate rebuilds and persists the summary for one date from the
// current log. Used on cold load and after target changes.
func (p *Pipeline) RecomputeDate(ctx context.Context, date string) error {
	return p.recomputeAndPersist(ctx, date)
}

func (p *Pipeline) recomputeAndPersist(ctx context.Context, date string) error {
	if date == "" {
		return nil
	}

	p.mu.Lock()
	summary := aggregate.Recompute(p.entries, p.profile.Targets, date)
	p.summaries[date] = summary
	raw, err := json.Marshal(p.summaries)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to encode summaries: %w", err)
	}

	if err := p.store.Set(ctx, store.KeyDailySummaries, string(raw)); err != nil {
		if errors.Is(err, store.ErrQuotaExceeded) {
			return apperrors.NewStorageQuotaError(err)
		}
		return fmt.Errorf("failed to persist summaries: %w", err)
	}
	return nil
}

func (p *Pipeline) updateResponderContent(id, content string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, i := p.findLocked(id); i >= 0 {
		e.Content = content
	}
}

// finishResponder parses the final text into the structured payload and the
// prose remainder. Parse failures are recovered locally inside Parse.
func (p *Pipeline) finishResponder(id, final string) {
	res := parser.Parse(final)
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, i := p.findLocked(id); i >= 0 {
		e.Content = res.Remainder
		e.Payload = res.Payload
	}
}

func (p *Pipeline) touchEntry(id string, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, i := p.findLocked(id); i >= 0 {
		e.Timestamp = at
	}
}

func (p *Pipeline) findLocked(id string) (*domain.Entry, int) {
	for i := range p.entries {
		if p.entries[i].ID == id {
			return &p.entries[i], i
		}
	}
	return nil, -1
}

func (p *Pipeline) findReplyLocked(submitterID string) (*domain.Entry, int) {
	for i := range p.entries {
		if p.entries[i].RepliesTo == submitterID {
			return &p.entries[i], i
		}
	}
	return nil, -1
}

func (p *Pipeline) removeEntries(ids ...string) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := p.entries[:0]
	for _, e := range p.entries {
		if !drop[e.ID] {
			kept = append(kept, e)
		}
	}
	p.entries = kept
}
