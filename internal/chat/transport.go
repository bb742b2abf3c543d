// Package chat manages the single logical conversation with the completion
// provider.
package chat

import (
	"context"
	"errors"
	"hash/fnv"
	"io"
	"strings"
	"sync"

	"github.com/sukeshetty/fitness-tracker/internal/logger"
	"github.com/sukeshetty/fitness-tracker/internal/provider"
)

// ErrBusy is returned when a send is attempted while another is in flight.
// Callers serialize sends; there is no queueing at this layer.
var ErrBusy = errors.New("chat: a send is already in flight")

// Transport owns at most one live provider session. The session is derived
// state keyed by a hash of the system instruction: changing the instruction
// invalidates it lazily, and the session is rebuilt on the next send rather
// than eagerly.
type Transport struct {
	provider provider.Provider

	mu          sync.Mutex
	inFlight    bool
	instruction string
	session     provider.Session
	sessionKey  uint64
}

func NewTransport(p provider.Provider, systemInstruction string) *Transport {
	return &Transport{provider: p, instruction: systemInstruction}
}

// SetInstruction replaces the system instruction. The active session is not
// torn down here; the next Send builds a fresh one if the instruction hash
// changed.
func (t *Transport) SetInstruction(systemInstruction string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.instruction = systemInstruction
}

// Send streams one request. onPartial receives the cumulative text after each
// fragment, never a delta, so the caller can always render from scratch.
// onDone receives the final cumulative text on normal exhaustion. Exactly one
// send may be in flight; a second concurrent call fails with ErrBusy. There
// is no retry here: retrying a partially streamed conversation risks
// duplicate provider-side history, so retry policy belongs to the caller.
func (t *Transport) Send(ctx context.Context, message string, onPartial, onDone func(text string)) error {
	t.mu.Lock()
	if t.inFlight {
		t.mu.Unlock()
		return ErrBusy
	}
	t.inFlight = true
	session := t.ensureSessionLocked()
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.inFlight = false
		t.mu.Unlock()
	}()

	stream, err := session.SendStream(ctx, message)
	if err != nil {
		t.invalidate()
		return err
	}

	var total strings.Builder
	for {
		fragment, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A failed stream leaves the provider-side history in an
			// unknown state; drop the session.
			t.invalidate()
			return err
		}
		if fragment == "" {
			continue
		}
		total.WriteString(fragment)
		if onPartial != nil {
			onPartial(total.String())
		}
	}

	if onDone != nil {
		onDone(total.String())
	}
	return nil
}

func (t *Transport) ensureSessionLocked() provider.Session {
	key := instructionKey(t.instruction)
	if t.session == nil || t.sessionKey != key {
		logger.Debug("Creating provider session", "provider", t.provider.Name(), "instruction_key", key)
		t.session = t.provider.NewSession(t.instruction)
		t.sessionKey = key
	}
	return t.session
}

func (t *Transport) invalidate() {
	t.mu.Lock()
	t.session = nil
	t.mu.Unlock()
}

func instructionKey(instruction string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(instruction))
	return h.Sum64()
}
