package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukeshetty/fitness-tracker/internal/provider"
)

func TestSendAccumulatesCumulativeText(t *testing.T) {
	p := provider.NewScriptedProvider(provider.ScriptedTurn{
		Fragments: []string{"Looks ", "like ", "breakfast."},
	})
	tr := NewTransport(p, "instruction")

	var partials []string
	var done string
	err := tr.Send(context.Background(), "2 eggs and toast",
		func(text string) { partials = append(partials, text) },
		func(text string) { done = text },
	)
	require.NoError(t, err)

	// Each partial carries the full cumulative text, not a delta.
	assert.Equal(t, []string{"Looks ", "Looks like ", "Looks like breakfast."}, partials)
	assert.Equal(t, "Looks like breakfast.", done)
}

func TestSendSurfacesStreamError(t *testing.T) {
	boom := errors.New("connection reset")
	p := provider.NewScriptedProvider(provider.ScriptedTurn{
		Fragments: []string{"partial "},
		Err:       boom,
	})
	tr := NewTransport(p, "instruction")

	var doneCalled bool
	err := tr.Send(context.Background(), "hello", nil, func(string) { doneCalled = true })
	require.ErrorIs(t, err, boom)
	assert.False(t, doneCalled, "onDone must not fire on a failed stream")
}

func TestSendRejectsConcurrentSends(t *testing.T) {
	p := newBlockingProvider()
	tr := NewTransport(p, "instruction")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = tr.Send(context.Background(), "first", nil, nil)
	}()

	<-p.started
	err := tr.Send(context.Background(), "second", nil, nil)
	assert.ErrorIs(t, err, ErrBusy)

	close(p.release)
	wg.Wait()
}

func TestSendAvailableAfterCompletion(t *testing.T) {
	p := provider.NewScriptedProvider(
		provider.ScriptedTurn{Fragments: []string{"one"}},
		provider.ScriptedTurn{Fragments: []string{"two"}},
	)
	tr := NewTransport(p, "instruction")

	require.NoError(t, tr.Send(context.Background(), "a", nil, nil))
	require.NoError(t, tr.Send(context.Background(), "b", nil, nil))
	assert.Equal(t, 2, p.Calls())
}

func TestInstructionChangeRebuildsSession(t *testing.T) {
	p := &countingProvider{inner: provider.NewScriptedProvider(
		provider.ScriptedTurn{Fragments: []string{"one"}},
		provider.ScriptedTurn{Fragments: []string{"two"}},
		provider.ScriptedTurn{Fragments: []string{"three"}},
	)}
	tr := NewTransport(p, "profile A")

	require.NoError(t, tr.Send(context.Background(), "a", nil, nil))
	require.NoError(t, tr.Send(context.Background(), "b", nil, nil))
	assert.Equal(t, 1, p.sessions, "same instruction reuses the session")

	tr.SetInstruction("profile B")
	require.NoError(t, tr.Send(context.Background(), "c", nil, nil))
	assert.Equal(t, 2, p.sessions, "changed instruction forces a fresh session")
}

type countingProvider struct {
	inner    provider.Provider
	sessions int
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) NewSession(instruction string) provider.Session {
	p.sessions++
	return p.inner.NewSession(instruction)
}

func (p *countingProvider) DescribeImage(ctx context.Context, data []byte, mime string) (string, error) {
	return p.inner.DescribeImage(ctx, data, mime)
}

// blockingProvider parks its stream until released, to hold a send in flight
// during the test.
type blockingProvider struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingProvider() *blockingProvider {
	return &blockingProvider{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (p *blockingProvider) Name() string { return "blocking" }

func (p *blockingProvider) NewSession(instruction string) provider.Session { return p }

func (p *blockingProvider) DescribeImage(ctx context.Context, data []byte, mime string) (string, error) {
	return "", nil
}

func (p *blockingProvider) SendStream(ctx context.Context, message string) (provider.Stream, error) {
	return p, nil
}

func (p *blockingProvider) Recv() (string, error) {
	select {
	case p.started <- struct{}{}:
	default:
	}
	<-p.release
	return "", errors.New("drained")
}
