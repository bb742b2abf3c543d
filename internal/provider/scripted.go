package provider

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// ScriptedTurn is one canned response for a ScriptedProvider.
type ScriptedTurn struct {
	// Fragments are yielded in order before the stream ends.
	Fragments []string
	// Err, when set, terminates the stream after Fragments instead of a
	// normal end.
	Err error
	// SendErr, when set, fails the send before any fragment is produced.
	SendErr error
}

// ScriptedProvider replays canned responses in order. It backs tests and
// offline development runs.
type ScriptedProvider struct {
	// Description is returned by DescribeImage.
	Description string

	mu    sync.Mutex
	turns []ScriptedTurn
	calls int
}

func NewScriptedProvider(turns ...ScriptedTurn) *ScriptedProvider {
	return &ScriptedProvider{turns: turns}
}

// Enqueue appends further turns to the script.
func (p *ScriptedProvider) Enqueue(turns ...ScriptedTurn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.turns = append(p.turns, turns...)
}

// Calls reports how many sends the provider has served.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *ScriptedProvider) Name() string {
	return "scripted"
}

func (p *ScriptedProvider) NewSession(systemInstruction string) Session {
	return &scriptedSession{provider: p}
}

func (p *ScriptedProvider) DescribeImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	if p.Description == "" {
		return "an unidentified plate of food", nil
	}
	return p.Description, nil
}

func (p *ScriptedProvider) next() (ScriptedTurn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.turns) == 0 {
		return ScriptedTurn{}, fmt.Errorf("scripted provider: no turns left (served %d)", p.calls)
	}
	turn := p.turns[0]
	p.turns = p.turns[1:]
	p.calls++
	return turn, nil
}

type scriptedSession struct {
	provider *ScriptedProvider
}

func (s *scriptedSession) SendStream(ctx context.Context, message string) (Stream, error) {
	turn, err := s.provider.next()
	if err != nil {
		return nil, err
	}
	if turn.SendErr != nil {
		return nil, turn.SendErr
	}
	return &scriptedStream{turn: turn}, nil
}

type scriptedStream struct {
	turn ScriptedTurn
	pos  int
}

func (s *scriptedStream) Recv() (string, error) {
	if s.pos < len(s.turn.Fragments) {
		fragment := s.turn.Fragments[s.pos]
		s.pos++
		return fragment, nil
	}
	if s.turn.Err != nil {
		return "", s.turn.Err
	}
	return "", io.EOF
}
