package handlers

import (
	"context"

	"github.com/sukeshetty/fitness-tracker/internal/pipeline"
	"github.com/sukeshetty/fitness-tracker/internal/provider"
)

// Pipelines resolves the conversation pipeline for a chat, creating it on
// first use.
type Pipelines interface {
	ForChat(ctx context.Context, chatID int64) (*pipeline.Pipeline, error)
}

// Dependencies holds what the handlers need to do their work
type Dependencies struct {
	Pipelines Pipelines
	Provider  provider.Provider
}
