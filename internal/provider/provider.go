// Package provider binds the completion and image-description providers.
package provider

import (
	"context"
)

// Stream yields response fragments for one request. Recv returns io.EOF on
// normal exhaustion; any other error means the request failed mid-stream.
type Stream interface {
	Recv() (string, error)
}

// Session is one logical conversation with the completion provider. The
// provider's behavior is conditioned on the system instruction the session
// was created with; sessions are not reconfigured, they are replaced.
type Session interface {
	SendStream(ctx context.Context, message string) (Stream, error)
}

// Provider creates conversation sessions and converts images to text
// descriptions so they can enter the standard pipeline.
type Provider interface {
	Name() string
	NewSession(systemInstruction string) Session
	DescribeImage(ctx context.Context, data []byte, mimeType string) (string, error)
}
