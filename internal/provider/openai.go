package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sukeshetty/fitness-tracker/internal/apperrors"
)

// OpenAIProvider is the alternate completion provider.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) NewSession(systemInstruction string) Session {
	return &openaiSession{
		provider: p,
		history: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
		},
	}
}

func (p *OpenAIProvider) DescribeImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	prompt := `Describe the food or physical activity shown in this image as a single short
sentence a person would type into a food diary, e.g. "a plate with 2 fried
eggs and a slice of toast". Mention visible portion sizes. Return only the
sentence, no preamble.`

	imageURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4o,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
	})
	if err != nil {
		return "", apperrors.NewProviderError(err, p.Name())
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.NewProviderError(fmt.Errorf("empty response"), p.Name())
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// openaiSession keeps the running message history itself: the chat completion
// API is stateless per request.
type openaiSession struct {
	provider *OpenAIProvider
	mu       sync.Mutex
	history  []openai.ChatCompletionMessage
}

func (s *openaiSession) SendStream(ctx context.Context, message string) (Stream, error) {
	s.mu.Lock()
	s.history = append(s.history, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})
	messages := make([]openai.ChatCompletionMessage, len(s.history))
	copy(messages, s.history)
	s.mu.Unlock()

	stream, err := s.provider.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    s.provider.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, apperrors.NewProviderError(err, s.provider.Name())
	}
	return &openaiStream{session: s, stream: stream}, nil
}

// recordReply appends the assistant turn once the stream has fully drained,
// so the next send carries the complete history.
func (s *openaiSession) recordReply(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: text,
	})
}

type openaiStream struct {
	session *openaiSession
	stream  *openai.ChatCompletionStream
	total   strings.Builder
}

func (s *openaiStream) Recv() (string, error) {
	resp, err := s.stream.Recv()
	if errors.Is(err, io.EOF) {
		s.stream.Close()
		s.session.recordReply(s.total.String())
		return "", io.EOF
	}
	if err != nil {
		s.stream.Close()
		return "", apperrors.NewProviderError(err, s.session.provider.Name())
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	delta := resp.Choices[0].Delta.Content
	s.total.WriteString(delta)
	return delta, nil
}
