package provider

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/sukeshetty/fitness-tracker/internal/apperrors"
)

const geminiModel = "gemini-1.5-flash"

// GeminiProvider talks to Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client
}

func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) NewSession(systemInstruction string) Session {
	model := p.client.GenerativeModel(geminiModel)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}
	return &geminiSession{chat: model.StartChat()}
}

func (p *GeminiProvider) DescribeImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	model := p.client.GenerativeModel(geminiModel)

	prompt := `Describe the food or physical activity shown in this image as a single short
sentence a person would type into a food diary, e.g. "a plate with 2 fried
eggs and a slice of toast". Mention visible portion sizes. Return only the
sentence, no preamble.`

	format := strings.TrimPrefix(mimeType, "image/")
	resp, err := model.GenerateContent(ctx, genai.ImageData(format, data), genai.Text(prompt))
	if err != nil {
		return "", apperrors.NewProviderError(err, p.Name())
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", apperrors.NewProviderError(fmt.Errorf("empty response"), p.Name())
	}
	return strings.TrimSpace(partsToText(resp.Candidates[0].Content.Parts)), nil
}

func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

type geminiSession struct {
	chat *genai.ChatSession
}

func (s *geminiSession) SendStream(ctx context.Context, message string) (Stream, error) {
	iter := s.chat.SendMessageStream(ctx, genai.Text(message))
	return &geminiStream{iter: iter}, nil
}

type geminiStream struct {
	iter *genai.GenerateContentResponseIterator
}

func (s *geminiStream) Recv() (string, error) {
	resp, err := s.iter.Next()
	if err == iterator.Done {
		return "", io.EOF
	}
	if err != nil {
		return "", apperrors.NewProviderError(err, "gemini")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}
	return partsToText(resp.Candidates[0].Content.Parts), nil
}

func partsToText(parts []genai.Part) string {
	var b strings.Builder
	for _, part := range parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
