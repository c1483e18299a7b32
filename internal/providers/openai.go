package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
)

// NewOpenAIClient builds a client for the OpenAI API or a compatible base URL.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return openai.NewClientWithConfig(cfg)
}

// OpenAIProvider calls the chat completions endpoint.
type OpenAIProvider struct {
	client *openai.Client
	logger *slog.Logger
}

func NewOpenAIProvider(log *slog.Logger, client *openai.Client, apiKey string) *OpenAIProvider {
	if log == nil {
		log = slog.Default()
	}
	p := &OpenAIProvider{
		client: client,
		logger: log.With(slog.String("service", "providers")),
	}
	p.logger.Info("openai provider configured", slog.String("api_key", maskAPIKey(apiKey)))
	return p
}

func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, toChatRequest(req, false))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelProvider, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, toChatRequest(req, true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelProvider, err)
	}
	return &openAIStream{stream: stream}, nil
}

type openAIStream struct {
	stream *openai.ChatCompletionStream
}

// Recv skips chunks without content, such as the role preamble and usage frames.
func (s *openAIStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrModelProvider, err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			return delta, nil
		}
	}
}

func (s *openAIStream) Close() error {
	return s.stream.Close()
}

func toChatRequest(req Request, stream bool) openai.ChatCompletionRequest {
	out := openai.ChatCompletionRequest{
		Model:    req.Variant.ModelID,
		Messages: make([]openai.ChatCompletionMessage, 0, len(req.Messages)),
		Stream:   stream,
	}
	if req.Variant.MaxTokens > 0 {
		out.MaxTokens = req.Variant.MaxTokens
	}
	for _, m := range req.Messages {
		out.Messages = append(out.Messages, toChatMessage(m))
	}
	return out
}

func toChatMessage(m conversation.Message) openai.ChatCompletionMessage {
	if !m.IsMultipart() {
		return openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	parts := make([]openai.ChatMessagePart, 0, len(m.Segments))
	for _, seg := range m.Segments {
		switch seg.Type {
		case conversation.SegmentText:
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: seg.Text,
			})
		case conversation.SegmentImage:
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    seg.ImageURL,
					Detail: openai.ImageURLDetailAuto,
				},
			})
		}
	}
	return openai.ChatCompletionMessage{Role: m.Role, MultiContent: parts}
}
