package services

import (
	"context"
	"errors"
	"fmt"

	appconfig "defi-assistant/config"
	"defi-assistant/models"
	"defi-assistant/observability"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// ErrEmptyCompletion is returned when a provider answers with no content
var ErrEmptyCompletion = errors.New("empty completion")

// openaiClient defines the interface for OpenAI API calls (for testing)
type openaiClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// openaiClientWrapper wraps the openai.Client to implement our interface
type openaiClientWrapper struct {
	client openai.Client
}

func (w *openaiClientWrapper) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return w.client.Chat.Completions.New(ctx, params)
}

// OpenAIService handles communication with OpenAI API
type OpenAIService struct {
	client    openaiClient
	model     string
	maxTokens int
}

// NewOpenAIService creates a new OpenAIService instance
func NewOpenAIService(cfg *appconfig.Config) (*OpenAIService, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.OpenAI.APIKey)}
	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	client := openai.NewClient(opts...)

	return &OpenAIService{
		client:    &openaiClientWrapper{client: client},
		model:     cfg.OpenAI.Model,
		maxTokens: cfg.OpenAI.MaxTokens,
	}, nil
}

// newOpenAIServiceWithClient creates an OpenAIService with a custom client (for testing)
func newOpenAIServiceWithClient(client openaiClient, model string, maxTokens int) *OpenAIService {
	return &OpenAIService{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}
}

// toOpenAIMessages maps conversation entries onto chat completion messages, preserving order
func toOpenAIMessages(messages []models.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case models.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case models.RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case models.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		}
	}
	return out
}

// Complete sends the full message sequence to OpenAI and returns the reply text
func (s *OpenAIService) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerOpenAI, "chat")
	timer := metrics.NewTimer()

	result, err := WithCircuitBreaker(ctx, BreakerOpenAI, func() (string, error) {
		params := openai.ChatCompletionNewParams{
			Model:     shared.ChatModel(s.model),
			MaxTokens: openai.Int(int64(s.maxTokens)),
			Messages:  toOpenAIMessages(messages),
		}

		completion, err := s.client.CreateChatCompletion(ctx, params)
		if err != nil {
			return "", fmt.Errorf("failed to invoke OpenAI: %w", err)
		}

		if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
			return "", fmt.Errorf("openai: %w", ErrEmptyCompletion)
		}

		return completion.Choices[0].Message.Content, nil
	})

	timer.ObserveExternalAPI(BreakerOpenAI, "chat")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerOpenAI, "chat", categorizeAPIError(err))
	}
	return result, err
}
