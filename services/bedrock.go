package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "defi-assistant/config"
	"defi-assistant/models"
	"defi-assistant/observability"
)

const anthropicVersion = "bedrock-2023-05-31"

// bedrockClient is the subset of the Bedrock runtime client we call (for testing)
type bedrockClient interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockService handles communication with AWS Bedrock for Claude models
type BedrockService struct {
	client    bedrockClient
	model     string
	maxTokens int
}

// ClaudeRequest represents the request format for Claude models via Bedrock
type ClaudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	System           string          `json:"system,omitempty"`
	Messages         []ClaudeMessage `json:"messages"`
}

// ClaudeMessage represents a message in the Claude conversation
type ClaudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ClaudeResponse represents the response from Claude models
type ClaudeResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewBedrockService creates a new BedrockService instance
func NewBedrockService(ctx context.Context, cfg appconfig.BedrockConfig) (*BedrockService, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	return newBedrockServiceWithClient(bedrockruntime.NewFromConfig(awsCfg), cfg.ModelID, cfg.MaxTokens), nil
}

func newBedrockServiceWithClient(client bedrockClient, modelID string, maxTokens int) *BedrockService {
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &BedrockService{
		client:    client,
		model:     modelID,
		maxTokens: maxTokens,
	}
}

// buildClaudeRequest folds system entries into the system prompt, since the
// messages API only accepts user and assistant turns.
func (s *BedrockService) buildClaudeRequest(messages []models.ChatMessage) ClaudeRequest {
	var system []string
	turns := make([]ClaudeMessage, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case models.RoleSystem:
			system = append(system, msg.Content)
		case models.RoleUser, models.RoleAssistant:
			turns = append(turns, ClaudeMessage{Role: string(msg.Role), Content: msg.Content})
		}
	}

	return ClaudeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        s.maxTokens,
		System:           strings.Join(system, "\n\n"),
		Messages:         turns,
	}
}

// Complete sends the conversation to Claude and returns the reply text
func (s *BedrockService) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerBedrock, "invoke")
	timer := metrics.NewTimer()

	result, err := WithCircuitBreaker(ctx, BreakerBedrock, func() (string, error) {
		reqBody, err := json.Marshal(s.buildClaudeRequest(messages))
		if err != nil {
			return "", fmt.Errorf("failed to marshal request: %w", err)
		}

		output, err := s.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(s.model),
			Body:        reqBody,
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return "", fmt.Errorf("failed to invoke model: %w", err)
		}

		var response ClaudeResponse
		if err := json.Unmarshal(output.Body, &response); err != nil {
			return "", fmt.Errorf("failed to unmarshal response: %w", err)
		}

		if len(response.Content) == 0 || response.Content[0].Text == "" {
			return "", fmt.Errorf("bedrock: %w", ErrEmptyCompletion)
		}

		return response.Content[0].Text, nil
	})

	timer.ObserveExternalAPI(BreakerBedrock, "invoke")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerBedrock, "invoke", categorizeAPIError(err))
	}
	return result, err
}
