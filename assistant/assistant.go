// Package assistant runs one chat turn: it classifies the message, gathers
// market data and news for it, wraps them around the durable conversation for
// a single LLM call and then retracts everything but the user/assistant pair.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"defi-assistant/intent"
	"defi-assistant/models"
	"defi-assistant/observability"
	"defi-assistant/services"
)

var (
	// ErrEmptyMessage is returned when the chat message is blank
	ErrEmptyMessage = errors.New("message is required")
	// ErrUpstreamUnavailable is returned when the LLM call fails; the conversation is left unchanged
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// MarketFetcher looks up the current price for a free-text token name
type MarketFetcher interface {
	Lookup(ctx context.Context, query string) (*models.MarketSnapshot, bool)
}

// NewsAnalyzer produces a sentiment analysis of recent news about a token
type NewsAnalyzer interface {
	Analyze(ctx context.Context, token string) (*models.NewsAnalysis, error)
	HasCredentials() bool
}

// ChatRequest is one inbound chat message
type ChatRequest struct {
	Message   string            `json:"message"`
	Portfolio *models.Portfolio `json:"portfolio,omitempty"`
	SessionID string            `json:"sessionId,omitempty"`
}

// ChatResponse is the reply to a ChatRequest
type ChatResponse struct {
	Response  string `json:"response"`
	MessageID string `json:"messageId"`
	SessionID string `json:"sessionId"`
}

// Assistant answers chat messages with market and news context
type Assistant struct {
	llm        services.LLMService
	market     MarketFetcher
	news       NewsAnalyzer
	sessions   *SessionStore
	llmTimeout time.Duration
}

// New creates an Assistant. market and news may be nil to disable that enrichment.
func New(llm services.LLMService, market MarketFetcher, news NewsAnalyzer, sessions *SessionStore, llmTimeout time.Duration) *Assistant {
	return &Assistant{
		llm:        llm,
		market:     market,
		news:       news,
		sessions:   sessions,
		llmTimeout: llmTimeout,
	}
}

// Sessions returns the session store backing this assistant
func (a *Assistant) Sessions() *SessionStore {
	return a.sessions
}

// Chat runs one conversational turn for req
func (a *Assistant) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	logger := observability.WithSession(sessionID)

	intents := intent.Classify(message)
	for _, in := range intents.Intents {
		metrics.RecordIntent(string(in.Kind))
	}

	conv := a.sessions.Get(sessionID)
	conv.mu.Lock()
	defer conv.mu.Unlock()

	ephemeral, err := a.enrich(ctx, intents, req.Portfolio)
	if err != nil {
		timer.ObserveChat("error")
		metrics.RecordChatError("enrich")
		return nil, err
	}

	reply, err := a.invoke(ctx, conv, ephemeral, message)
	if err != nil {
		timer.ObserveChat("error")
		metrics.RecordChatError("llm")
		logger.Error("chat completion failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	timer.ObserveChat("ok")
	logger.Debug("chat turn completed",
		"intents", len(intents.Intents),
		"ephemeral_entries", len(ephemeral),
		"context_length", conv.length())

	return &ChatResponse{
		Response:  reply,
		MessageID: uuid.NewString(),
		SessionID: sessionID,
	}, nil
}

// invoke pushes the turn's entries, calls the LLM and settles the conversation.
// Settling runs deferred so that a failed or panicking call leaves only durable history.
func (a *Assistant) invoke(ctx context.Context, conv *Conversation, ephemeral []string, message string) (reply string, err error) {
	pushed := 0
	for _, content := range ephemeral {
		conv.push(models.SystemMessage(content))
		pushed++
	}
	conv.push(models.UserMessage(message))
	pushed++

	succeeded := false
	defer func() {
		conv.pop(pushed)
		if succeeded {
			conv.push(models.UserMessage(message))
			conv.push(models.AssistantMessage(reply))
			conv.trim()
		}
	}()

	if a.llmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.llmTimeout)
		defer cancel()
	}

	reply, err = a.llm.Complete(ctx, conv.snapshot())
	if err != nil {
		return "", err
	}
	succeeded = true
	return reply, nil
}

// enrich gathers the ephemeral system entries for this turn in their fixed
// order: market data, portfolio, then news or the missing-key notice.
func (a *Assistant) enrich(ctx context.Context, intents intent.Result, portfolio *models.Portfolio) ([]string, error) {
	var (
		snapshot  *models.MarketSnapshot
		analysis  *models.NewsAnalysis
		keyMissed bool
	)

	newsToken, newsKind, wantNews := intents.NewsQuery()
	priceToken := intents.Token(intent.PriceLookup)

	g, gctx := errgroup.WithContext(ctx)

	if priceToken != "" && a.market != nil {
		g.Go(func() error {
			snapshot, _ = a.market.Lookup(gctx, priceToken)
			return nil
		})
	}

	if wantNews && a.news != nil {
		if !a.news.HasCredentials() {
			keyMissed = true
		} else {
			g.Go(func() error {
				result, err := a.news.Analyze(gctx, newsToken)
				if errors.Is(err, services.ErrNewsAPIKeyMissing) {
					keyMissed = true
					return nil
				}
				analysis = result
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var entries []string
	if snapshot != nil {
		entry, err := marketEntry(snapshot)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if portfolio.HasAssets() {
		entries = append(entries, portfolioEntry(portfolio))
	}
	switch {
	case analysis != nil:
		entries = append(entries, newsEntry(newsKind, analysis))
	case keyMissed:
		entries = append(entries, missingNewsKeyEntry(newsToken))
	}
	return entries, nil
}
