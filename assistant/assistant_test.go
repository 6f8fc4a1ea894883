package assistant

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"defi-assistant/models"
	"defi-assistant/services"
)

const testPersona = "You are a DeFi assistant."

func newTestAssistant(llm *mockLLM, market MarketFetcher, news NewsAnalyzer) *Assistant {
	return New(llm, market, news, NewSessionStore(testPersona, 50, time.Hour), time.Second)
}

func systemEntries(msgs []models.ChatMessage) []string {
	var out []string
	for _, m := range msgs {
		if m.Role == models.RoleSystem {
			out = append(out, m.Content)
		}
	}
	return out
}

func testPortfolio() *models.Portfolio {
	return &models.Portfolio{
		TotalValue:  decimal.NewFromFloat(1000),
		TotalChange: 1,
		AssetCount:  1,
		TotalTokens: decimal.NewFromInt(2),
		Assets: []models.PortfolioAsset{
			{ID: "ethereum", Amount: decimal.NewFromInt(2), Value: decimal.NewFromInt(1000), Change24h: 1},
		},
	}
}

func TestChat_NoEnrichmentGrowsByTwo(t *testing.T) {
	llm := &mockLLM{reply: "gm"}
	a := newTestAssistant(llm, &mockMarket{}, &mockNews{})
	conv := a.Sessions().Get(DefaultSessionID)

	before := conv.Len()
	resp, err := a.Chat(context.Background(), ChatRequest{Message: "hello there"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Response != "gm" {
		t.Errorf("response = %q", resp.Response)
	}
	if got := conv.Len(); got != before+2 {
		t.Errorf("context length = %d, want %d", got, before+2)
	}

	msgs := conv.Messages()
	if sys := systemEntries(msgs); len(sys) != 1 || sys[0] != testPersona {
		t.Errorf("only the persona should remain as a system entry, got %v", sys)
	}
	last := msgs[len(msgs)-2:]
	if last[0] != models.UserMessage("hello there") || last[1] != models.AssistantMessage("gm") {
		t.Errorf("durable pair = %+v", last)
	}
}

func TestChat_EphemeralEntriesRetracted(t *testing.T) {
	market := &mockMarket{snapshot: &models.MarketSnapshot{USD: 3000, USD24hChange: 1}}
	news := &mockNews{analysis: &models.NewsAnalysis{Token: "ethereum", Summary: "Recent News Analysis:\nmixed"}}

	enriched := newTestAssistant(&mockLLM{reply: "ok"}, market, news)
	plain := newTestAssistant(&mockLLM{reply: "ok"}, nil, nil)

	msg := "should i buy ethereum? what is the price of ethereum"
	for _, a := range []*Assistant{enriched, plain} {
		if _, err := a.Chat(context.Background(), ChatRequest{Message: msg, Portfolio: testPortfolio()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	e := enriched.Sessions().Get(DefaultSessionID)
	p := plain.Sessions().Get(DefaultSessionID)
	if e.Len() != p.Len() {
		t.Errorf("enriched length %d != plain length %d", e.Len(), p.Len())
	}
	if !reflect.DeepEqual(e.Messages(), p.Messages()) {
		t.Errorf("enriched context %+v differs from plain %+v", e.Messages(), p.Messages())
	}
}

func TestChat_EnrichmentOrder(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	market := &mockMarket{snapshot: &models.MarketSnapshot{USD: 3000, USD24hChange: 1}}
	news := &mockNews{analysis: &models.NewsAnalysis{Token: "ethereum", Summary: "SUMMARY"}}
	a := newTestAssistant(llm, market, news)

	msg := "should i buy ethereum, price of ethereum"
	if _, err := a.Chat(context.Background(), ChatRequest{Message: msg, Portfolio: testPortfolio()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sent := llm.lastCall()
	if len(sent) != 5 {
		t.Fatalf("expected persona, 3 ephemeral entries and the user turn, got %d: %+v", len(sent), sent)
	}
	if sent[0].Content != testPersona {
		t.Errorf("first entry should be the persona, got %q", sent[0].Content)
	}
	if !strings.HasPrefix(sent[1].Content, "Current market data: ") {
		t.Errorf("entry 1 should be market data, got %q", sent[1].Content)
	}
	if !strings.HasPrefix(sent[2].Content, "User's Portfolio Information:") {
		t.Errorf("entry 2 should be the portfolio, got %q", sent[2].Content)
	}
	if sent[3].Content != "Recent market sentiment analysis for your trading question about ethereum:\nSUMMARY" {
		t.Errorf("entry 3 = %q", sent[3].Content)
	}
	if sent[4] != models.UserMessage(msg) {
		t.Errorf("last entry should be the user turn, got %+v", sent[4])
	}
	if len(news.tokens) != 1 || news.tokens[0] != "ethereum" {
		t.Errorf("news tokens = %v", news.tokens)
	}
}

func TestChat_PriceOfBitcoin(t *testing.T) {
	llm := &mockLLM{reply: "Bitcoin is at $50,000."}
	market := &mockMarket{snapshot: &models.MarketSnapshot{USD: 50000, USD24hChange: 2.5}}
	a := newTestAssistant(llm, market, &mockNews{})
	conv := a.Sessions().Get(DefaultSessionID)
	before := conv.Len()

	resp, err := a.Chat(context.Background(), ChatRequest{Message: "price of bitcoin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(market.queries) != 1 || market.queries[0] != "bitcoin" {
		t.Errorf("market queries = %v, want [bitcoin]", market.queries)
	}
	sys := systemEntries(llm.lastCall())
	if len(sys) != 2 {
		t.Fatalf("expected persona and one market entry, got %v", sys)
	}
	if sys[1] != `Current market data: {"usd":50000,"usd_24h_change":2.5}` {
		t.Errorf("market entry = %q", sys[1])
	}
	if resp.Response != "Bitcoin is at $50,000." {
		t.Errorf("response = %q", resp.Response)
	}
	if _, err := uuid.Parse(resp.MessageID); err != nil {
		t.Errorf("messageId %q is not a uuid: %v", resp.MessageID, err)
	}
	if resp.SessionID != DefaultSessionID {
		t.Errorf("sessionId = %q", resp.SessionID)
	}
	if got := conv.Len(); got != before+2 {
		t.Errorf("context length = %d, want %d", got, before+2)
	}
}

func TestChat_ShouldIBuyDogecoinWithoutArticles(t *testing.T) {
	llm := &mockLLM{reply: "DYOR"}
	news := &mockNews{}
	a := newTestAssistant(llm, &mockMarket{}, news)

	if _, err := a.Chat(context.Background(), ChatRequest{Message: "should I buy dogecoin"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(news.tokens) != 1 || news.tokens[0] != "dogecoin" {
		t.Errorf("news tokens = %v, want [dogecoin]", news.tokens)
	}
	if sys := systemEntries(llm.lastCall()); len(sys) != 1 {
		t.Errorf("no news entry expected, got %v", sys)
	}
}

func TestChat_MissingNewsKeyNotice(t *testing.T) {
	tests := []struct {
		name    string
		message string
		token   string
	}{
		{"news search", "search for solana", "solana"},
		{"trading advice", "should i sell some pepe", "pepe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &mockLLM{reply: "ok"}
			news := &mockNews{noKey: true}
			a := newTestAssistant(llm, nil, news)

			if _, err := a.Chat(context.Background(), ChatRequest{Message: tt.message}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := fmt.Sprintf(`Note: The user has requested to search for news about "%s", but the NEWS_API_KEY is not configured. `+
				`Please inform them that you don't have access to real-time news data at the moment, but you can still provide general information.`, tt.token)
			sys := systemEntries(llm.lastCall())
			if len(sys) != 2 || sys[1] != want {
				t.Errorf("system entries = %q", sys)
			}
			if len(news.tokens) != 0 {
				t.Error("Analyze should not be called without credentials")
			}
			if got := a.Sessions().Get(DefaultSessionID).Len(); got != 3 {
				t.Errorf("notice should be retracted, length = %d", got)
			}
		})
	}
}

func TestChat_MissingKeyReportedByAnalyzer(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	news := &mockNews{err: fmt.Errorf("fetch: %w", services.ErrNewsAPIKeyMissing)}
	a := newTestAssistant(llm, nil, news)

	if _, err := a.Chat(context.Background(), ChatRequest{Message: "find news about cardano"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sys := systemEntries(llm.lastCall())
	if len(sys) != 2 || !strings.Contains(sys[1], `about "cardano"`) {
		t.Errorf("expected missing key notice, got %q", sys)
	}
}

func TestChat_NewsSearchEntry(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	news := &mockNews{analysis: &models.NewsAnalysis{Token: "solana", Summary: "S"}}
	a := newTestAssistant(llm, nil, news)

	if _, err := a.Chat(context.Background(), ChatRequest{Message: "look up solana"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sys := systemEntries(llm.lastCall())
	if len(sys) != 2 || sys[1] != "Recent market sentiment analysis for your search query about solana:\nS" {
		t.Errorf("system entries = %q", sys)
	}
}

func TestChat_LLMFailureRestoresContext(t *testing.T) {
	llm := &mockLLM{reply: "first"}
	market := &mockMarket{snapshot: &models.MarketSnapshot{USD: 1}}
	a := newTestAssistant(llm, market, &mockNews{})
	conv := a.Sessions().Get(DefaultSessionID)

	if _, err := a.Chat(context.Background(), ChatRequest{Message: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := conv.Messages()

	cause := errors.New("openai down")
	llm.err = cause
	resp, err := a.Chat(context.Background(), ChatRequest{Message: "price of bitcoin", Portfolio: testPortfolio()})
	if resp != nil {
		t.Errorf("expected nil response, got %+v", resp)
	}
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("error should wrap the cause, got %v", err)
	}
	if after := conv.Messages(); !reflect.DeepEqual(before, after) {
		t.Errorf("context changed on failure:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestChat_PanicRestoresContext(t *testing.T) {
	llm := &mockLLM{panicMsg: "boom"}
	a := newTestAssistant(llm, &mockMarket{snapshot: &models.MarketSnapshot{USD: 1}}, nil)
	conv := a.Sessions().Get(DefaultSessionID)
	before := conv.Messages()

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_, _ = a.Chat(context.Background(), ChatRequest{Message: "price of bitcoin"})
	}()

	if after := conv.Messages(); !reflect.DeepEqual(before, after) {
		t.Errorf("context changed after panic: %+v", after)
	}
}

func TestChat_EmptyMessage(t *testing.T) {
	llm := &mockLLM{reply: "x"}
	a := newTestAssistant(llm, nil, nil)

	for _, msg := range []string{"", "   ", "\n\t"} {
		if _, err := a.Chat(context.Background(), ChatRequest{Message: msg}); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("message %q: expected ErrEmptyMessage, got %v", msg, err)
		}
	}
	if len(llm.calls) != 0 {
		t.Error("LLM should not be called for blank messages")
	}
}

func TestChat_RetentionDropsOldestPairs(t *testing.T) {
	llm := &mockLLM{reply: "r"}
	a := New(llm, nil, nil, NewSessionStore(testPersona, 2, time.Hour), time.Second)

	for i := 1; i <= 3; i++ {
		if _, err := a.Chat(context.Background(), ChatRequest{Message: fmt.Sprintf("turn %d", i)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	msgs := a.Sessions().Get(DefaultSessionID).Messages()
	if len(msgs) != 5 {
		t.Fatalf("expected persona plus 2 pairs, got %d", len(msgs))
	}
	if msgs[0].Content != testPersona {
		t.Error("persona must always be kept")
	}
	if msgs[1] != models.UserMessage("turn 2") {
		t.Errorf("oldest kept user turn = %+v, want turn 2", msgs[1])
	}
}

func TestChat_SessionsAreIsolated(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	a := newTestAssistant(llm, nil, nil)

	resp, err := a.Chat(context.Background(), ChatRequest{Message: "hi", SessionID: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.SessionID != "alice" {
		t.Errorf("sessionId = %q", resp.SessionID)
	}

	if got := a.Sessions().Get("alice").Len(); got != 3 {
		t.Errorf("alice length = %d, want 3", got)
	}
	if got := a.Sessions().Get("bob").Len(); got != 1 {
		t.Errorf("bob length = %d, want 1", got)
	}
}

func TestChat_ConcurrentTurnsOnOneSession(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	market := &mockMarket{snapshot: &models.MarketSnapshot{USD: 1}}
	a := newTestAssistant(llm, market, &mockNews{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = a.Chat(context.Background(), ChatRequest{Message: fmt.Sprintf("price of token%c", 'a'+i)})
		}(i)
	}
	wg.Wait()

	msgs := a.Sessions().Get(DefaultSessionID).Messages()
	if len(msgs) != 21 {
		t.Errorf("length = %d, want 21", len(msgs))
	}
	if sys := systemEntries(msgs); len(sys) != 1 {
		t.Errorf("ephemeral entries leaked: %v", sys)
	}
	for i := 1; i < len(msgs); i += 2 {
		if msgs[i].Role != models.RoleUser || msgs[i+1].Role != models.RoleAssistant {
			t.Fatalf("turns interleaved at %d: %+v", i, msgs[i:i+2])
		}
	}
}
