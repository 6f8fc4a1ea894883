package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"defi-assistant/assistant"
	"defi-assistant/config"
	"defi-assistant/internal/app"
	"defi-assistant/observability"
)

// SessionHeader carries the conversation key when the body has none
const SessionHeader = "X-Session-ID"

// Handler handles HTTP API requests
type Handler struct {
	app *app.App
	cfg *config.Config
}

// NewHandler creates a new Handler
func NewHandler(application *app.App, cfg *config.Config) *Handler {
	return &Handler{app: application, cfg: cfg}
}

// FeedbackRequest is the body of POST /api/feedback
type FeedbackRequest struct {
	MessageID string `json:"messageId"`
	Feedback  string `json:"feedback"`
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, h.app.Health(r.Context()))
}

// HandleChat runs one conversational turn
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req assistant.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = r.Header.Get(SessionHeader)
	}

	resp, err := h.app.Chat(r.Context(), req)
	switch {
	case err == nil:
		h.jsonResponse(w, resp)
	case errors.Is(err, assistant.ErrEmptyMessage):
		h.jsonError(w, "Message is required", http.StatusBadRequest)
	case errors.Is(err, app.ErrQueueFull):
		h.jsonError(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, assistant.ErrUpstreamUnavailable):
		h.jsonError(w, "Failed to process chat message", http.StatusBadGateway)
	default:
		observability.Error("chat turn failed", "error", err, "session_id", req.SessionID)
		h.jsonError(w, "Failed to process chat message", http.StatusInternalServerError)
	}
}

// HandleSubmitFeedback stores feedback for an assistant message
func (h *Handler) HandleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}

	if _, err := h.app.SubmitFeedback(r.Context(), req.MessageID, req.Feedback); err != nil {
		if errors.Is(err, app.ErrInvalidFeedback) {
			h.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		observability.Error("failed to save feedback", "error", err)
		h.jsonError(w, "Failed to process feedback", http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, map[string]bool{"success": true})
}

// HandleGetFeedback lists recent feedback, optionally for one message
func (h *Handler) HandleGetFeedback(w http.ResponseWriter, r *http.Request) {
	feedback, err := h.app.RecentFeedback(r.Context(), r.URL.Query().Get("messageId"))
	if err != nil {
		observability.Error("failed to list feedback", "error", err)
		h.jsonError(w, "Failed to fetch feedback", http.StatusInternalServerError)
		return
	}
	h.jsonResponse(w, feedback)
}

// HandleTopTokens returns the top 24h gainers
func (h *Handler) HandleTopTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.app.TopTokens(r.Context())
	if err != nil {
		observability.Error("error fetching top tokens", "error", err)
		h.jsonError(w, "Failed to fetch top tokens", http.StatusInternalServerError)
		return
	}

	out := make([]topToken, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, topToken{Symbol: t.Symbol, Price: t.Price, Change24h: t.Change24h, FDV: t.FullyDilutedValuation})
	}
	h.jsonResponse(w, out)
}

// HandleMarketPrices quotes ?tokens=a,b (default bitcoin,ethereum)
func (h *Handler) HandleMarketPrices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.app.MarketPrices(r.Context(), r.URL.Query()["tokens"])
	if err != nil {
		observability.Error("error fetching market prices", "error", err)
		h.jsonError(w, "Failed to fetch market prices", http.StatusInternalServerError)
		return
	}
	h.jsonResponse(w, prices)
}

// HandleAvailableTokens returns the top 100 tokens by market cap
func (h *Handler) HandleAvailableTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.app.AvailableTokens(r.Context())
	if err != nil {
		observability.Error("error fetching available tokens", "error", err)
		h.jsonError(w, "Failed to fetch available tokens", http.StatusInternalServerError)
		return
	}

	out := make([]listedToken, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, listedToken{ID: t.ID, Symbol: t.Symbol, Name: t.Name, MarketCapRank: t.MarketCapRank})
	}
	h.jsonResponse(w, out)
}

// HandleSearchTokens searches tokens by ?query=
func (h *Handler) HandleSearchTokens(w http.ResponseWriter, r *http.Request) {
	results, err := h.app.SearchTokens(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		if errors.Is(err, app.ErrQueryRequired) {
			h.jsonError(w, "Query parameter is required", http.StatusBadRequest)
			return
		}
		observability.Error("error searching tokens", "error", err)
		h.jsonError(w, "Failed to search tokens", http.StatusInternalServerError)
		return
	}

	out := make([]searchedToken, 0, len(results))
	for _, t := range results {
		out = append(out, searchedToken{ID: t.ID, Symbol: strings.ToUpper(t.Symbol), Name: t.Name})
	}
	h.jsonResponse(w, out)
}

type topToken struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change_24h"`
	FDV       float64 `json:"fdv"`
}

type listedToken struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank int    `json:"market_cap_rank"`
}

type searchedToken struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
