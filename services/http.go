package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody bounds how much of an error response is kept in an APIError
const maxErrorBody = 512

// getJSON performs a GET and decodes a 200 response body into out.
// Any other status becomes an *APIError carrying the upstream message.
func getJSON(ctx context.Context, client *http.Client, service, rawURL string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Service: service, StatusCode: resp.StatusCode, Message: upstreamMessage(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Permanent(fmt.Errorf("failed to decode %s response: %w", service, err))
	}
	return nil
}

// upstreamMessage extracts a human-readable message from a JSON error body
func upstreamMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
		Status  any    `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return string(body)
	}
	if payload.Message != "" {
		return payload.Message
	}
	if s, ok := payload.Error.(string); ok {
		return s
	}
	if m, ok := payload.Status.(map[string]any); ok {
		if s, ok := m["error_message"].(string); ok {
			return s
		}
	}
	return string(body)
}
