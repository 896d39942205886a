/*
chat.go - Assistant passthrough endpoint

PURPOSE:
  Forwards a user message plus a short summary of recent appointments to
  an OpenAI-compatible chat completion endpoint and relays the reply.
  The upstream base URL and API key come from the environment; without a
  key the endpoint reports the assistant as unavailable.

RATE LIMITING:
  Outbound calls are throttled with a token bucket so a chatty client
  cannot exhaust the upstream quota.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"golang.org/x/time/rate"
)

const (
	chatMaxMessageLen = 1000
	chatContextSize   = 3
)

// ChatClient calls an OpenAI-compatible chat completion API.
type ChatClient struct {
	baseURL string
	apiKey  string
	model   string
	limiter *rate.Limiter
	client  *http.Client
}

// NewChatClientFromEnv builds a client from XAI_API_KEY, XAI_BASE_URL,
// and XAI_MODEL. Returns nil when no API key is configured.
func NewChatClientFromEnv() *ChatClient {
	key := os.Getenv("XAI_API_KEY")
	if key == "" {
		return nil
	}
	baseURL := os.Getenv("XAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.x.ai/v1"
	}
	model := os.Getenv("XAI_MODEL")
	if model == "" {
		model = "grok-beta"
	}
	return &ChatClient{
		baseURL: baseURL,
		apiKey:  key,
		model:   model,
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends one system+user exchange upstream and returns the
// assistant's reply.
func (c *ChatClient) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   150,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assistant returned status %d", resp.StatusCode)
	}
	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("assistant returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// HandleChat relays a user message to the assistant with recent appointment
// context.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid request body", err)
		return
	}
	if req.Message == "" || len(req.Message) > chatMaxMessageLen {
		writeStatusError(w, http.StatusBadRequest, "Invalid or too long message", nil)
		return
	}
	if h.Chat == nil {
		writeStatusError(w, http.StatusServiceUnavailable, "Assistant is not configured", nil)
		return
	}
	if !h.Chat.limiter.Allow() {
		writeStatusError(w, http.StatusTooManyRequests, "Too many requests", nil)
		return
	}

	reply, err := h.Chat.Complete(r.Context(), assistantContext(req.Appointments), req.Message)
	if err != nil {
		h.Log.WithError(err).Error("assistant request failed")
		writeStatusError(w, http.StatusInternalServerError, "Failed to get response from assistant", err)
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{Response: reply})
}

// assistantContext summarizes the most recently signed appointments into
// the system prompt.
func assistantContext(appointments []AppointmentDTO) string {
	sort.Slice(appointments, func(i, j int) bool {
		return appointments[i].DateSigned > appointments[j].DateSigned
	})
	if len(appointments) > chatContextSize {
		appointments = appointments[:chatContextSize]
	}

	recent := make([]map[string]string, len(appointments))
	for i, a := range appointments {
		recent[i] = map[string]string{
			"name":              a.Name,
			"positionTitle":     a.PositionTitle,
			"statusAppointment": a.StatusAppointment,
			"schoolOffice":      a.SchoolOffice,
			"DateSigned":        a.DateSigned,
		}
	}
	summary, _ := json.Marshal(recent)

	return fmt.Sprintf(`You are an assistant for an appointment and travel records app. The app allows users to:
- Add/edit appointments via a form with fields: name, position title, status (Scheduled, Confirmed, Completed), school office, nature, item number, date signed, optional PDF.
- Search appointments by name, position, status, office, nature, item number, or date.
- Upload spreadsheets with columns: name, positionTitle, statusAppointment, schoolOffice, DateSigned.
- Delete single or multiple appointments.
- View bar charts of appointments and travel entries by year, month, week, or date.
Recent appointments: %s.
Respond in a natural, human-like way, focusing on how to use the app. For unrelated questions, politely redirect to app features.`, summary)
}
