package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Sender delivers an outbound prompt to one chat session.
type Sender interface {
	SendPrompt(ctx context.Context, sessionID string, prompt Prompt) error
}

// HTTPSender posts prompts as JSON to a transport callback endpoint.
type HTTPSender struct {
	url    string
	client *http.Client
}

func NewHTTPSender(url string, timeout time.Duration) *HTTPSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSender{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: timeout},
	}
}

type outboundMessage struct {
	SessionID string `json:"session_id"`
	Prompt    Prompt `json:"prompt"`
}

func (s *HTTPSender) SendPrompt(ctx context.Context, sessionID string, prompt Prompt) error {
	payload, err := json.Marshal(outboundMessage{SessionID: sessionID, Prompt: prompt})
	if err != nil {
		return fmt.Errorf("marshal prompt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send prompt: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return fmt.Errorf("transport callback status %d: %s", res.StatusCode, string(body))
	}
	return nil
}

// MockSender records prompts for tests.
type MockSender struct {
	mu      sync.Mutex
	prompts map[string][]Prompt
	fail    error
}

func NewMockSender() *MockSender {
	return &MockSender{prompts: make(map[string][]Prompt)}
}

func (s *MockSender) SendPrompt(_ context.Context, sessionID string, prompt Prompt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.prompts[sessionID] = append(s.prompts[sessionID], prompt)
	return nil
}

// Prompts returns a copy of everything sent to the session so far.
func (s *MockSender) Prompts(sessionID string) []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Prompt, len(s.prompts[sessionID]))
	copy(out, s.prompts[sessionID])
	return out
}

func (s *MockSender) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}
