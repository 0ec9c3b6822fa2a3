package httpapi

import (
	"context"
	"errors"
	"sync"

	"github.com/pkazmirchuk/workbot/internal/chat"
)

// PromptRegistry routes outbound prompts: sessions with a live websocket get
// them on the socket, everyone else goes through the fallback sender (the
// transport callback). It is the chat.Sender the orchestrator writes to.
type PromptRegistry struct {
	mu       sync.RWMutex
	sockets  map[string]chan chat.Prompt
	fallback chat.Sender
}

func NewPromptRegistry(fallback chat.Sender) *PromptRegistry {
	return &PromptRegistry{
		sockets:  make(map[string]chan chat.Prompt),
		fallback: fallback,
	}
}

// Register opens an outbound channel for the session. A reconnect replaces
// the previous connection's channel; closing it tells that writer to exit.
func (p *PromptRegistry) Register(sessionID string) <-chan chat.Prompt {
	ch := make(chan chat.Prompt, 32)
	p.mu.Lock()
	if old, ok := p.sockets[sessionID]; ok {
		close(old)
	}
	p.sockets[sessionID] = ch
	p.mu.Unlock()
	return ch
}

// Unregister drops the session's channel, but only if it still belongs to
// the calling connection; a replaced connection must not close its
// successor's channel.
func (p *PromptRegistry) Unregister(sessionID string, ch <-chan chat.Prompt) {
	p.mu.Lock()
	if cur, ok := p.sockets[sessionID]; ok && (<-chan chat.Prompt)(cur) == ch {
		close(cur)
		delete(p.sockets, sessionID)
	}
	p.mu.Unlock()
}

// SendPrompt delivers one prompt. The channel send stays inside the read
// lock so Register's close can never race it.
func (p *PromptRegistry) SendPrompt(ctx context.Context, sessionID string, prompt chat.Prompt) error {
	p.mu.RLock()
	ch, ok := p.sockets[sessionID]
	if ok {
		select {
		case ch <- prompt:
			p.mu.RUnlock()
			return nil
		default:
			p.mu.RUnlock()
			// Keep websocket writes single-threaded; a saturated client
			// forfeits the prompt rather than blocking the workflow.
			return errors.New("websocket outbound queue full")
		}
	}
	p.mu.RUnlock()

	if p.fallback == nil {
		return errors.New("no delivery path for session")
	}
	return p.fallback.SendPrompt(ctx, sessionID, prompt)
}
