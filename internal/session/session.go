package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/coachhq/coachd/internal/openai"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyMessage is returned by Send for blank input.
var ErrEmptyMessage = errors.New("message must not be empty")

// Turn is one message in a conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Fragment is one incremental piece of a streamed reply. Err is non-nil when
// the stream failed; Text then carries a diagnostic instead of reply content.
type Fragment struct {
	Text string
	Err  error
}

// Streamer is the remote completion service consumed by sessions.
type Streamer interface {
	StreamResponse(ctx context.Context, messages []openai.Message, tools []openai.Tool) (<-chan openai.StreamEvent, error)
}

// Session owns one linear conversation history. The first turn is always the
// system prompt; later turns alternate user/assistant. Sends on the same
// session are serialized internally so a second call cannot interleave its
// user turn before the first call's assistant turn lands.
type Session struct {
	llm   Streamer
	tools []openai.Tool

	sendMu sync.Mutex // held for the full duration of one Send
	mu     sync.Mutex // guards history
	history []Turn
}

func New(llm Streamer, vectorStoreID string) *Session {
	return &Session{
		llm:     llm,
		tools:   Tools(vectorStoreID),
		history: []Turn{{Role: RoleSystem, Content: SystemPrompt}},
	}
}

// Send appends a user turn and streams the assistant's reply as ordered
// fragments. The channel is closed after the last fragment. On success the
// combined reply is appended as a single assistant turn; on failure one
// diagnostic fragment is produced and no assistant turn is appended, leaving
// the user turn without a matching reply.
func (s *Session) Send(ctx context.Context, message string) (<-chan Fragment, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	s.sendMu.Lock()

	s.mu.Lock()
	s.history = append(s.history, Turn{Role: RoleUser, Content: message})
	messages := make([]openai.Message, len(s.history))
	for i, turn := range s.history {
		messages[i] = openai.Message{Role: turn.Role, Content: turn.Content}
	}
	s.mu.Unlock()

	out := make(chan Fragment)
	go func() {
		defer close(out)
		defer s.sendMu.Unlock()

		events, err := s.llm.StreamResponse(ctx, messages, s.tools)
		if err != nil {
			emit(ctx, out, Fragment{Text: "Error occurred: " + err.Error(), Err: err})
			return
		}

		var reply strings.Builder
		for ev := range events {
			switch ev.Type {
			case openai.EventTextDelta, openai.EventRefusalDelta:
				reply.WriteString(ev.Delta)
				if !emit(ctx, out, Fragment{Text: ev.Delta}) {
					return
				}
			case openai.EventError:
				emit(ctx, out, Fragment{Text: "Error: " + ev.Err.Error(), Err: ev.Err})
				return
			}
		}

		// A cancelled transport truncates the stream; treat it as a failed
		// send rather than recording a partial assistant turn.
		if ctx.Err() != nil || reply.Len() == 0 {
			return
		}

		// A Reset during the stream replaces the history. The reply lands
		// only if its own user turn is still the tail.
		s.mu.Lock()
		if n := len(s.history); n > 0 && s.history[n-1].Role == RoleUser && s.history[n-1].Content == message {
			s.history = append(s.history, Turn{Role: RoleAssistant, Content: reply.String()})
		}
		s.mu.Unlock()
	}()

	return out, nil
}

// Reset discards all turns except the system prompt.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = []Turn{{Role: RoleSystem, Content: SystemPrompt}}
}

// History returns a snapshot of the conversation so far.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

func emit(ctx context.Context, out chan<- Fragment, f Fragment) bool {
	select {
	case out <- f:
		return true
	case <-ctx.Done():
		return false
	}
}
