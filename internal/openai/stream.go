package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Stream event types emitted by the responses endpoint. Text and refusal
// deltas are both treated as reply fragments by callers.
const (
	EventTextDelta    = "response.output_text.delta"
	EventRefusalDelta = "response.refusal.delta"
	EventError        = "error"
	EventCompleted    = "response.completed"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Tool struct {
	Type              string        `json:"type"`
	VectorStoreIDs    []string      `json:"vector_store_ids,omitempty"`
	UserLocation      *UserLocation `json:"user_location,omitempty"`
	SearchContextSize string        `json:"search_context_size,omitempty"`
}

type UserLocation struct {
	Type string `json:"type"`
}

// StreamEvent is one decoded event from the responses stream. Err is set only
// for EventError.
type StreamEvent struct {
	Type  string
	Delta string
	Err   error
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type inputItem struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type textFormat struct {
	Format struct {
		Type string `json:"type"`
	} `json:"format"`
}

type responsesRequest struct {
	Model           string      `json:"model"`
	Input           []inputItem `json:"input"`
	Text            textFormat  `json:"text"`
	Tools           []Tool      `json:"tools,omitempty"`
	ToolChoice      string      `json:"tool_choice"`
	Temperature     float64     `json:"temperature"`
	TopP            float64     `json:"top_p"`
	MaxOutputTokens int         `json:"max_output_tokens"`
	Stream          bool        `json:"stream"`
	Store           bool        `json:"store"`
}

type wireEvent struct {
	Type  string `json:"type"`
	Delta string `json:"delta"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// StreamResponse opens a streaming completion call carrying the full message
// history and toolset. Events arrive on the returned channel in wire order;
// the channel is closed on completion, error, or context cancellation.
func (c *Client) StreamResponse(ctx context.Context, messages []Message, tools []Tool) (<-chan StreamEvent, error) {
	input := make([]inputItem, 0, len(messages))
	for _, m := range messages {
		blockType := "input_text"
		if m.Role == "assistant" {
			blockType = "output_text"
		}
		input = append(input, inputItem{
			Role:    m.Role,
			Content: []contentBlock{{Type: blockType, Text: m.Content}},
		})
	}

	reqBody := responsesRequest{
		Model:           c.model,
		Input:           input,
		Tools:           tools,
		ToolChoice:      "auto",
		Temperature:     0.6,
		TopP:            1,
		MaxOutputTokens: 2048,
		Stream:          true,
		Store:           true,
	}
	reqBody.Text.Format.Type = "text"

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, apiError(resp.StatusCode, respBody)
	}

	events := make(chan StreamEvent)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		emit := func(ev StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "" || payload == "[DONE]" {
				return
			}

			var ev wireEvent
			if err := json.Unmarshal([]byte(payload), &ev); err != nil {
				emit(StreamEvent{Type: EventError, Err: fmt.Errorf("decode event: %w", err)})
				return
			}

			switch ev.Type {
			case EventTextDelta, EventRefusalDelta:
				if !emit(StreamEvent{Type: ev.Type, Delta: ev.Delta}) {
					return
				}
			case EventError, "response.error", "response.failed":
				streamErr := fmt.Errorf("remote stream error")
				if ev.Error != nil {
					streamErr = fmt.Errorf("remote stream error: %s", ev.Error.Message)
				}
				emit(StreamEvent{Type: EventError, Err: streamErr})
				return
			case EventCompleted:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			emit(StreamEvent{Type: EventError, Err: fmt.Errorf("read stream: %w", err)})
		}
	}()

	return events, nil
}
