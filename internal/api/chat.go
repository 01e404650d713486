package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type sessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// chat handles POST /chat: one user message in, a Server-Sent Events stream
// of reply fragments out, terminated by a done marker.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: %v", err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	sess := s.sessions.Get(req.SessionID)
	fragments, err := sess.Send(r.Context(), req.Message)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error processing chat: %v", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	for fragment := range fragments {
		writeSSE(w, map[string]any{"chunk": fragment.Text})
		if flusher != nil {
			flusher.Flush()
		}
	}
	writeSSE(w, map[string]any{"done": true})
	if flusher != nil {
		flusher.Flush()
	}
}

func (s *Server) resetChat(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	_ = json.NewDecoder(r.Body).Decode(&req) // body is optional

	s.sessions.Get(req.SessionID).Reset()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Conversation reset successfully"})
}

func (s *Server) chatHistory(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(r.URL.Query().Get("session_id"))
	writeJSON(w, http.StatusOK, map[string]any{"history": sess.History()})
}

func (s *Server) newSession(w http.ResponseWriter, r *http.Request) {
	id := s.sessions.Create()
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

func writeSSE(w io.Writer, payload any) {
	data, _ := json.Marshal(payload)
	fmt.Fprintf(w, "data: %s\n\n", data)
}
