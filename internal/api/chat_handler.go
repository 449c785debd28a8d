// File path: internal/api/chat_handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/raglens/raglens/internal/assembler"
	"github.com/raglens/raglens/internal/common"
	"github.com/raglens/raglens/internal/common/telemetry"
	"github.com/raglens/raglens/internal/llm"
	"github.com/raglens/raglens/internal/retriever"
)

// handleChat answers a question grounded in retrieved chunks. With
// "stream": true the response is server-sent events: one "delta" event per
// output fragment, then a single "citations" event, then "done".
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	started := time.Now()
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("question required"))
		return
	}
	mode, err := retriever.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	top, err := retriever.CoerceTopK(req.Top)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	logger.Info("api: chat request", "session", sessionID, "mode", mode, "top", top)

	sources, err := s.orchestrator.Retriever().Retrieve(ctx, req.Question, mode, top)
	if err != nil {
		var inputErr *retriever.InputError
		if errors.As(err, &inputErr) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	conv, err := s.loadConversation(ctx, sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	conv.SetSystem()
	history := conv.Turns()
	// The grounding prompt already carries the prior turns, so the model call
	// sends only the system turn and the assembled prompt.
	prompt := assembler.BuildPrompt(req.Question, history, sources)
	messages := []llm.Message{history[0], {Role: "user", Content: prompt}}

	var answer string
	if req.Stream {
		answer, err = s.streamAnswer(w, r, sessionID, messages, sources)
		if err != nil {
			logger.Error("api: chat stream failed", "session", sessionID, "error", err)
			return
		}
	} else {
		answer, err = s.provider.Chat(ctx, messages, llm.ChatOptions{})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	s.persistExchange(r, sessionID, req.Question, answer, sources)
	telemetry.RecordChat(time.Since(started))

	if req.Stream {
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: sessionID,
		Answer:    answer,
		Citations: assembler.ResolveCitations(answer, sources),
		Provider:  s.provider.Name(),
	})
}

// streamAnswer writes the completion as SSE and returns the full answer.
func (s *Server) streamAnswer(w http.ResponseWriter, r *http.Request, sessionID string, messages []llm.Message, sources []retriever.Result) (string, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		err := fmt.Errorf("streaming unsupported")
		writeError(w, http.StatusInternalServerError, err)
		return "", err
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	emit := func(event string, payload interface{}) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	answer, err := s.provider.ChatStream(r.Context(), messages, llm.ChatOptions{}, func(delta string) error {
		return emit("delta", map[string]string{"text": delta})
	})
	if err != nil {
		_ = emit("error", map[string]string{"error": err.Error()})
		return "", err
	}
	if err := emit("citations", assembler.ResolveCitations(answer, sources)); err != nil {
		return "", err
	}
	if err := emit("done", map[string]string{"sessionId": sessionID}); err != nil {
		return "", err
	}
	return answer, nil
}

// loadConversation rebuilds the session history from the catalog.
func (s *Server) loadConversation(ctx context.Context, sessionID string) (*assembler.Conversation, error) {
	turns, err := s.orchestrator.Catalog().TurnsForSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", sessionID, err)
	}
	conv := assembler.NewConversation()
	for _, turn := range turns {
		conv.Append(turn.Role, turn.Content)
	}
	return conv, nil
}

// persistExchange records the question/answer pair and an evaluation row.
// Persistence failures are logged, not surfaced, since the answer already
// reached the client.
func (s *Server) persistExchange(r *http.Request, sessionID, question, answer string, sources []retriever.Result) {
	logger := common.Logger()
	ctx := r.Context()
	catalog := s.orchestrator.Catalog()
	if err := catalog.AppendTurn(ctx, sessionID, "user", question); err != nil {
		logger.Error("api: persist user turn failed", "session", sessionID, "error", err)
		return
	}
	if err := catalog.AppendTurn(ctx, sessionID, "assistant", answer); err != nil {
		logger.Error("api: persist assistant turn failed", "session", sessionID, "error", err)
		return
	}
	labels := make([]string, 0, len(sources))
	for _, src := range sources {
		labels = append(labels, src.Label())
	}
	if err := catalog.RecordEval(ctx, sessionID, question, answer, strings.Join(labels, "\n")); err != nil {
		logger.Error("api: record eval failed", "session", sessionID, "error", err)
	}
}

// handleConversation returns the persisted turns for one session.
func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session")
	turns, err := s.orchestrator.Catalog().TurnsForSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": sessionID,
		"turns":     turns,
	})
}
