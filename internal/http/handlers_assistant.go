package http

import (
	"errors"
	"net/http"
	"strings"

	applog "payroll/internal/log"
)

var errEmptyQuestion = errors.New("empty question")

type assistantResponse struct {
	Reply  string `json:"reply"`
	Shared bool   `json:"shared,omitempty"`
}

// handleAssistant forwards the question with the full ledger to the
// assistant. Concurrent submissions from one client share a single call.
func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	var req assistantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpAsk, err)
		return
	}
	question := sanitizeInput(req.Question)
	if question == "" {
		UnprocessableEntityError("اكتب سؤالك أولاً", errEmptyQuestion.Error()).Write(w)
		return
	}

	snap := s.store.Snapshot()
	origin := strings.TrimSpace(s.clientIP(r))
	reply, shared := s.bridge.AskFrom(r.Context(), origin, question, snap.Employees, snap.Withdrawals)
	if shared {
		s.logger.InfoContext(r.Context(), "Assistant request joined pending call", applog.FieldClientIP, origin)
	}
	NewResponse().JSON(assistantResponse{Reply: reply, Shared: shared}).Write(w)
}
