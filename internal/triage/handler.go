package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vaidhya-backend/internal/agent"
	"vaidhya-backend/internal/conversation"
	"vaidhya-backend/internal/logger"
)

// ReportRenderer produces a downloadable summary document for a session.
type ReportRenderer interface {
	Render(ctx context.Context, sessionID string) ([]byte, error)
}

type Handler struct {
	svc     Service
	reports ReportRenderer
	log     logger.Logger
}

func NewHandler(svc Service, reports ReportRenderer, log logger.Logger) *Handler {
	return &Handler{svc: svc, reports: reports, log: log}
}

type ChatRequest struct {
	Message      string `json:"message"`
	SessionID    string `json:"sessionId"`
	LanguageCode string `json:"languageCode"`
}

type ChatResponse struct {
	SessionID      string               `json:"sessionId"`
	Messages       []agent.ReplyMessage `json:"messages"`
	TargetLanguage string               `json:"targetLanguage"`
	Success        bool                 `json:"success"`
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	reply := h.svc.Respond(r.Context(), sessionID, req.Message, req.LanguageCode)

	h.writeJSON(w, ChatResponse{
		SessionID:      sessionID,
		Messages:       reply.Messages,
		TargetLanguage: agent.NormalizeLanguageCode(req.LanguageCode),
		Success:        true,
	})
}

type HistoryResponse struct {
	SessionID string                 `json:"sessionId"`
	Messages  []conversation.Message `json:"messages"`
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	messages := h.svc.History(r.Context(), sessionID)
	h.writeJSON(w, HistoryResponse{SessionID: sessionID, Messages: messages})
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	h.svc.Clear(r.Context(), sessionID)
	h.writeJSON(w, map[string]bool{"success": true})
}

func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	pdfBytes, err := h.reports.Render(r.Context(), sessionID)
	if err != nil {
		h.log.Error("report generation failed",
			logger.String("session_id", sessionID), logger.Err(err))
		http.Error(w, "Report generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="triage_%s.pdf"`, sessionID))
	w.Write(pdfBytes)
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to encode response", logger.Err(err))
	}
}

// RegisterRoutes mounts the triage API on the given router.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/chat", h.HandleChat)
	r.Get("/session/{id}/history", h.HandleHistory)
	r.Post("/session/{id}/clear", h.HandleClear)
	r.Get("/session/{id}/report", h.HandleReport)
}
