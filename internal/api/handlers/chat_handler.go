package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	middleware "github.com/markdave123-py/coursechat/internal/api/middlewares"
	"github.com/markdave123-py/coursechat/internal/core/chat"
)

type ChatService interface {
	Chat(ctx context.Context, courseID int64, materialIDs []int64, message string) (*chat.Result, error)
}

type ChatHandler struct {
	chat   ChatService
	logger *zap.Logger
}

func NewChatHandler(svc ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: svc, logger: logger.Named("chat_handler")}
}

type ChatRequest struct {
	CourseID    int64   `json:"course_id"`
	MaterialIDs []int64 `json:"material_ids"`
	Message     string  `json:"message"`
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	res, err := h.chat.Chat(r.Context(), req.CourseID, req.MaterialIDs, req.Message)
	if err != nil {
		status, kind := mapErrorToHTTPStatus(err)
		h.logger.Warn("chat failed",
			zap.Int64("user_id", userID),
			zap.Int64("course_id", req.CourseID),
			zap.String("kind", kind),
			zap.Int("status", status),
			zap.Error(err),
		)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
