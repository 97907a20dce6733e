package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/coursechat/internal/core/chat"
	"github.com/markdave123-py/coursechat/internal/services"
)

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, detail string) {
	writeJSON(w, status, errorResponse{Error: kind, Detail: detail})
}

// writeServiceError maps service and chat error kinds to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	status, kind := mapErrorToHTTPStatus(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		detail = "internal server error"
	}
	writeError(w, status, kind, detail)
}

func mapErrorToHTTPStatus(err error) (int, string) {
	switch {
	case errors.Is(err, chat.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, chat.KindOf(err)
	case errors.Is(err, chat.ErrCourseNotFound):
		return http.StatusNotFound, chat.KindOf(err)
	case errors.Is(err, chat.ErrNoUsableMaterials), errors.Is(err, chat.ErrInvalidRequest):
		return http.StatusBadRequest, chat.KindOf(err)
	case errors.Is(err, chat.ErrGenerationFailed):
		return http.StatusBadGateway, chat.KindOf(err)
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, services.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid "+name)
		return 0, false
	}
	return id, true
}
