package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	middleware "github.com/markdave123-py/coursechat/internal/api/middlewares"
	"github.com/markdave123-py/coursechat/internal/models"
)

const maxUploadBytes = 50 << 20

type MaterialService interface {
	List(ctx context.Context) ([]models.Material, error)
	ListByCourse(ctx context.Context, courseID int64) ([]models.Material, error)
	Get(ctx context.Context, id int64) (*models.Material, error)
	Create(ctx context.Context, userID int64, m *models.Material) error
	Update(ctx context.Context, m *models.Material) error
	Delete(ctx context.Context, id int64) error
	Upload(ctx context.Context, materialID int64, filename, contentType string, data io.Reader) (*models.Material, error)
}

type MaterialHandler struct {
	materials MaterialService
	logger    *zap.Logger
}

func NewMaterialHandler(materials MaterialService, logger *zap.Logger) *MaterialHandler {
	return &MaterialHandler{materials: materials, logger: logger.Named("material_handler")}
}

type materialRequest struct {
	CourseID    int64  `json:"course_id"`
	Title       string `json:"title"`
	Type        int    `json:"type"`
	Description string `json:"description"`
	Role        bool   `json:"role"`
	Score       int    `json:"score"`
	FileLink    string `json:"file_link"`
}

func (req materialRequest) toModel(id int64) *models.Material {
	return &models.Material{
		ID:          id,
		CourseID:    req.CourseID,
		Title:       req.Title,
		Type:        req.Type,
		Description: req.Description,
		Role:        req.Role,
		Score:       req.Score,
		FileLink:    req.FileLink,
	}
}

// List returns all materials, or one course's when ?course_id= is set.
func (h *MaterialHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		materials []models.Material
		err       error
	)
	if raw := r.URL.Query().Get("course_id"); raw != "" {
		courseID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid_id", "invalid course_id")
			return
		}
		materials, err = h.materials.ListByCourse(r.Context(), courseID)
	} else {
		materials, err = h.materials.List(r.Context())
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, materials)
}

func (h *MaterialHandler) ListByCourse(w http.ResponseWriter, r *http.Request) {
	courseID, ok := pathID(w, r, "course_id")
	if !ok {
		return
	}
	materials, err := h.materials.ListByCourse(r.Context(), courseID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, materials)
}

func (h *MaterialHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	m, err := h.materials.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MaterialHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID, _ := middleware.UserIDFromContext(r.Context())
	m := req.toModel(0)
	if err := h.materials.Create(r.Context(), userID, m); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MaterialHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req materialRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m := req.toModel(id)
	if err := h.materials.Update(r.Context(), m); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, m)
}

func (h *MaterialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.materials.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upload stores the multipart "file" field and links it to the material.
func (h *MaterialHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_file", err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_file", "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	m, err := h.materials.Upload(r.Context(), id, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.logger.Warn("material upload failed", zap.Int64("material_id", id), zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
