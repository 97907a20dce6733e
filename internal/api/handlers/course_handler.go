package handlers

import (
	"context"
	"net/http"

	"github.com/markdave123-py/coursechat/internal/models"
)

type CourseService interface {
	List(ctx context.Context) ([]models.Course, error)
	Search(ctx context.Context, query string) ([]models.Course, error)
	Get(ctx context.Context, id int64) (*models.Course, error)
	Create(ctx context.Context, c *models.Course) error
	Update(ctx context.Context, c *models.Course) error
	Delete(ctx context.Context, id int64) error
}

type CourseHandler struct {
	courses CourseService
}

func NewCourseHandler(courses CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

type courseRequest struct {
	CourseCode  string `json:"course_code"`
	Title       string `json:"title"`
	Instructors string `json:"instructors"`
}

// List returns all courses, or those matching ?q= when present.
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		courses []models.Course
		err     error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		courses, err = h.courses.Search(r.Context(), q)
	} else {
		courses, err = h.courses.List(r.Context())
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

// Search matches ?q= against course code, title and instructors.
func (h *CourseHandler) Search(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	course, err := h.courses.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	course := &models.Course{CourseCode: req.CourseCode, Title: req.Title, Instructors: req.Instructors}
	if err := h.courses.Create(r.Context(), course); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, course)
}

func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req courseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	course := &models.Course{ID: id, CourseCode: req.CourseCode, Title: req.Title, Instructors: req.Instructors}
	if err := h.courses.Update(r.Context(), course); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, course)
}

func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.courses.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
