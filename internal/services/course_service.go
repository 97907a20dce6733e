package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/markdave123-py/coursechat/internal/core"
	"github.com/markdave123-py/coursechat/internal/models"
)

type CourseService struct {
	db core.DbClient
}

func NewCourseService(db core.DbClient) *CourseService {
	return &CourseService{db: db}
}

func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	return s.db.ListCourses(ctx)
}

// Search matches query against course code, title and instructors.
func (s *CourseService) Search(ctx context.Context, query string) ([]models.Course, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.db.ListCourses(ctx)
	}
	return s.db.SearchCourses(ctx, query)
}

func (s *CourseService) Get(ctx context.Context, id int64) (*models.Course, error) {
	c, err := s.db.GetCourseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: course with id %d", ErrNotFound, id)
	}
	return c, nil
}

func (s *CourseService) Create(ctx context.Context, c *models.Course) error {
	if err := validateCourse(c); err != nil {
		return err
	}
	if err := s.ensureCodeFree(ctx, c.CourseCode, 0); err != nil {
		return err
	}
	return s.db.CreateCourse(ctx, c)
}

func (s *CourseService) Update(ctx context.Context, c *models.Course) error {
	if err := validateCourse(c); err != nil {
		return err
	}
	if _, err := s.Get(ctx, c.ID); err != nil {
		return err
	}
	if err := s.ensureCodeFree(ctx, c.CourseCode, c.ID); err != nil {
		return err
	}
	return s.db.UpdateCourse(ctx, c)
}

func (s *CourseService) Delete(ctx context.Context, id int64) error {
	if err := s.db.DeleteCourse(ctx, id); err != nil {
		return fmt.Errorf("delete course %d: %w", id, err)
	}
	return nil
}

func (s *CourseService) ensureCodeFree(ctx context.Context, code string, selfID int64) error {
	existing, err := s.db.GetCourseByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("lookup course code: %w", err)
	}
	if existing != nil && existing.ID != selfID {
		return fmt.Errorf("%w: course with code %s", ErrConflict, code)
	}
	return nil
}

func validateCourse(c *models.Course) error {
	if c == nil {
		return fmt.Errorf("%w: empty course", ErrInvalidInput)
	}
	c.CourseCode = strings.TrimSpace(c.CourseCode)
	c.Title = strings.TrimSpace(c.Title)
	if c.CourseCode == "" {
		return fmt.Errorf("%w: course_code is required", ErrInvalidInput)
	}
	return nil
}
