package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrServiceUnavailable means no generation attempt was made.
	ErrServiceUnavailable = errors.New("generative AI service unavailable")
	ErrInvalidRequest     = errors.New("invalid chat request")
	ErrCourseNotFound     = errors.New("course not found")
	ErrNoUsableMaterials  = errors.New("no usable materials")
	// ErrGenerationFailed means the generation call was made and returned an error.
	ErrGenerationFailed = errors.New("generation failed")
)

// wrapError keeps the error kind matchable with errors.Is and adds the cause.
func wrapError(op string, kind, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// KindOf names the caller-visible error kind of err.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrServiceUnavailable):
		return "service_unavailable"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrCourseNotFound):
		return "course_not_found"
	case errors.Is(err, ErrNoUsableMaterials):
		return "no_usable_materials"
	case errors.Is(err, ErrGenerationFailed):
		return "generation_failed"
	default:
		return "internal"
	}
}
