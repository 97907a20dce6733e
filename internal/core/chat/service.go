// Package chat answers questions grounded in a course's stored materials.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/coursechat/internal/core"
	"github.com/markdave123-py/coursechat/internal/core/extraction"
	"github.com/markdave123-py/coursechat/internal/core/fetcher"
	"github.com/markdave123-py/coursechat/internal/models"
	"github.com/markdave123-py/coursechat/internal/observability/metrics"
)

// MaterialStore is the part of core.DbClient the chat flow reads.
type MaterialStore interface {
	GetCourseByID(ctx context.Context, id int64) (*models.Course, error)
	GetMaterialByID(ctx context.Context, id int64) (*models.Material, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, link string) (*fetcher.Response, error)
}

type TextExtractor interface {
	Extract(data []byte, format extraction.Format) (string, error)
}

type Options struct {
	Workers       int
	InlineChars   int
	DeleteTimeout time.Duration
}

type Result struct {
	Response      string  `json:"response"`
	MaterialsUsed []int64 `json:"materials_used"`
}

type Service struct {
	store     MaterialStore
	fetcher   Fetcher
	extractor TextExtractor
	ai        core.AIClient
	opts      Options
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewService builds the chat flow. A nil ai makes every Chat call fail with
// ErrServiceUnavailable.
func NewService(store MaterialStore, f Fetcher, x TextExtractor, ai core.AIClient, opts Options, m *metrics.Metrics, logger *zap.Logger) *Service {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.InlineChars <= 0 {
		opts.InlineChars = 5000
	}
	if opts.DeleteTimeout <= 0 {
		opts.DeleteTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		fetcher:   f,
		extractor: x,
		ai:        ai,
		opts:      opts,
		metrics:   m,
		logger:    logger.Named("chat"),
	}
}

// Chat answers message using the requested materials of courseID as context.
// Every file uploaded for the request is deleted before Chat returns.
func (s *Service) Chat(ctx context.Context, courseID int64, materialIDs []int64, message string) (*Result, error) {
	const op = "chat"

	if strings.TrimSpace(message) == "" {
		return nil, wrapError(op, ErrInvalidRequest, errors.New("message is empty"))
	}
	if s.ai == nil {
		return nil, wrapError(op, ErrServiceUnavailable, errors.New("generative AI client is not configured"))
	}

	course, err := s.store.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: load course %d: %w", op, courseID, err)
	}
	if course == nil {
		return nil, wrapError(op, ErrCourseNotFound, fmt.Errorf("course with id %d not found", courseID))
	}

	sess := newSession(s.ai, s.opts.DeleteTimeout, s.metrics, s.logger)
	defer sess.release(ctx)

	items, used, err := s.resolve(ctx, courseID, materialIDs, sess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(items) == 0 {
		return nil, wrapError(op, ErrNoUsableMaterials,
			fmt.Errorf("no valid materials with extractable content among %d requested", len(materialIDs)))
	}

	text, err := s.ai.Generate(ctx, assemble(items, message))
	s.metrics.ObserveGeneration(err)
	if err != nil {
		return nil, wrapError(op, ErrGenerationFailed, err)
	}

	s.logger.Info("chat answered",
		zap.Int64("course_id", courseID),
		zap.Int64s("materials_used", used),
		zap.Int("context_items", len(items)),
	)
	return &Result{Response: text, MaterialsUsed: used}, nil
}
