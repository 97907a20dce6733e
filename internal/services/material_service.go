package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markdave123-py/coursechat/internal/core"
	objectclient "github.com/markdave123-py/coursechat/internal/core/object-client"
	"github.com/markdave123-py/coursechat/internal/models"
)

const objectDeleteTimeout = 15 * time.Second

type MaterialService struct {
	db      core.DbClient
	storage core.ObjectClient
	bucket  string
	logger  *zap.Logger
}

// NewMaterialService accepts a nil storage; uploads then fail with
// ErrStorageUnavailable.
func NewMaterialService(db core.DbClient, storage core.ObjectClient, bucket string, logger *zap.Logger) *MaterialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaterialService{db: db, storage: storage, bucket: bucket, logger: logger}
}

func (s *MaterialService) List(ctx context.Context) ([]models.Material, error) {
	return s.db.ListMaterials(ctx)
}

func (s *MaterialService) ListByCourse(ctx context.Context, courseID int64) ([]models.Material, error) {
	if err := s.ensureCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.db.ListMaterialsByCourse(ctx, courseID)
}

func (s *MaterialService) Get(ctx context.Context, id int64) (*models.Material, error) {
	m, err := s.db.GetMaterialByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: material with id %d", ErrNotFound, id)
	}
	return m, nil
}

// Create stores m owned by userID after checking its course exists.
func (s *MaterialService) Create(ctx context.Context, userID int64, m *models.Material) error {
	if m == nil {
		return fmt.Errorf("%w: empty material", ErrInvalidInput)
	}
	if err := s.ensureCourse(ctx, m.CourseID); err != nil {
		return err
	}
	m.UserID = userID
	return s.db.CreateMaterial(ctx, m)
}

func (s *MaterialService) Update(ctx context.Context, m *models.Material) error {
	if m == nil {
		return fmt.Errorf("%w: empty material", ErrInvalidInput)
	}
	current, err := s.Get(ctx, m.ID)
	if err != nil {
		return err
	}
	if m.CourseID != current.CourseID {
		if err := s.ensureCourse(ctx, m.CourseID); err != nil {
			return err
		}
	}
	return s.db.UpdateMaterial(ctx, m)
}

// Delete removes the material row and then its stored object, if any.
func (s *MaterialService) Delete(ctx context.Context, id int64) error {
	m, err := s.db.GetMaterialByID(ctx, id)
	if err != nil {
		return fmt.Errorf("lookup material %d: %w", id, err)
	}
	if err := s.db.DeleteMaterial(ctx, id); err != nil {
		return fmt.Errorf("delete material %d: %w", id, err)
	}
	if m != nil {
		s.removeLinkedObject(ctx, m.FileLink)
	}
	return nil
}

// Upload stores the file in object storage and points the material's
// file_link at it.
func (s *MaterialService) Upload(ctx context.Context, materialID int64, filename, contentType string, data io.Reader) (*models.Material, error) {
	if s.storage == nil || s.bucket == "" {
		return nil, ErrStorageUnavailable
	}
	m, err := s.Get(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := objectKey(m.CourseID, m.ID, filename)
	url, err := s.storage.UploadFile(ctx, s.bucket, key, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload material %d: %w", m.ID, err)
	}
	if err := s.db.UpdateMaterialFileLink(ctx, m.ID, url); err != nil {
		s.removeObject(ctx, key)
		return nil, fmt.Errorf("update file link: %w", err)
	}

	previous := m.FileLink
	m.FileLink = url
	if previous != url {
		s.removeLinkedObject(ctx, previous)
	}
	return m, nil
}

// removeLinkedObject deletes the object behind link when it lives in our bucket.
// Links to other hosts are left alone.
func (s *MaterialService) removeLinkedObject(ctx context.Context, link string) {
	if s.storage == nil || link == "" {
		return
	}
	bucket, key, ok := objectclient.ParseS3URL(link)
	if !ok || bucket != s.bucket {
		return
	}
	s.removeObject(ctx, key)
}

// removeObject is best effort; failures are logged and never returned.
func (s *MaterialService) removeObject(ctx context.Context, key string) {
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), objectDeleteTimeout)
	defer cancel()
	if err := s.storage.DeleteFile(delCtx, s.bucket, key); err != nil {
		s.logger.Warn("failed to delete stored object",
			zap.String("bucket", s.bucket),
			zap.String("key", key),
			zap.Error(err))
	}
}

func (s *MaterialService) ensureCourse(ctx context.Context, courseID int64) error {
	c, err := s.db.GetCourseByID(ctx, courseID)
	if err != nil {
		return fmt.Errorf("lookup course: %w", err)
	}
	if c == nil {
		return fmt.Errorf("%w: course with id %d", ErrNotFound, courseID)
	}
	return nil
}

// objectKey creates a consistent S3 key layout. The uploaded file name only
// contributes its extension.
func objectKey(courseID, materialID int64, filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(strings.TrimSpace(filename))))
	return path.Join("courses", strconv.FormatInt(courseID, 10), "materials",
		strconv.FormatInt(materialID, 10), uuid.NewString()+ext)
}
