package core

import (
	"context"
	"errors"
	"io"

	"github.com/markdave123-py/coursechat/internal/models"
)

var (
	// ErrNotFound is returned by mutating DbClient calls that matched no row.
	// Lookups return (nil, nil) instead.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a unique constraint.
	ErrConflict = errors.New("record already exists")
)

// DbClient defines all persistence operations your services will need.
// It abstracts Postgres so higher layers never depend on a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	CreateCourse(ctx context.Context, course *models.Course) error
	ListCourses(ctx context.Context) ([]models.Course, error)
	SearchCourses(ctx context.Context, query string) ([]models.Course, error)
	GetCourseByID(ctx context.Context, id int64) (*models.Course, error)
	GetCourseByCode(ctx context.Context, code string) (*models.Course, error)
	UpdateCourse(ctx context.Context, course *models.Course) error
	DeleteCourse(ctx context.Context, id int64) error

	CreateMaterial(ctx context.Context, material *models.Material) error
	ListMaterials(ctx context.Context) ([]models.Material, error)
	ListMaterialsByCourse(ctx context.Context, courseID int64) ([]models.Material, error)
	GetMaterialByID(ctx context.Context, id int64) (*models.Material, error)
	UpdateMaterial(ctx context.Context, material *models.Material) error
	UpdateMaterialFileLink(ctx context.Context, id int64, fileLink string) error
	DeleteMaterial(ctx context.Context, id int64) error

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
}
