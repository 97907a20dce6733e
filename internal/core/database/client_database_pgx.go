package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/markdave123-py/coursechat/internal/config"
	"github.com/markdave123-py/coursechat/internal/core"
	"github.com/markdave123-py/coursechat/internal/models"
)

const uniqueViolation = "23505"

type DatabaseClient struct {
	db *sql.DB
}

var _ core.DbClient = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	dsn, err := buildDSN(cfg.DatabaseURL, cfg.SslCertPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// buildDSN appends verify-ca SSL parameters when a root certificate is configured.
func buildDSN(databaseURL, sslCertPath string) (string, error) {
	if databaseURL == "" {
		return "", fmt.Errorf("DATABASE_URL is empty")
	}
	if sslCertPath == "" {
		return databaseURL, nil
	}
	if _, err := os.Stat(sslCertPath); err != nil {
		return "", fmt.Errorf("ssl cert not accessible at %q: %w", sslCertPath, err)
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	q := u.Query()
	q.Set("sslmode", "verify-ca")
	q.Set("sslrootcert", sslCertPath)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := c.db.QueryRowContext(ctx, q, user.Name, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	return mapWriteError(err)
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, name, email, password_hash, created_at
		FROM users WHERE email = $1
	`
	return c.scanUser(c.db.QueryRowContext(ctx, q, email))
}

func (c *DatabaseClient) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	const q = `
		SELECT id, name, email, password_hash, created_at
		FROM users WHERE id = $1
	`
	return c.scanUser(c.db.QueryRowContext(ctx, q, id))
}

func (c *DatabaseClient) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// courses

const courseColumns = `id, course_code, title, instructors`

func (c *DatabaseClient) CreateCourse(ctx context.Context, course *models.Course) error {
	if course == nil {
		return errors.New("nil course")
	}
	const q = `
		INSERT INTO courses (course_code, title, instructors)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := c.db.QueryRowContext(ctx, q, course.CourseCode, course.Title, course.Instructors).Scan(&course.ID)
	return mapWriteError(err)
}

func (c *DatabaseClient) ListCourses(ctx context.Context) ([]models.Course, error) {
	const q = `SELECT ` + courseColumns + ` FROM courses ORDER BY id`
	return c.queryCourses(ctx, q)
}

// SearchCourses matches query case-insensitively against code, title and instructors.
func (c *DatabaseClient) SearchCourses(ctx context.Context, query string) ([]models.Course, error) {
	const q = `
		SELECT ` + courseColumns + `
		FROM courses
		WHERE course_code ILIKE $1 OR title ILIKE $1 OR instructors ILIKE $1
		ORDER BY id
	`
	return c.queryCourses(ctx, q, "%"+query+"%")
}

func (c *DatabaseClient) GetCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	const q = `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	return scanCourse(c.db.QueryRowContext(ctx, q, id))
}

func (c *DatabaseClient) GetCourseByCode(ctx context.Context, code string) (*models.Course, error) {
	const q = `SELECT ` + courseColumns + ` FROM courses WHERE course_code = $1`
	return scanCourse(c.db.QueryRowContext(ctx, q, code))
}

func (c *DatabaseClient) UpdateCourse(ctx context.Context, course *models.Course) error {
	if course == nil {
		return errors.New("nil course")
	}
	const q = `
		UPDATE courses
		SET course_code = $2, title = $3, instructors = $4
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, course.ID, course.CourseCode, course.Title, course.Instructors)
	return affected(res, mapWriteError(err))
}

func (c *DatabaseClient) DeleteCourse(ctx context.Context, id int64) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	return affected(res, err)
}

func (c *DatabaseClient) queryCourses(ctx context.Context, q string, args ...any) ([]models.Course, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Course{}
	for rows.Next() {
		var co models.Course
		if err := rows.Scan(&co.ID, &co.CourseCode, &co.Title, &co.Instructors); err != nil {
			return nil, err
		}
		out = append(out, co)
	}
	return out, rows.Err()
}

func scanCourse(row *sql.Row) (*models.Course, error) {
	var co models.Course
	err := row.Scan(&co.ID, &co.CourseCode, &co.Title, &co.Instructors)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &co, nil
}

// materials

const materialColumns = `id, course_id, title, type, description, role, score, file_link, user_id`

type scanner interface {
	Scan(dest ...any) error
}

func (c *DatabaseClient) CreateMaterial(ctx context.Context, m *models.Material) error {
	if m == nil {
		return errors.New("nil material")
	}
	const q = `
		INSERT INTO course_materials
			(course_id, title, type, description, role, score, file_link, user_id)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, NULLIF($8, 0))
		RETURNING id
	`
	err := c.db.QueryRowContext(ctx, q,
		m.CourseID, m.Title, m.Type, m.Description, m.Role, m.Score, m.FileLink, m.UserID,
	).Scan(&m.ID)
	return mapWriteError(err)
}

func (c *DatabaseClient) ListMaterials(ctx context.Context) ([]models.Material, error) {
	const q = `SELECT ` + materialColumns + ` FROM course_materials ORDER BY id`
	return c.queryMaterials(ctx, q)
}

func (c *DatabaseClient) ListMaterialsByCourse(ctx context.Context, courseID int64) ([]models.Material, error) {
	const q = `SELECT ` + materialColumns + ` FROM course_materials WHERE course_id = $1 ORDER BY id`
	return c.queryMaterials(ctx, q, courseID)
}

func (c *DatabaseClient) GetMaterialByID(ctx context.Context, id int64) (*models.Material, error) {
	const q = `SELECT ` + materialColumns + ` FROM course_materials WHERE id = $1`
	m, err := scanMaterial(c.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (c *DatabaseClient) UpdateMaterial(ctx context.Context, m *models.Material) error {
	if m == nil {
		return errors.New("nil material")
	}
	const q = `
		UPDATE course_materials
		SET course_id = $2, title = $3, type = $4, description = $5,
		    role = $6, score = $7, file_link = $8
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q,
		m.ID, m.CourseID, m.Title, m.Type, m.Description, m.Role, m.Score, m.FileLink)
	return affected(res, mapWriteError(err))
}

func (c *DatabaseClient) UpdateMaterialFileLink(ctx context.Context, id int64, fileLink string) error {
	res, err := c.db.ExecContext(ctx, `UPDATE course_materials SET file_link = $2 WHERE id = $1`, id, fileLink)
	return affected(res, err)
}

func (c *DatabaseClient) DeleteMaterial(ctx context.Context, id int64) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM course_materials WHERE id = $1`, id)
	return affected(res, err)
}

func (c *DatabaseClient) queryMaterials(ctx context.Context, q string, args ...any) ([]models.Material, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Material{}
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func scanMaterial(row scanner) (*models.Material, error) {
	var (
		m      models.Material
		userID sql.NullInt64
	)
	if err := row.Scan(&m.ID, &m.CourseID, &m.Title, &m.Type, &m.Description,
		&m.Role, &m.Score, &m.FileLink, &userID); err != nil {
		return nil, err
	}
	m.UserID = userID.Int64
	return &m, nil
}

// affected turns a zero-row mutation into core.ErrNotFound.
func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", core.ErrConflict, pgErr.ConstraintName)
	}
	return err
}
