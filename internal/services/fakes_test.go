package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/markdave123-py/coursechat/internal/core"
	"github.com/markdave123-py/coursechat/internal/models"
)

type memDB struct {
	mu        sync.Mutex
	nextID    int64
	users     map[int64]*models.User
	courses   map[int64]*models.Course
	materials map[int64]*models.Material

	fileLinkErr error
}

var _ core.DbClient = (*memDB)(nil)

func newMemDB() *memDB {
	return &memDB{
		users:     map[int64]*models.User{},
		courses:   map[int64]*models.Course{},
		materials: map[int64]*models.Material{},
	}
}

func (d *memDB) id() int64 {
	d.nextID++
	return d.nextID
}

func (d *memDB) CreateUser(_ context.Context, u *models.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u.ID = d.id()
	cp := *u
	d.users[u.ID] = &cp
	return nil
}

func (d *memDB) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (d *memDB) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (d *memDB) CreateCourse(_ context.Context, c *models.Course) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c.ID = d.id()
	cp := *c
	d.courses[c.ID] = &cp
	return nil
}

func (d *memDB) ListCourses(_ context.Context) ([]models.Course, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []models.Course{}
	for _, c := range d.courses {
		out = append(out, *c)
	}
	return out, nil
}

func (d *memDB) SearchCourses(_ context.Context, q string) ([]models.Course, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	q = strings.ToLower(q)
	out := []models.Course{}
	for _, c := range d.courses {
		if strings.Contains(strings.ToLower(c.CourseCode+c.Title+c.Instructors), q) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (d *memDB) GetCourseByID(_ context.Context, id int64) (*models.Course, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (d *memDB) GetCourseByCode(_ context.Context, code string) (*models.Course, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.courses {
		if c.CourseCode == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (d *memDB) UpdateCourse(_ context.Context, c *models.Course) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.courses[c.ID]; !ok {
		return core.ErrNotFound
	}
	cp := *c
	d.courses[c.ID] = &cp
	return nil
}

func (d *memDB) DeleteCourse(_ context.Context, id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.courses[id]; !ok {
		return core.ErrNotFound
	}
	delete(d.courses, id)
	return nil
}

func (d *memDB) CreateMaterial(_ context.Context, m *models.Material) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	m.ID = d.id()
	cp := *m
	d.materials[m.ID] = &cp
	return nil
}

func (d *memDB) ListMaterials(_ context.Context) ([]models.Material, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []models.Material{}
	for _, m := range d.materials {
		out = append(out, *m)
	}
	return out, nil
}

func (d *memDB) ListMaterialsByCourse(_ context.Context, courseID int64) ([]models.Material, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []models.Material{}
	for _, m := range d.materials {
		if m.CourseID == courseID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (d *memDB) GetMaterialByID(_ context.Context, id int64) (*models.Material, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if m, ok := d.materials[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (d *memDB) UpdateMaterial(_ context.Context, m *models.Material) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.materials[m.ID]; !ok {
		return core.ErrNotFound
	}
	cp := *m
	d.materials[m.ID] = &cp
	return nil
}

func (d *memDB) UpdateMaterialFileLink(_ context.Context, id int64, link string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fileLinkErr != nil {
		return d.fileLinkErr
	}
	m, ok := d.materials[id]
	if !ok {
		return core.ErrNotFound
	}
	m.FileLink = link
	return nil
}

func (d *memDB) DeleteMaterial(_ context.Context, id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.materials[id]; !ok {
		return core.ErrNotFound
	}
	delete(d.materials, id)
	return nil
}

func (d *memDB) Close() error { return nil }

type memObjects struct {
	bucket, key, contentType string
	data                     []byte
	err                      error
	deleted                  []string
}

func (o *memObjects) UploadFile(_ context.Context, bucket, key string, data io.Reader, contentType string) (string, error) {
	if o.err != nil {
		return "", o.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, data); err != nil {
		return "", err
	}
	o.bucket, o.key, o.contentType, o.data = bucket, key, contentType, buf.Bytes()
	return fmt.Sprintf("https://%s.s3.us-east-2.amazonaws.com/%s", bucket, key), nil
}

func (o *memObjects) DeleteFile(ctx context.Context, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.deleted = append(o.deleted, bucket+"/"+key)
	return nil
}

func (o *memObjects) GetFile(context.Context, string, string) ([]byte, error) {
	return o.data, nil
}
