package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/markdave123-py/coursechat/internal/core"
	"github.com/markdave123-py/coursechat/internal/core/extraction"
	"github.com/markdave123-py/coursechat/internal/core/fetcher"
	"github.com/markdave123-py/coursechat/internal/models"
)

const courseID int64 = 7

type fakeStore struct {
	mu        sync.Mutex
	courses   map[int64]*models.Course
	materials map[int64]*models.Material
	errs      map[int64]error
	calls     int
}

func (s *fakeStore) GetCourseByID(_ context.Context, id int64) (*models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.courses[id], nil
}

func (s *fakeStore) GetMaterialByID(_ context.Context, id int64) (*models.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err := s.errs[id]; err != nil {
		return nil, err
	}
	return s.materials[id], nil
}

type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]*fetcher.Response
	errs      map[string]error
	calls     []string
}

func (f *fakeFetcher) Fetch(_ context.Context, link string) (*fetcher.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, link)
	if err := f.errs[link]; err != nil {
		return nil, err
	}
	if resp, ok := f.responses[link]; ok {
		return resp, nil
	}
	return nil, &fetcher.HTTPStatusError{URL: link, StatusCode: http.StatusNotFound, Status: "404 Not Found"}
}

type fakeAI struct {
	uploadErr   error
	deleteErr   error
	generateErr error
	response    string
	onGenerate  func()
	onUpload    func()

	uploaded  []string
	uploadLog map[string]string
	deleted   []string
	generated [][]core.Part
}

func (a *fakeAI) Upload(_ context.Context, data []byte, mimeType, label string) (*core.RemoteFile, error) {
	if a.uploadErr != nil {
		return nil, a.uploadErr
	}
	name := fmt.Sprintf("files/%d", len(a.uploaded)+1)
	a.uploaded = append(a.uploaded, name)
	if a.uploadLog == nil {
		a.uploadLog = map[string]string{}
	}
	a.uploadLog[name] = label + ":" + string(data)
	if a.onUpload != nil {
		a.onUpload()
	}
	return &core.RemoteFile{Name: name, URI: "https://ai.example/" + name, MIMEType: mimeType}, nil
}

func (a *fakeAI) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.deleted = append(a.deleted, name)
	return a.deleteErr
}

func (a *fakeAI) Generate(_ context.Context, parts []core.Part) (string, error) {
	a.generated = append(a.generated, parts)
	if a.onGenerate != nil {
		a.onGenerate()
	}
	if a.generateErr != nil {
		return "", a.generateErr
	}
	if a.response == "" {
		return "answer", nil
	}
	return a.response, nil
}

type fixture struct {
	store   *fakeStore
	fetcher *fakeFetcher
	ai      *fakeAI
}

func newFixture(materials ...*models.Material) *fixture {
	f := &fixture{
		store: &fakeStore{
			courses:   map[int64]*models.Course{courseID: {ID: courseID, CourseCode: "CSC101", Title: "Intro"}},
			materials: map[int64]*models.Material{},
			errs:      map[int64]error{},
		},
		fetcher: &fakeFetcher{responses: map[string]*fetcher.Response{}, errs: map[string]error{}},
		ai:      &fakeAI{},
	}
	for _, m := range materials {
		f.store.materials[m.ID] = m
	}
	return f
}

func (f *fixture) serve(link, body string) {
	f.fetcher.responses[link] = &fetcher.Response{Body: []byte(body), ContentType: "text/plain"}
}

func (f *fixture) service() *Service {
	return NewService(f.store, f.fetcher, extraction.NewExtractor(nil), f.ai, Options{Workers: 2}, nil, nil)
}

func textOf(p core.Part) string {
	if t, ok := p.(core.TextPart); ok {
		return string(t)
	}
	return ""
}

func TestChatTextFileMaterial(t *testing.T) {
	f := newFixture(&models.Material{ID: 1, CourseID: courseID, Title: "A", FileLink: "https://files.example/a.txt"})
	f.serve("https://files.example/a.txt", "Hello world")

	res, err := f.service().Chat(context.Background(), courseID, []int64{1}, "What does A say?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !reflect.DeepEqual(res.MaterialsUsed, []int64{1}) {
		t.Errorf("materials_used = %v, want [1]", res.MaterialsUsed)
	}
	if res.Response != "answer" {
		t.Errorf("response = %q", res.Response)
	}
	if len(f.ai.uploaded) != 1 || f.ai.uploadLog["files/1"] != "A:Hello world" {
		t.Fatalf("uploads = %v (%v)", f.ai.uploaded, f.ai.uploadLog)
	}
	if !reflect.DeepEqual(f.ai.deleted, []string{"files/1"}) {
		t.Errorf("deleted = %v, want [files/1]", f.ai.deleted)
	}

	parts := f.ai.generated[0]
	if len(parts) != 3 {
		t.Fatalf("parts = %d, want 3", len(parts))
	}
	if fp, ok := parts[0].(core.FilePart); !ok || fp.URI != "https://ai.example/files/1" {
		t.Errorf("part 0 = %#v", parts[0])
	}
	if got := textOf(parts[1]); got != `The file above is the course material "A".` {
		t.Errorf("part 1 = %q", got)
	}
	if got := textOf(parts[2]); !strings.HasSuffix(got, "Question: What does A say?") {
		t.Errorf("last part = %q", got)
	}
}

func TestChatDescriptionOnlyMaterial(t *testing.T) {
	f := newFixture(&models.Material{ID: 2, CourseID: courseID, Title: "B-title", Description: "Lecture 1 notes"})

	res, err := f.service().Chat(context.Background(), courseID, []int64{2}, "Summarise")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !reflect.DeepEqual(res.MaterialsUsed, []int64{2}) {
		t.Errorf("materials_used = %v", res.MaterialsUsed)
	}
	if got := textOf(f.ai.generated[0][0]); got != "B-title\nLecture 1 notes" {
		t.Errorf("context item = %q", got)
	}
	if len(f.ai.uploaded) != 0 || len(f.fetcher.calls) != 0 {
		t.Errorf("uploads = %v, fetches = %v; want none", f.ai.uploaded, f.fetcher.calls)
	}
}

func TestChatMissingFileWithoutDescription(t *testing.T) {
	f := newFixture(&models.Material{ID: 3, CourseID: courseID, Title: "C", FileLink: "https://files.example/gone.docx"})

	_, err := f.service().Chat(context.Background(), courseID, []int64{3}, "Anything?")
	if !errors.Is(err, ErrNoUsableMaterials) {
		t.Fatalf("expected ErrNoUsableMaterials, got %v", err)
	}
	if len(f.ai.uploaded) != 0 || len(f.ai.deleted) != 0 || len(f.ai.generated) != 0 {
		t.Errorf("uploads=%v deletes=%v generations=%d; want none", f.ai.uploaded, f.ai.deleted, len(f.ai.generated))
	}
}

func TestChatExcludesOtherCourseMaterials(t *testing.T) {
	f := newFixture(
		&models.Material{ID: 1, CourseID: courseID, Title: "Mine", Description: "ok"},
		&models.Material{ID: 2, CourseID: courseID + 1, Title: "Theirs", Description: "secret",
			FileLink: "https://files.example/theirs.txt"},
	)
	f.serve("https://files.example/theirs.txt", "secret body")

	res, err := f.service().Chat(context.Background(), courseID, []int64{2, 1}, "q")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !reflect.DeepEqual(res.MaterialsUsed, []int64{1}) {
		t.Errorf("materials_used = %v, want [1]", res.MaterialsUsed)
	}
	for _, p := range f.ai.generated[0] {
		if strings.Contains(textOf(p), "secret") {
			t.Errorf("other course content leaked into prompt: %q", textOf(p))
		}
	}
	if len(f.fetcher.calls) != 0 {
		t.Errorf("fetched %v for out-of-scope material", f.fetcher.calls)
	}
}

func TestChatFileTakesPrecedenceOverDescription(t *testing.T) {
	f := newFixture(&models.Material{ID: 4, CourseID: courseID, Title: "D", Description: "desc",
		FileLink: "https://files.example/d.txt"})
	f.serve("https://files.example/d.txt", "file body")

	res, err := f.service().Chat(context.Background(), courseID, []int64{4}, "q")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !reflect.DeepEqual(res.MaterialsUsed, []int64{4}) {
		t.Errorf("materials_used = %v", res.MaterialsUsed)
	}
	parts := f.ai.generated[0]
	if len(parts) != 3 {
		t.Fatalf("parts = %d, want file part, label and question", len(parts))
	}
	for _, p := range parts {
		if strings.Contains(textOf(p), "desc") {
			t.Errorf("description should be suppressed, got %q", textOf(p))
		}
	}
}

func TestChatEmptyFileFallsBackToDescription(t *testing.T) {
	f := newFixture(&models.Material{ID: 5, CourseID: courseID, Title: "E", Description: "backup",
		FileLink: "https://files.example/e.txt"})
	f.serve("https://files.example/e.txt", "   \n\t ")

	res, err := f.service().Chat(context.Background(), courseID, []int64{5}, "q")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got := textOf(f.ai.generated[0][0]); got != "E\nbackup" {
		t.Errorf("context item = %q", got)
	}
	if !reflect.DeepEqual(res.MaterialsUsed, []int64{5}) {
		t.Errorf("materials_used = %v", res.MaterialsUsed)
	}
}

func TestChatDeletesUploadsWhenGenerationFails(t *testing.T) {
	f := newFixture(
		&models.Material{ID: 1, CourseID: courseID, Title: "A", FileLink: "https://files.example/a.txt"},
		&models.Material{ID: 2, CourseID: courseID, Title: "B", FileLink: "https://files.example/b.txt"},
	)
	f.serve("https://files.example/a.txt", "alpha")
	f.serve("https://files.example/b.txt", "beta")
	f.ai.generateErr = errors.New("quota exceeded")

	_, err := f.service().Chat(context.Background(), courseID, []int64{1, 2}, "q")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("cause missing from %q", err)
	}
	if !reflect.DeepEqual(f.ai.deleted, f.ai.uploaded) || len(f.ai.uploaded) != 2 {
		t.Errorf("uploaded %v, deleted %v; want each deleted once", f.ai.uploaded, f.ai.deleted)
	}
}

func TestChatReleasesUploadsAfterCancellation(t *testing.T) {
	f := newFixture(&models.Material{ID: 1, CourseID: courseID, Title: "A", FileLink: "https://files.example/a.txt"})
	f.serve("https://files.example/a.txt", "alpha")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.ai.onGenerate = cancel
	f.ai.generateErr = context.Canceled

	_, err := f.service().Chat(ctx, courseID, []int64{1}, "q")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if !reflect.DeepEqual(f.ai.deleted, []string{"files/1"}) {
		t.Errorf("deleted = %v, want [files/1]", f.ai.deleted)
	}
}

func TestChatReleasesUploadsWhenCancelledBeforeGeneration(t *testing.T) {
	f := newFixture(
		&models.Material{ID: 1, CourseID: courseID, Title: "A", FileLink: "https://files.example/a.txt"},
		&models.Material{ID: 2, CourseID: courseID, Title: "B", FileLink: "https://files.example/b.txt"},
	)
	f.serve("https://files.example/a.txt", "alpha")
	f.serve("https://files.example/b.txt", "beta")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.ai.onUpload = cancel

	_, err := f.service().Chat(ctx, courseID, []int64{1, 2}, "q")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(f.ai.generated) != 0 {
		t.Errorf("generated %d times after cancellation", len(f.ai.generated))
	}
	if !reflect.DeepEqual(f.ai.uploaded, []string{"files/1"}) {
		t.Errorf("uploaded = %v, want [files/1]", f.ai.uploaded)
	}
	if !reflect.DeepEqual(f.ai.deleted, f.ai.uploaded) {
		t.Errorf("deleted = %v, want %v", f.ai.deleted, f.ai.uploaded)
	}
}

func TestChatDeleteFailureDoesNotMaskResult(t *testing.T) {
	f := newFixture(&models.Material{ID: 1, CourseID: courseID, Title: "A", FileLink: "https://files.example/a.txt"})
	f.serve("https://files.example/a.txt", "alpha")
	f.ai.deleteErr = errors.New("delete refused")

	res, err := f.service().Chat(context.Background(), courseID, []int64{1}, "q")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Response != "answer" || len(f.ai.deleted) != 1 {
		t.Errorf("response = %q, deletes = %v", res.Response, f.ai.deleted)
	}
}

func TestChatUploadFailureInlinesBoundedPrefix(t *testing.T) {
	body := strings.Repeat("é", 6000)
	f := newFixture(&models.Material{ID: 1, CourseID: courseID, Title: "Long", FileLink: "https://files.example/long.txt"})
	f.serve("https://files.example/long.txt", body)
	f.ai.uploadErr = errors.New("store full")

	res, err := f.service().Chat(context.Background(), courseID, []int64{1}, "q")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !reflect.DeepEqual(res.MaterialsUsed, []int64{1}) {
		t.Errorf("materials_used = %v", res.MaterialsUsed)
	}
	want := "Long\n" + strings.Repeat("é", 5000)
	if got := textOf(f.ai.generated[0][0]); got != want {
		t.Errorf("inline item has %d runes, want %d", len([]rune(got)), len([]rune(want)))
	}
	if len(f.ai.deleted) != 0 {
		t.Errorf("deleted = %v, want none", f.ai.deleted)
	}
}

func TestChatMaterialsUsedIsOrderedSubsequence(t *testing.T) {
	f := newFixture(
		&models.Material{ID: 1, CourseID: courseID, Title: "one", Description: "1"},
		&models.Material{ID: 2, CourseID: courseID, Title: "two", FileLink: "https://files.example/2.txt"},
		&models.Material{ID: 3, CourseID: courseID, Title: "three", Description: "3"},
		&models.Material{ID: 4, CourseID: courseID, Title: "four", Description: "4"},
	)
	f.serve("https://files.example/2.txt", "two body")
	f.store.errs[4] = errors.New("connection reset")
	svc := f.service()

	ids := []int64{3, 9, 1, 3, 2, 4, 1}
	first, err := svc.Chat(context.Background(), courseID, ids, "q")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	want := []int64{3, 1, 2}
	if !reflect.DeepEqual(first.MaterialsUsed, want) {
		t.Fatalf("materials_used = %v, want %v", first.MaterialsUsed, want)
	}

	second, err := svc.Chat(context.Background(), courseID, ids, "q")
	if err != nil {
		t.Fatalf("second Chat: %v", err)
	}
	if !reflect.DeepEqual(first.MaterialsUsed, second.MaterialsUsed) {
		t.Errorf("materials_used changed between calls: %v vs %v", first.MaterialsUsed, second.MaterialsUsed)
	}

	parts := f.ai.generated[0]
	if textOf(parts[0]) != "three\n3" || textOf(parts[1]) != "one\n1" {
		t.Errorf("prompt order = %q, %q", textOf(parts[0]), textOf(parts[1]))
	}
	if _, ok := parts[2].(core.FilePart); !ok {
		t.Errorf("part 2 = %#v, want file part", parts[2])
	}
}

func TestChatServiceUnavailable(t *testing.T) {
	f := newFixture(&models.Material{ID: 1, CourseID: courseID, Title: "A", Description: "x"})
	svc := NewService(f.store, f.fetcher, extraction.NewExtractor(nil), nil, Options{}, nil, nil)

	_, err := svc.Chat(context.Background(), courseID, []int64{1}, "q")
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	if f.store.calls != 0 {
		t.Errorf("store called %d times, want 0", f.store.calls)
	}
}

func TestChatCourseNotFound(t *testing.T) {
	f := newFixture()
	_, err := f.service().Chat(context.Background(), 404, []int64{1}, "q")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	f := newFixture()
	_, err := f.service().Chat(context.Background(), courseID, []int64{1}, "  ")
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestKindOf(t *testing.T) {
	cases := map[error]string{
		wrapError("chat", ErrServiceUnavailable, nil):                 "service_unavailable",
		wrapError("chat", ErrCourseNotFound, errors.New("id 3")):      "course_not_found",
		wrapError("chat", ErrNoUsableMaterials, errors.New("none")):   "no_usable_materials",
		wrapError("chat", ErrGenerationFailed, errors.New("timeout")): "generation_failed",
		wrapError("chat", ErrInvalidRequest, errors.New("empty")):     "invalid_request",
		errors.New("boom"): "internal",
	}
	for err, want := range cases {
		if got := KindOf(err); got != want {
			t.Errorf("KindOf(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("héllo", 2); got != "hé" {
		t.Errorf("truncateRunes = %q", got)
	}
	if got := truncateRunes("abc", 10); got != "abc" {
		t.Errorf("truncateRunes = %q", got)
	}
}
