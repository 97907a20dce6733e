package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/coursechat/internal/core/extraction"
	"github.com/markdave123-py/coursechat/internal/models"
)

type resolvedMaterial struct {
	material   *models.Material
	extraction *Extraction
}

// resolve turns the requested materials into context items. Fetch and
// extraction run in parallel; uploads and item selection then run in request
// order so the prompt and materials_used stay deterministic. Only a cancelled
// context fails the call.
func (s *Service) resolve(ctx context.Context, courseID int64, ids []int64, sess *session) ([]ContextItem, []int64, error) {
	ids = dedupeIDs(ids)
	slots := make([]resolvedMaterial, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, id := range ids {
		g.Go(func() error {
			m, err := s.store.GetMaterialByID(gctx, id)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.logger.Warn("material lookup failed, skipping", zap.Int64("material_id", id), zap.Error(err))
				return nil
			}
			if m == nil || m.CourseID != courseID {
				s.logger.Debug("material not in course scope, skipping",
					zap.Int64("material_id", id), zap.Int64("course_id", courseID))
				return nil
			}

			slots[i].material = m
			if strings.TrimSpace(m.FileLink) != "" {
				ex := s.extract(gctx, m)
				slots[i].extraction = &ex
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		items []ContextItem
		used  []int64
	)
	for _, slot := range slots {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		m := slot.material
		if m == nil {
			continue
		}

		var item ContextItem
		if ex := slot.extraction; ex != nil && ex.Status == StatusExtracted {
			item = s.fileItem(ctx, sess, m, ex.Text)
		}
		if item == nil && strings.TrimSpace(m.Description) != "" {
			item = TextItem{MaterialID: m.ID, Content: m.Title + "\n" + m.Description}
		}
		if item == nil {
			continue
		}
		items = append(items, item)
		used = append(used, m.ID)
	}
	return items, used, nil
}

// extract fetches and decodes the material's file.
func (s *Service) extract(ctx context.Context, m *models.Material) Extraction {
	ex := Extraction{MaterialID: m.ID}
	defer func() {
		s.metrics.ObserveExtraction(string(ex.Status))
		if ex.Status != StatusExtracted {
			s.logger.Warn("material file unusable",
				zap.Int64("material_id", m.ID),
				zap.String("status", string(ex.Status)),
				zap.Error(ex.Err),
			)
		}
	}()

	resp, err := s.fetcher.Fetch(ctx, m.FileLink)
	if err != nil {
		ex.Status, ex.Err = StatusFetchFailed, err
		return ex
	}

	format := extraction.DetectFormat(m.FileLink, resp.ContentType)
	text, err := s.extractor.Extract(resp.Body, format)
	switch {
	case err == nil:
		ex.Status, ex.Text = StatusExtracted, text
	case errors.Is(err, extraction.ErrNoExtractableText):
		ex.Status, ex.Err = StatusEmpty, err
	case errors.Is(err, extraction.ErrUnsupportedFormat):
		ex.Status, ex.Err = StatusUnsupportedFormat, err
	default:
		ex.Status, ex.Err = StatusParseFailed, err
	}
	return ex
}

// fileItem uploads extracted text, falling back to an inline prefix when the
// upload fails.
func (s *Service) fileItem(ctx context.Context, sess *session, m *models.Material, text string) ContextItem {
	label := m.Title
	if label == "" {
		label = fmt.Sprintf("material-%d", m.ID)
	}

	remote, err := sess.upload(ctx, m.ID, label, text)
	if err != nil {
		s.logger.Warn("ephemeral upload failed, inlining text",
			zap.Int64("material_id", m.ID), zap.Error(err))
		return TextItem{MaterialID: m.ID, Content: m.Title + "\n" + truncateRunes(text, s.opts.InlineChars)}
	}
	return FileItem{MaterialID: m.ID, Title: m.Title, File: remote}
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
