package chat

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/coursechat/internal/core"
	"github.com/markdave123-py/coursechat/internal/observability/metrics"
)

type uploadedHandle struct {
	remote     *core.RemoteFile
	materialID int64
}

// session owns the remote files uploaded during one chat request. It is used
// from a single goroutine.
type session struct {
	store         core.EphemeralStore
	deleteTimeout time.Duration
	handles       []uploadedHandle
	logger        *zap.Logger
	metrics       *metrics.Metrics
}

func newSession(store core.EphemeralStore, deleteTimeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *session {
	return &session{store: store, deleteTimeout: deleteTimeout, metrics: m, logger: logger}
}

// upload stores text remotely and registers the handle for release.
func (s *session) upload(ctx context.Context, materialID int64, label, text string) (*core.RemoteFile, error) {
	remote, err := s.store.Upload(ctx, []byte(text), "text/plain", label)
	if err == nil && remote == nil {
		err = fmt.Errorf("upload of material %d returned no handle", materialID)
	}
	s.metrics.ObserveUpload(err)
	if err != nil {
		return nil, err
	}
	s.handles = append(s.handles, uploadedHandle{remote: remote, materialID: materialID})
	return remote, nil
}

// release deletes every registered handle once. It runs after the request
// context may already be cancelled, so each delete gets its own deadline.
func (s *session) release(ctx context.Context) {
	handles := s.handles
	s.handles = nil

	base := context.WithoutCancel(ctx)
	for _, h := range handles {
		dctx, cancel := context.WithTimeout(base, s.deleteTimeout)
		err := s.store.Delete(dctx, h.remote.Name)
		cancel()

		s.metrics.ObserveDelete(err)
		if err != nil {
			s.logger.Warn("ephemeral file delete failed",
				zap.Int64("material_id", h.materialID),
				zap.String("file", h.remote.Name),
				zap.Error(err),
			)
		}
	}
}
