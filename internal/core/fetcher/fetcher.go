// Package fetcher downloads material files for text extraction.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/coursechat/internal/core"
	objectclient "github.com/markdave123-py/coursechat/internal/core/object-client"
)

var (
	ErrEmptyURL = errors.New("empty file link")
	ErrTooLarge = errors.New("file exceeds size limit")
)

// HTTPStatusError reports a non-2xx response from the file host.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %s", e.URL, e.Status)
}

type Response struct {
	Body        []byte
	ContentType string
}

type Options struct {
	Timeout  time.Duration
	MaxBytes int64

	// Objects, when set, serves links that point at Bucket without going
	// through anonymous HTTP.
	Objects core.ObjectClient
	Bucket  string
}

type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
	objects  core.ObjectClient
	bucket   string
	logger   *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 50 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		client:   &http.Client{Timeout: opts.Timeout},
		timeout:  opts.Timeout,
		maxBytes: opts.MaxBytes,
		objects:  opts.Objects,
		bucket:   opts.Bucket,
		logger:   logger.Named("fetcher"),
	}
}

// Fetch downloads link within the configured timeout.
func (f *Fetcher) Fetch(ctx context.Context, link string) (*Response, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil, ErrEmptyURL
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if f.objects != nil && f.bucket != "" {
		if bucket, key, ok := objectclient.ParseS3URL(link); ok && bucket == f.bucket {
			body, err := f.objects.GetFile(ctx, bucket, key)
			if err != nil {
				return nil, fmt.Errorf("fetch %s: %w", link, err)
			}
			if int64(len(body)) > f.maxBytes {
				return nil, fmt.Errorf("fetch %s: %w", link, ErrTooLarge)
			}
			return &Response{Body: body}, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", link, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", link, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &HTTPStatusError{URL: link, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", link, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("fetch %s: %w", link, ErrTooLarge)
	}

	f.logger.Debug("fetched material file", zap.String("url", link), zap.Int("bytes", len(body)))
	return &Response{Body: body, ContentType: resp.Header.Get("Content-Type")}, nil
}
