package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/markdave123-py/coursechat/internal/core"
)

var ErrEmptyResponse = errors.New("gemini returned no text")

type Options struct {
	Model         string
	GenTimeout    time.Duration
	UploadTimeout time.Duration
	DeleteTimeout time.Duration
	PollInterval  time.Duration
}

type GeminiClient struct {
	client *genai.Client
	opts   Options
	logger *zap.Logger
}

var _ core.AIClient = (*GeminiClient)(nil)

func NewGeminiClient(ctx context.Context, apiKey string, opts Options, logger *zap.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.5-flash"
	}
	if opts.GenTimeout <= 0 {
		opts.GenTimeout = 2 * time.Minute
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = time.Minute
	}
	if opts.DeleteTimeout <= 0 {
		opts.DeleteTimeout = 15 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiClient{client: cl, opts: opts, logger: logger.Named("gemini")}, nil
}

func (g *GeminiClient) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Generate issues a single GenerateContent call with parts in order.
func (g *GeminiClient) Generate(ctx context.Context, parts []core.Part) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.GenTimeout)
	defer cancel()

	m := g.client.GenerativeModel(g.opts.Model)
	resp, err := m.GenerateContent(ctx, toGenaiParts(parts)...)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Upload stores data in the Gemini file store and waits until the file is
// usable in a prompt.
func (g *GeminiClient) Upload(ctx context.Context, data []byte, mimeType, label string) (*core.RemoteFile, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.UploadTimeout)
	defer cancel()

	file, err := g.client.UploadFile(ctx, "", bytes.NewReader(data), &genai.UploadFileOptions{
		DisplayName: label,
		MIMEType:    mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini upload: %w", err)
	}

	file, err = g.waitActive(ctx, file)
	if err != nil {
		if delErr := g.Delete(context.WithoutCancel(ctx), file.Name); delErr != nil {
			g.logger.Warn("delete of inactive upload failed", zap.String("file", file.Name), zap.Error(delErr))
		}
		return nil, err
	}

	return &core.RemoteFile{Name: file.Name, URI: file.URI, MIMEType: file.MIMEType}, nil
}

func (g *GeminiClient) waitActive(ctx context.Context, file *genai.File) (*genai.File, error) {
	for file.State != genai.FileStateActive {
		if file.State == genai.FileStateFailed {
			return file, fmt.Errorf("gemini upload: file %s failed processing", file.Name)
		}
		select {
		case <-ctx.Done():
			return file, fmt.Errorf("gemini upload: file %s not active: %w", file.Name, ctx.Err())
		case <-time.After(g.opts.PollInterval):
		}
		current, err := g.client.GetFile(ctx, file.Name)
		if err != nil {
			return file, fmt.Errorf("gemini upload: get file state: %w", err)
		}
		file = current
	}
	return file, nil
}

func (g *GeminiClient) Delete(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, g.opts.DeleteTimeout)
	defer cancel()

	if err := g.client.DeleteFile(ctx, name); err != nil {
		return fmt.Errorf("gemini delete %s: %w", name, err)
	}
	return nil
}

func toGenaiParts(parts []core.Part) []genai.Part {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case core.TextPart:
			out = append(out, genai.Text(string(v)))
		case core.FilePart:
			out = append(out, genai.FileData{MIMEType: v.MIMEType, URI: v.URI})
		}
	}
	return out
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
