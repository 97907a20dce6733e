// Package extraction reconstructs plain text from course material files.
package extraction

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrNoExtractableText means the file decoded fine but holds no readable text.
	ErrNoExtractableText = errors.New("no extractable text")
	ErrParseFailed       = errors.New("parse failed")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

type decoder func(data []byte) (string, error)

type namedDecoder struct {
	name   string
	decode decoder
}

// Extractor decodes plain text, Word (.docx) and PDF documents.
type Extractor struct {
	logger *zap.Logger
}

func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger.Named("extractor")}
}

// Extract decodes data according to format. On success the returned text is
// non-empty after trimming. Failures wrap ErrNoExtractableText, ErrParseFailed
// or ErrUnsupportedFormat; decoder panics are converted to ErrParseFailed.
func (e *Extractor) Extract(data []byte, format Format) (string, error) {
	switch format {
	case FormatPlainText:
		return e.decode(namedDecoder{"plain-text", decodePlain}, data)
	case FormatWord:
		return e.decode(namedDecoder{"word", decodeWord}, data)
	case FormatPDF:
		return e.decode(namedDecoder{"pdf", e.decodePDF}, data)
	default:
		return e.probe(data)
	}
}

// probe tries each binary decoder in turn for content whose format could not
// be detected. The first decoder that accepts the container wins.
func (e *Extractor) probe(data []byte) (string, error) {
	chain := []namedDecoder{
		{"pdf", e.decodePDF},
		{"word", decodeWord},
	}

	var lastErr error
	for _, d := range chain {
		text, err := e.decode(d, data)
		if err == nil || errors.Is(err, ErrNoExtractableText) {
			return text, err
		}
		e.logger.Debug("probe decoder rejected content", zap.String("decoder", d.name), zap.Error(err))
		lastErr = err
	}
	return "", fmt.Errorf("%w: %w", ErrUnsupportedFormat, lastErr)
}

func (e *Extractor) decode(d namedDecoder, data []byte) (string, error) {
	text, err := runDecoder(d, data)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", d.name, ErrParseFailed, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s: %w", d.name, ErrNoExtractableText)
	}
	return text, nil
}

func runDecoder(d namedDecoder, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return d.decode(data)
}
