package extraction

import (
	"mime"
	"net/url"
	"path"
	"strings"

	"code.sajari.com/docconv"
)

// Format is the closed set of document kinds the extractor can decode.
type Format int

const (
	FormatUnknown Format = iota
	FormatPlainText
	FormatWord
	FormatPDF
)

func (f Format) String() string {
	switch f {
	case FormatPlainText:
		return "plain-text"
	case FormatWord:
		return "word"
	case FormatPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

const (
	mimePlainText = "text/plain"
	mimePDF       = "application/pdf"
	mimeWord      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Text extensions resolve locally; docconv's table covers the binary formats.
var plainTextExtensions = map[string]struct{}{
	".txt":      {},
	".md":       {},
	".markdown": {},
	".text":     {},
	".csv":      {},
	".log":      {},
}

// DetectFormat resolves a file's format from the extension of its link and,
// when that is absent or unrecognised, from the content-type reported by the
// remote server.
func DetectFormat(link, contentType string) Format {
	if f := FormatFromLink(link); f != FormatUnknown {
		return f
	}
	return FormatFromContentType(contentType)
}

// FormatFromLink looks at the path extension only; query string and fragment
// are ignored and matching is case-insensitive.
func FormatFromLink(link string) Format {
	p := link
	if u, err := url.Parse(link); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return FormatUnknown
	}
	if _, ok := plainTextExtensions[ext]; ok {
		return FormatPlainText
	}
	return FormatFromContentType(docconv.MimeTypeByExtension(ext))
}

func FormatFromContentType(contentType string) Format {
	if strings.TrimSpace(contentType) == "" {
		return FormatUnknown
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return FormatUnknown
	}
	switch strings.ToLower(mediaType) {
	case mimePlainText, "text/markdown", "text/csv":
		return FormatPlainText
	case mimePDF:
		return FormatPDF
	case mimeWord:
		return FormatWord
	default:
		return FormatUnknown
	}
}
