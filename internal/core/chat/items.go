package chat

import "github.com/markdave123-py/coursechat/internal/core"

// Status is the outcome of reading one material's file.
type Status string

const (
	StatusExtracted         Status = "extracted"
	StatusEmpty             Status = "empty"
	StatusFetchFailed       Status = "fetch_failed"
	StatusParseFailed       Status = "parse_failed"
	StatusUnsupportedFormat Status = "unsupported_format"
)

// Extraction holds Text only when Status is StatusExtracted.
type Extraction struct {
	MaterialID int64
	Status     Status
	Text       string
	Err        error
}

// ContextItem is one unit of content sent for generation: FileItem or TextItem.
type ContextItem interface {
	materialID() int64
}

// FileItem references text uploaded to the ephemeral store.
type FileItem struct {
	MaterialID int64
	Title      string
	File       *core.RemoteFile
}

// TextItem is sent inline in the prompt.
type TextItem struct {
	MaterialID int64
	Content    string
}

func (i FileItem) materialID() int64 { return i.MaterialID }
func (i TextItem) materialID() int64 { return i.MaterialID }
