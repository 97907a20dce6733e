package core

import "context"

// Part is one element of an ordered generation request: TextPart or FilePart.
type Part interface {
	isPart()
}

// TextPart is inline prompt text.
type TextPart string

// FilePart references a file previously uploaded to the AI file store.
type FilePart struct {
	URI      string
	MIMEType string
}

func (TextPart) isPart() {}
func (FilePart) isPart() {}

// RemoteFile is a handle to content held in the AI service's transient store.
type RemoteFile struct {
	Name     string
	URI      string
	MIMEType string
}

type Generator interface {
	Generate(ctx context.Context, parts []Part) (string, error)
}

type EphemeralStore interface {
	Upload(ctx context.Context, data []byte, mimeType, label string) (*RemoteFile, error)
	Delete(ctx context.Context, name string) error
}

// AIClient is the generative AI capability. Components receive a nil
// AIClient when the service could not be initialised.
type AIClient interface {
	Generator
	EphemeralStore
}
