package chat

import (
	"fmt"

	"github.com/markdave123-py/coursechat/internal/core"
)

const answerInstruction = "You are a helpful course assistant. Answer the question below using the course materials above. " +
	"If the materials do not cover the question, say so."

// assemble orders the context items followed by the question as the last part.
func assemble(items []ContextItem, question string) []core.Part {
	parts := make([]core.Part, 0, 2*len(items)+1)
	for _, item := range items {
		switch v := item.(type) {
		case FileItem:
			parts = append(parts,
				core.FilePart{URI: v.File.URI, MIMEType: v.File.MIMEType},
				core.TextPart(fmt.Sprintf("The file above is the course material %q.", v.Title)),
			)
		case TextItem:
			parts = append(parts, core.TextPart(v.Content))
		}
	}
	return append(parts, core.TextPart(answerInstruction+"\n\nQuestion: "+question))
}
