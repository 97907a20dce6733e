package extraction

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// wordDocumentPath is the main document body inside a .docx zip.
const wordDocumentPath = "word/document.xml"

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// decodeWord returns the document's paragraphs in order, one per line.
// Whitespace-only paragraphs are dropped before joining.
func decodeWord(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("not a docx container: %w", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == wordDocumentPath {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("%s not found", wordDocumentPath)
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", wordDocumentPath, err)
	}
	defer rc.Close()

	paragraphs, err := wordParagraphs(rc)
	if err != nil {
		return "", err
	}

	kept := paragraphs[:0]
	for _, p := range paragraphs {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n"), nil
}

// wordParagraphs walks the WordprocessingML token stream and collects the text
// of every top-level <w:p>. Paragraphs nested in text boxes are folded into
// their enclosing paragraph.
func wordParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		cur        strings.Builder
		depth      int
		runDepth   int
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", wordDocumentPath, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					cur.Reset()
				}
				depth++
			case "r":
				runDepth++
			case "t":
				inText = true
			case "tab":
				// w:tabs inside w:pPr defines tab stops, not tab characters.
				if depth > 0 && runDepth > 0 {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if depth > 0 && runDepth > 0 {
					cur.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					continue
				}
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, cur.String())
				}
			case "r":
				if runDepth > 0 {
					runDepth--
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && depth > 0 {
				cur.Write(t)
			}
		}
	}
	return paragraphs, nil
}
