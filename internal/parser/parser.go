// Package parser splits raw document files into header and body and
// reassembles them for saving.
package parser

import (
	"path/filepath"
	"strings"

	"github.com/starford/lyricist/internal/header"
	"github.com/starford/lyricist/internal/models"
)

// ReservedExtension is the only suffix whose first line may be a header.
const ReservedExtension = ".lyrics"

const maxTitleRunes = 80

// Result holds the output of parsing a document file.
type Result struct {
	Body      string
	Reference *models.ReferenceData
	// HasHeader is true when the first line was consumed as a header.
	HasHeader bool
	// Malformed is set when the header was JSON but its reference was unusable.
	// The header is still stripped and Reference is nil.
	Malformed error
	Title     string
}

// IsReserved reports whether path carries the reserved extension.
func IsReserved(path string) bool {
	return filepath.Ext(path) == ReservedExtension
}

// Parse splits data loaded from path into body and reference. Only files
// with the reserved extension have their first line sniffed for a header.
func Parse(path string, data []byte) *Result {
	text := string(data)
	res := &Result{Body: text}

	firstLine, rest := text, ""
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		firstLine, rest = text[:i], text[i+1:]
	}

	if IsReserved(path) && header.IsHeaderLike(firstLine) {
		res.HasHeader = true
		res.Body = rest
		ref, err := header.DecodeReferenceData(firstLine)
		if err != nil {
			res.Malformed = err
		} else {
			res.Reference = ref
		}
	}

	res.Title = deriveTitle(res.Body)
	return res
}

// Assemble returns the bytes to write for body at path. The header is
// rebuilt from ref; it is only written for the reserved extension.
func Assemble(path, body string, ref *models.ReferenceData) []byte {
	if ref == nil || !IsReserved(path) {
		return []byte(body)
	}
	var line string
	if ref.Kind == models.ReferenceKindFile {
		line = header.EncodeFileReference(ref.Locator)
	} else {
		line = header.Encode(header.Header{Lyrics: true, ReferencedData: ref})
	}
	return []byte(line + body)
}

// deriveTitle returns the first non-blank line of body, shortened.
func deriveTitle(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if r := []rune(trimmed); len(r) > maxTitleRunes {
			return string(r[:maxTitleRunes])
		}
		return trimmed
	}
	return ""
}
