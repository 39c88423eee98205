// Package header encodes and decodes the single-line JSON metadata record
// that may prefix a lyrics document.
package header

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/lyricist/internal/apperr"
	"github.com/starford/lyricist/internal/models"
)

var (
	errNotJSON    = errors.New("not valid JSON")
	errWrongShape = errors.New("referencedData has the wrong shape")
)

// Header is the on-disk metadata record. Lyrics is always true when written
// by this package; it exists so that readers can recognise the line.
type Header struct {
	Lyrics         bool                  `json:"lyrics"`
	ReferencedData *models.ReferenceData `json:"referencedData"`
}

// IsHeaderLike reports whether line is syntactically valid JSON.
// The shape is not checked: "42" and "{}" are header-like too.
func IsHeaderLike(line string) bool {
	return json.Valid([]byte(line))
}

// EncodeFileReference returns the header line referencing the file at
// locator, minified and terminated by exactly one newline.
func EncodeFileReference(locator string) string {
	return Encode(Header{
		Lyrics:         true,
		ReferencedData: &models.ReferenceData{Kind: models.ReferenceKindFile, Locator: locator},
	})
}

// Encode serialises h as one line of minified JSON plus a newline.
func Encode(h Header) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a struct of strings and a bool cannot fail.
	_ = enc.Encode(h)
	return buf.String()
}

// DecodeReferenceData parses line and returns its referenced data, which may
// legitimately be nil. It fails with apperr.ErrHeaderParse when line is not
// JSON or when referencedData is present with the wrong shape.
func DecodeReferenceData(line string) (*models.ReferenceData, error) {
	if !IsHeaderLike(line) {
		return nil, &apperr.HeaderParseError{Line: line, Err: errNotJSON}
	}
	h, err := decode([]byte(line))
	if err != nil {
		return nil, &apperr.HeaderParseError{Line: line, Err: err}
	}
	return h.ReferencedData, nil
}

// decode assumes data is valid JSON. Values that are not objects, and objects
// without referencedData, decode to an empty header.
func decode(data []byte) (Header, error) {
	var h Header
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return h, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return h, fmt.Errorf("%w: %v", errWrongShape, err)
	}
	if marker, ok := fields["lyrics"]; ok {
		_ = json.Unmarshal(marker, &h.Lyrics)
	}

	raw, ok := fields["referencedData"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return h, nil
	}

	var ref struct {
		DataType *string `json:"dataType"`
		Data     *string `json:"data"`
	}
	if err := json.Unmarshal(raw, &ref); err != nil {
		return h, fmt.Errorf("%w: %v", errWrongShape, err)
	}
	if ref.DataType == nil || ref.Data == nil {
		return h, errWrongShape
	}
	h.ReferencedData = &models.ReferenceData{Kind: *ref.DataType, Locator: *ref.Data}
	return h, nil
}
