// Package models defines the domain types for Lyricist.
package models

import (
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ReferenceKindFile is the only reference kind produced today.
const ReferenceKindFile = "file"

// ReferenceData associates a document with an external resource.
type ReferenceData struct {
	Kind    string `json:"dataType"`
	Locator string `json:"data"`
}

// Document is a lyrics body plus its optional reference and source path.
// An empty Path means the document has never been saved.
type Document struct {
	Path      string         `json:"path,omitempty"`
	Body      string         `json:"body"`
	Reference *ReferenceData `json:"reference"`
}

// DocumentMetadata is a lightweight representation returned by list operations.
type DocumentMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SupportedAudioExtensions lists the locator suffixes a waveform player can load.
var SupportedAudioExtensions = []string{"aac", "aiff", "flac", "m4a", "mp3", "ogg", "wav"}

// IsPlayable reports whether ref points at a file with an audio extension.
func IsPlayable(ref *ReferenceData) bool {
	if ref == nil || ref.Kind != ReferenceKindFile {
		return false
	}
	ext := strings.TrimPrefix(filepath.Ext(ref.Locator), ".")
	return slices.Contains(SupportedAudioExtensions, ext)
}

// DocumentEvent describes a change to a document in the library. Reference
// is only known for changes made through the application.
type DocumentEvent struct {
	Kind      string         `json:"kind"`
	Path      string         `json:"path"`
	Reference *ReferenceData `json:"reference,omitempty"`
	Playable  bool           `json:"playable"`
}
