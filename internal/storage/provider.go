// Package storage defines the document file-system abstraction.
package storage

import "github.com/starford/lyricist/internal/models"

// DocumentExtensions are the suffixes listed and watched as documents.
var DocumentExtensions = []string{".lyrics", ".txt"}

// Provider is the interface for whole-file document operations.
// Every failure is an *apperr.IOError tagged with the attempted path.
type Provider interface {
	// List returns metadata for every document under dir (relative to root).
	List(dir string) ([]models.DocumentMetadata, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path (relative to root).
	Write(path string, content []byte) error
}
