// Package rhymes looks up rhymes for words and feeds them to the editor.
package rhymes

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_lookup.go -package=mocks github.com/starford/lyricist/internal/rhymes Lookup

import (
	"context"

	"github.com/starford/lyricist/internal/models"
)

// Lookup returns rhyme candidates for a word, best first.
type Lookup interface {
	Rhymes(ctx context.Context, word string) ([]models.RhymeCandidate, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, word string) ([]models.RhymeCandidate, error)

// Rhymes calls f.
func (f LookupFunc) Rhymes(ctx context.Context, word string) ([]models.RhymeCandidate, error) {
	return f(ctx, word)
}
