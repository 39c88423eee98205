package words

import (
	"unicode/utf8"

	"github.com/starford/lyricist/internal/models"
)

// Surface is the part of the editing surface the locator reads from.
type Surface interface {
	Position() models.Position
	Selection() models.Range
	// WordAt uses the host's word-boundary tokenizer.
	WordAt(pos models.Position) (string, models.Range, bool)
	ValueInRange(r models.Range) string
}

// Sink receives located words. Cursor and selection words share one sink,
// so they arrive interleaved in the order the signals fired.
type Sink func(models.WordAtPosition)

// Locator derives WordAtPosition events from cursor and selection changes.
type Locator struct {
	surface Surface
	emit    Sink
}

// NewLocator creates a Locator reading from surface and emitting to emit.
func NewLocator(surface Surface, emit Sink) *Locator {
	return &Locator{surface: surface, emit: emit}
}

// CursorChanged handles a cursor-position change.
func (l *Locator) CursorChanged() {
	if w, ok := FromCursor(l.surface); ok {
		l.emit(w)
	}
}

// SelectionChanged handles a selection-range change.
func (l *Locator) SelectionChanged() {
	if w, ok := FromSelection(l.surface); ok {
		l.emit(w)
	}
}

// FromCursor returns the word containing the cursor, if any.
func FromCursor(s Surface) (models.WordAtPosition, bool) {
	word, r, ok := s.WordAt(s.Position())
	if !ok || word == "" {
		return models.WordAtPosition{}, false
	}
	return models.WordAtPosition{Word: word, Range: r}, true
}

// FromSelection returns the selected text when it is longer than one
// character and starts with a word character.
func FromSelection(s Surface) (models.WordAtPosition, bool) {
	sel := s.Selection()
	text := s.ValueInRange(sel)
	if utf8.RuneCountInString(text) <= 1 {
		return models.WordAtPosition{}, false
	}
	first, _ := utf8.DecodeRuneInString(text)
	if !IsWordRune(first) {
		return models.WordAtPosition{}, false
	}
	return models.WordAtPosition{Word: text, Range: sel}, true
}
