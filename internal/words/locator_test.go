package words

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lyricist/internal/models"
)

// lineSurface is a single-line surface for locator tests.
type lineSurface struct {
	line string
	pos  models.Position
	sel  models.Range
}

func (s *lineSurface) Position() models.Position { return s.pos }
func (s *lineSurface) Selection() models.Range    { return s.sel }

func (s *lineSurface) WordAt(pos models.Position) (string, models.Range, bool) {
	tok, ok := At(s.line, pos.Column)
	if !ok {
		return "", models.Range{}, false
	}
	return tok.Word, models.Range{StartLine: pos.Line, StartColumn: tok.Start, EndLine: pos.Line, EndColumn: tok.End}, true
}

func (s *lineSurface) ValueInRange(r models.Range) string {
	runes := []rune(s.line)
	from, to := r.StartColumn-1, r.EndColumn-1
	if from < 0 || to > len(runes) || from > to {
		return ""
	}
	return string(runes[from:to])
}

func TestFromCursor(t *testing.T) {
	s := &lineSurface{line: "don't-stop", pos: models.Position{Line: 1, Column: 3}}
	w, ok := FromCursor(s)
	require.True(t, ok)
	assert.Equal(t, models.WordAtPosition{
		Word:  "don't",
		Range: models.Range{StartLine: 1, StartColumn: 1, EndLine: 1, EndColumn: 6},
	}, w)

	s.pos.Column = 9
	w, ok = FromCursor(s)
	require.True(t, ok)
	assert.Equal(t, "stop", w.Word)
	assert.Equal(t, 7, w.Range.StartColumn)
	assert.Equal(t, 11, w.Range.EndColumn)
}

func TestFromCursor_NoWord(t *testing.T) {
	s := &lineSurface{line: "a   b", pos: models.Position{Line: 1, Column: 4}}
	_, ok := FromCursor(s)
	assert.False(t, ok)
}

func TestFromSelection(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		sel      models.Range
		wantWord string
		ok       bool
	}{
		{"word", "sing along", rng(1, 5), "sing", true},
		{"phrase", "sing along", rng(1, 11), "sing along", true},
		{"single char", "a tune", rng(1, 2), "", false},
		{"empty", "a tune", rng(3, 3), "", false},
		{"leading space", "a tune", rng(2, 7), "", false},
		{"leading punctuation", "(hey)", rng(1, 5), "", false},
		{"digit start", "99 problems", rng(1, 3), "99", true},
		{"superscript start", "²nd verse", rng(1, 4), "²nd", true},
		{"roman numeral start", "ⅫⅠ bars", rng(1, 3), "ⅫⅠ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &lineSurface{line: tt.line, sel: tt.sel}
			w, ok := FromSelection(s)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.wantWord, w.Word)
				assert.Equal(t, tt.sel, w.Range)
			}
		})
	}
}

func TestLocator_MergesInArrivalOrder(t *testing.T) {
	s := &lineSurface{line: "fire and desire"}
	var got []string
	l := NewLocator(s, func(w models.WordAtPosition) { got = append(got, w.Word) })

	s.pos = models.Position{Line: 1, Column: 2}
	l.CursorChanged()
	s.sel = rng(10, 16)
	l.SelectionChanged()
	s.sel = rng(6, 7) // single char, dropped
	l.SelectionChanged()
	s.pos = models.Position{Line: 1, Column: 7}
	l.CursorChanged()

	assert.Equal(t, []string{"fire", "desire", "and"}, got)
}

func rng(start, end int) models.Range {
	return models.Range{StartLine: 1, StartColumn: start, EndLine: 1, EndColumn: end}
}
