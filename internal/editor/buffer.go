// Package editor holds the in-memory editing surface used by live sessions.
package editor

import (
	"fmt"
	"strings"
	"sync"

	"github.com/starford/lyricist/internal/models"
	"github.com/starford/lyricist/internal/words"
)

// Listener is notified of changes the buffer makes on its own behalf.
type Listener interface {
	Edited(r models.Range, text string)
	Focused()
}

// Buffer is a line-oriented text surface with a cursor and a selection.
// Columns are 1-based rune offsets.
//
// The buffer remembers the text last marked saved. It is modified while
// its text differs from that snapshot, so undoing back to the saved text
// clears the flag.
type Buffer struct {
	mu        sync.Mutex
	lines     []string
	cursor    models.Position
	selection models.Range
	focused   bool
	listener  Listener
	version   uint64
	saved     string
}

// NewBuffer creates an unmodified buffer holding text with the cursor at 1:1.
func NewBuffer(text string) *Buffer {
	b := &Buffer{saved: text}
	b.setText(text)
	return b
}

// SetListener registers l for edit and focus notifications.
func (b *Buffer) SetListener(l Listener) {
	b.mu.Lock()
	b.listener = l
	b.mu.Unlock()
}

// Text returns the full buffer contents.
func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text()
}

// SetText replaces the contents and clamps the cursor into the new text.
func (b *Buffer) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if text != b.text() {
		b.version++
	}
	b.setText(text)
}

// Load replaces the contents with freshly opened text and marks it saved.
func (b *Buffer) Load(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.version++
	b.setText(text)
	b.saved = text
}

// MarkSaved records the current text as the saved state.
func (b *Buffer) MarkSaved() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saved = b.text()
}

// Modified reports whether the text differs from the last saved state.
func (b *Buffer) Modified() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text() != b.saved
}

// Version increases with every change to the text.
func (b *Buffer) Version() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}

func (b *Buffer) text() string {
	return strings.Join(b.lines, "\n")
}

func (b *Buffer) setText(text string) {
	b.lines = strings.Split(text, "\n")
	b.cursor = b.clamp(b.cursor)
	b.selection = models.Range{
		StartLine: b.cursor.Line, StartColumn: b.cursor.Column,
		EndLine: b.cursor.Line, EndColumn: b.cursor.Column,
	}
}

// Position returns the cursor.
func (b *Buffer) Position() models.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor
}

// SetCursor moves the cursor and collapses the selection onto it.
func (b *Buffer) SetCursor(pos models.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursor = b.clamp(pos)
	b.selection = models.Range{
		StartLine: b.cursor.Line, StartColumn: b.cursor.Column,
		EndLine: b.cursor.Line, EndColumn: b.cursor.Column,
	}
}

// Selection returns the selected range.
func (b *Buffer) Selection() models.Range {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection
}

// SetSelection selects r and moves the cursor to its end.
func (b *Buffer) SetSelection(r models.Range) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r = b.clampRange(r)
	b.selection = r
	b.cursor = models.Position{Line: r.EndLine, Column: r.EndColumn}
}

// WordAt returns the word containing pos.
func (b *Buffer) WordAt(pos models.Position) (string, models.Range, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pos.Line < 1 || pos.Line > len(b.lines) {
		return "", models.Range{}, false
	}
	tok, ok := words.At(b.lines[pos.Line-1], pos.Column)
	if !ok {
		return "", models.Range{}, false
	}
	return tok.Word, models.Range{
		StartLine: pos.Line, StartColumn: tok.Start,
		EndLine: pos.Line, EndColumn: tok.End,
	}, true
}

// ValueInRange returns the text covered by r, lines joined with "\n".
func (b *Buffer) ValueInRange(r models.Range) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	r = b.clampRange(r)
	runes := []rune(strings.Join(b.lines, "\n"))
	return string(runes[b.offset(r.StartLine, r.StartColumn):b.offset(r.EndLine, r.EndColumn)])
}

// Replace swaps the text in r for text and leaves the cursor after it.
func (b *Buffer) Replace(r models.Range, text string) error {
	b.mu.Lock()
	if !b.validRange(r) {
		b.mu.Unlock()
		return fmt.Errorf("editor: range %d:%d-%d:%d outside buffer",
			r.StartLine, r.StartColumn, r.EndLine, r.EndColumn)
	}
	runes := []rune(strings.Join(b.lines, "\n"))
	start := b.offset(r.StartLine, r.StartColumn)
	end := b.offset(r.EndLine, r.EndColumn)

	var sb strings.Builder
	sb.WriteString(string(runes[:start]))
	sb.WriteString(text)
	sb.WriteString(string(runes[end:]))
	b.lines = strings.Split(sb.String(), "\n")
	b.version++
	b.cursor = b.positionAt(start + len([]rune(text)))
	b.selection = models.Range{
		StartLine: b.cursor.Line, StartColumn: b.cursor.Column,
		EndLine: b.cursor.Line, EndColumn: b.cursor.Column,
	}
	l := b.listener
	b.mu.Unlock()

	if l != nil {
		l.Edited(r, text)
	}
	return nil
}

// Focus gives input focus to the buffer.
func (b *Buffer) Focus() {
	b.mu.Lock()
	b.focused = true
	l := b.listener
	b.mu.Unlock()

	if l != nil {
		l.Focused()
	}
}

// Blur drops input focus.
func (b *Buffer) Blur() {
	b.mu.Lock()
	b.focused = false
	b.mu.Unlock()
}

// Focused reports whether the buffer has input focus.
func (b *Buffer) Focused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.focused
}

func (b *Buffer) lineLen(line int) int {
	return len([]rune(b.lines[line-1]))
}

func (b *Buffer) validPos(line, col int) bool {
	return line >= 1 && line <= len(b.lines) && col >= 1 && col <= b.lineLen(line)+1
}

func (b *Buffer) validRange(r models.Range) bool {
	if !b.validPos(r.StartLine, r.StartColumn) || !b.validPos(r.EndLine, r.EndColumn) {
		return false
	}
	return b.offset(r.StartLine, r.StartColumn) <= b.offset(r.EndLine, r.EndColumn)
}

func (b *Buffer) clamp(p models.Position) models.Position {
	if p.Line < 1 {
		p.Line = 1
	}
	if p.Line > len(b.lines) {
		p.Line = len(b.lines)
	}
	if p.Column < 1 {
		p.Column = 1
	}
	if n := b.lineLen(p.Line) + 1; p.Column > n {
		p.Column = n
	}
	return p
}

func (b *Buffer) clampRange(r models.Range) models.Range {
	s := b.clamp(models.Position{Line: r.StartLine, Column: r.StartColumn})
	e := b.clamp(models.Position{Line: r.EndLine, Column: r.EndColumn})
	if b.offset(s.Line, s.Column) > b.offset(e.Line, e.Column) {
		s, e = e, s
	}
	return models.Range{StartLine: s.Line, StartColumn: s.Column, EndLine: e.Line, EndColumn: e.Column}
}

// offset converts a valid position to a rune offset into the joined text.
func (b *Buffer) offset(line, col int) int {
	off := 0
	for i := 1; i < line; i++ {
		off += b.lineLen(i) + 1
	}
	return off + col - 1
}

func (b *Buffer) positionAt(off int) models.Position {
	for i := range b.lines {
		n := b.lineLen(i + 1)
		if off <= n {
			return models.Position{Line: i + 1, Column: off + 1}
		}
		off -= n + 1
	}
	last := len(b.lines)
	return models.Position{Line: last, Column: b.lineLen(last) + 1}
}
