package rhymes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lyricist/internal/editor"
	"github.com/starford/lyricist/internal/models"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// scriptedLookup answers "<word>-rhyme" unless told to block or fail.
type scriptedLookup struct {
	mu    sync.Mutex
	calls []string
	gates map[string]chan struct{}
	fails map[string]error
}

func newScriptedLookup() *scriptedLookup {
	return &scriptedLookup{gates: map[string]chan struct{}{}, fails: map[string]error{}}
}

func (l *scriptedLookup) block(word string) chan struct{} {
	ch := make(chan struct{})
	l.mu.Lock()
	l.gates[word] = ch
	l.mu.Unlock()
	return ch
}

func (l *scriptedLookup) Rhymes(ctx context.Context, word string) ([]models.RhymeCandidate, error) {
	l.mu.Lock()
	l.calls = append(l.calls, word)
	gate := l.gates[word]
	err := l.fails[word]
	l.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return []models.RhymeCandidate{{Word: word + "-rhyme"}}, nil
}

func (l *scriptedLookup) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type rendered struct {
	query       models.WordAtPosition
	suggestions []Suggestion
}

type recordingDisplay struct {
	mu      sync.Mutex
	renders []rendered
}

func (d *recordingDisplay) Render(q models.WordAtPosition, s []Suggestion) {
	d.mu.Lock()
	d.renders = append(d.renders, rendered{query: q, suggestions: s})
	d.mu.Unlock()
}

func (d *recordingDisplay) Renders() []rendered {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]rendered(nil), d.renders...)
}

func word(w string, col int) models.WordAtPosition {
	return models.WordAtPosition{
		Word:  w,
		Range: models.Range{StartLine: 1, StartColumn: col, EndLine: 1, EndColumn: col + len(w)},
	}
}

func TestPipeline_CollapsesBurst(t *testing.T) {
	lookup := newScriptedLookup()
	display := &recordingDisplay{}
	p := NewPipeline(lookup, display, WithDebounce(50*time.Millisecond))
	defer p.Close()

	p.Submit(word("fire", 1))
	p.Submit(word("fire", 1))
	p.Submit(word("desire", 10))

	require.Eventually(t, func() bool { return len(display.Renders()) == 1 }, waitFor, tick)
	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, []string{"desire"}, lookup.Calls())
	renders := display.Renders()
	require.Len(t, renders, 1)
	assert.Equal(t, "desire", renders[0].query.Word)
	require.Len(t, renders[0].suggestions, 1)
	assert.Equal(t, "desire-rhyme", renders[0].suggestions[0].Word)
}

func TestPipeline_NewerWordSupersedesInFlightLookup(t *testing.T) {
	lookup := newScriptedLookup()
	gate := lookup.block("slow")
	display := &recordingDisplay{}
	p := NewPipeline(lookup, display, WithDebounce(10*time.Millisecond))
	defer p.Close()

	p.Submit(word("slow", 1))
	require.Eventually(t, func() bool { return len(lookup.Calls()) == 1 }, waitFor, tick)
	assert.Equal(t, StateQuerying, p.State())

	p.Submit(word("fast", 6))
	require.Eventually(t, func() bool { return len(display.Renders()) == 1 }, waitFor, tick)

	close(gate)
	time.Sleep(50 * time.Millisecond)

	renders := display.Renders()
	require.Len(t, renders, 1)
	assert.Equal(t, "fast", renders[0].query.Word)
	assert.Equal(t, []string{"slow", "fast"}, lookup.Calls())
}

func TestPipeline_FailureClearsDisplay(t *testing.T) {
	lookup := newScriptedLookup()
	lookup.fails["broken"] = errors.New("connection refused")
	display := &recordingDisplay{}
	p := NewPipeline(lookup, display, WithDebounce(10*time.Millisecond))
	defer p.Close()

	p.Submit(word("broken", 1))
	require.Eventually(t, func() bool { return len(display.Renders()) == 1 }, waitFor, tick)

	assert.Empty(t, display.Renders()[0].suggestions)
	assert.Eventually(t, func() bool { return p.State() == StateIdle }, waitFor, tick)
}

func TestPipeline_TimeoutClearsDisplay(t *testing.T) {
	lookup := newScriptedLookup()
	lookup.block("never")
	display := &recordingDisplay{}
	p := NewPipeline(lookup, display,
		WithDebounce(10*time.Millisecond),
		WithLookupTimeout(20*time.Millisecond),
	)
	defer p.Close()

	p.Submit(word("never", 1))
	require.Eventually(t, func() bool { return len(display.Renders()) == 1 }, waitFor, tick)
	assert.Empty(t, display.Renders()[0].suggestions)
}

func TestPipeline_DedupesAgainstLastWordOnly(t *testing.T) {
	lookup := newScriptedLookup()
	display := &recordingDisplay{}
	p := NewPipeline(lookup, display, WithDebounce(10*time.Millisecond))
	defer p.Close()

	p.Submit(word("night", 1))
	require.Eventually(t, func() bool { return len(display.Renders()) == 1 }, waitFor, tick)

	p.Submit(word("night", 1))
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []string{"night"}, lookup.Calls())

	p.Submit(word("light", 7))
	require.Eventually(t, func() bool { return len(display.Renders()) == 2 }, waitFor, tick)
	p.Submit(word("night", 1))
	require.Eventually(t, func() bool { return len(display.Renders()) == 3 }, waitFor, tick)

	assert.Equal(t, []string{"night", "light", "night"}, lookup.Calls())
}

func TestPipeline_SameWordDifferentRangeIsNew(t *testing.T) {
	lookup := newScriptedLookup()
	display := &recordingDisplay{}
	p := NewPipeline(lookup, display, WithDebounce(10*time.Millisecond))
	defer p.Close()

	p.Submit(word("love", 1))
	require.Eventually(t, func() bool { return len(display.Renders()) == 1 }, waitFor, tick)
	p.Submit(word("love", 20))
	require.Eventually(t, func() bool { return len(display.Renders()) == 2 }, waitFor, tick)
}

func TestPipeline_StateTransitions(t *testing.T) {
	lookup := newScriptedLookup()
	gate := lookup.block("wait")
	display := &recordingDisplay{}
	p := NewPipeline(lookup, display, WithDebounce(100*time.Millisecond))
	defer p.Close()

	assert.Equal(t, StateIdle, p.State())

	p.Submit(word("wait", 1))
	assert.Eventually(t, func() bool { return p.State() == StateDebouncing }, waitFor, tick)
	assert.Eventually(t, func() bool { return p.State() == StateQuerying }, waitFor, tick)

	close(gate)
	assert.Eventually(t, func() bool { return p.State() == StateIdle }, waitFor, tick)
	assert.Len(t, display.Renders(), 1)
}

func TestPipeline_PreservesCandidateOrderAndCapturedRange(t *testing.T) {
	lookup := LookupFunc(func(context.Context, string) ([]models.RhymeCandidate, error) {
		return []models.RhymeCandidate{{Word: "c"}, {Word: "a"}, {Word: "b"}}, nil
	})
	display := &recordingDisplay{}
	p := NewPipeline(lookup, display, WithDebounce(10*time.Millisecond))
	defer p.Close()

	q := word("day", 5)
	p.Submit(q)
	require.Eventually(t, func() bool { return len(display.Renders()) == 1 }, waitFor, tick)

	got := display.Renders()[0].suggestions
	require.Len(t, got, 3)
	for i, want := range []string{"c", "a", "b"} {
		assert.Equal(t, want, got[i].Word)
		assert.Equal(t, q.Range, got[i].Target)
	}
}

func TestPipeline_CloseCancelsLookup(t *testing.T) {
	cancelled := make(chan error, 1)
	lookup := LookupFunc(func(ctx context.Context, _ string) ([]models.RhymeCandidate, error) {
		<-ctx.Done()
		cancelled <- ctx.Err()
		return nil, ctx.Err()
	})
	p := NewPipeline(lookup, &recordingDisplay{}, WithDebounce(10*time.Millisecond))

	p.Submit(word("stuck", 1))
	require.Eventually(t, func() bool { return p.State() == StateQuerying }, waitFor, tick)
	p.Close()

	select {
	case err := <-cancelled:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(waitFor):
		t.Fatal("lookup was not cancelled")
	}

	// Safe after close.
	p.Submit(word("late", 1))
	assert.Equal(t, StateIdle, p.State())
	p.Close()
}

func TestSuggestion_ApplyReplacesCapturedRange(t *testing.T) {
	buf := editor.NewBuffer("we could be heroes\nforever and ever")
	s := Suggestion{
		RhymeCandidate: models.RhymeCandidate{Word: "zeroes"},
		Target:         models.Range{StartLine: 1, StartColumn: 13, EndLine: 1, EndColumn: 19},
	}

	// The cursor has moved on since the word was located.
	buf.SetCursor(models.Position{Line: 2, Column: 3})
	require.NoError(t, s.Apply(buf))

	assert.Equal(t, "we could be zeroes\nforever and ever", buf.Text())
	assert.True(t, buf.Focused())
}

func TestSuggestion_ApplyInvalidRangeDoesNotFocus(t *testing.T) {
	buf := editor.NewBuffer("short")
	s := Suggestion{
		RhymeCandidate: models.RhymeCandidate{Word: "long"},
		Target:         models.Range{StartLine: 4, StartColumn: 1, EndLine: 4, EndColumn: 3},
	}
	assert.Error(t, s.Apply(buf))
	assert.False(t, buf.Focused())
	assert.Equal(t, "short", buf.Text())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "debouncing", StateDebouncing.String())
	assert.Equal(t, "querying", StateQuerying.String())
	assert.Equal(t, "State(9)", State(9).String())
}
