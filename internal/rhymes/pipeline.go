package rhymes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/starford/lyricist/internal/apperr"
	"github.com/starford/lyricist/internal/models"
)

// DefaultDebounce is the quiet period before a lookup is issued.
const DefaultDebounce = 200 * time.Millisecond

// State is the pipeline's position in its query cycle.
type State int

const (
	StateIdle State = iota
	StateDebouncing
	StateQuerying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDebouncing:
		return "debouncing"
	case StateQuerying:
		return "querying"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Editor is the surface a chosen suggestion is applied to.
type Editor interface {
	Replace(r models.Range, text string) error
	Focus()
}

// Suggestion is a candidate bound to the range it would replace. The range
// is the one captured when the word was located, not the current cursor.
type Suggestion struct {
	models.RhymeCandidate
	Target models.Range `json:"target"`
}

// Apply replaces Target with the candidate and returns focus to ed.
func (s Suggestion) Apply(ed Editor) error {
	if err := ed.Replace(s.Target, s.Word); err != nil {
		return err
	}
	ed.Focus()
	return nil
}

// Display shows suggestions. Render replaces whatever was shown before;
// an empty slice leaves the display cleared.
type Display interface {
	Render(query models.WordAtPosition, suggestions []Suggestion)
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(query models.WordAtPosition, suggestions []Suggestion)

// Render calls f.
func (f DisplayFunc) Render(query models.WordAtPosition, suggestions []Suggestion) {
	f(query, suggestions)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDebounce sets the quiet period. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.debounce = d
		}
	}
}

// WithLookupTimeout bounds each lookup. Zero means no bound.
func WithLookupTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

type result struct {
	seq        uint64
	query      models.WordAtPosition
	candidates []models.RhymeCandidate
	err        error
}

// Pipeline turns a stream of located words into rendered rhyme suggestions.
//
// Consecutive duplicate words are dropped. Bursts are collapsed to the last
// word of the burst by a debounce timer. Every accepted word supersedes any
// lookup still in flight; only the newest lookup's result is rendered.
//
// A single internal loop owns all mutable state. Public methods talk to it
// over channels.
type Pipeline struct {
	lookup   Lookup
	display  Display
	logger   *slog.Logger
	debounce time.Duration
	timeout  time.Duration

	eventCh    chan models.WordAtPosition
	resultCh   chan result
	stateReqCh chan chan State

	ctx     context.Context
	cancel  context.CancelFunc
	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewPipeline starts a pipeline that looks words up with lookup and renders
// into display.
func NewPipeline(lookup Lookup, display Display, opts ...Option) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		lookup:     lookup,
		display:    display,
		logger:     slog.Default(),
		debounce:   DefaultDebounce,
		eventCh:    make(chan models.WordAtPosition, 64),
		resultCh:   make(chan result, 16),
		stateReqCh: make(chan chan State),
		ctx:        ctx,
		cancel:     cancel,
		stopCh:     make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	for _, o := range opts {
		o(p)
	}

	go p.run()
	return p
}

func (p *Pipeline) run() {
	defer close(p.stopped)

	var (
		last     models.WordAtPosition
		haveLast bool
		pending  models.WordAtPosition
		seq      uint64
		querying bool
		timer    *time.Timer
		timerC   <-chan time.Time
	)

	state := func() State {
		switch {
		case timerC != nil:
			return StateDebouncing
		case querying:
			return StateQuerying
		default:
			return StateIdle
		}
	}

	for {
		select {
		case <-p.stopCh:
			if timer != nil {
				timer.Stop()
			}
			p.cancel()
			return

		case w := <-p.eventCh:
			if haveLast && w == last {
				continue
			}
			last, haveLast = w, true
			pending = w
			seq++
			if timer == nil {
				timer = time.NewTimer(p.debounce)
			} else {
				timer.Reset(p.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			querying = true
			go p.query(seq, pending)

		case r := <-p.resultCh:
			if r.seq != seq {
				p.logger.Debug("rhymes: dropping stale result", slog.String("word", r.query.Word))
				continue
			}
			querying = false
			if r.err != nil {
				p.logger.Warn("rhymes: lookup failed",
					slog.String("word", r.query.Word), slog.String("error", r.err.Error()))
				p.display.Render(r.query, nil)
				continue
			}
			suggestions := make([]Suggestion, 0, len(r.candidates))
			for _, c := range r.candidates {
				suggestions = append(suggestions, Suggestion{RhymeCandidate: c, Target: r.query.Range})
			}
			p.display.Render(r.query, suggestions)

		case resp := <-p.stateReqCh:
			resp <- state()
		}
	}
}

func (p *Pipeline) query(seq uint64, w models.WordAtPosition) {
	ctx := p.ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	candidates, err := p.lookup.Rhymes(ctx, w.Word)
	if err != nil && !errors.Is(err, apperr.ErrLookup) {
		err = fmt.Errorf("%w: %w", apperr.ErrLookup, err)
	}

	select {
	case p.resultCh <- result{seq: seq, query: w, candidates: candidates, err: err}:
	case <-p.stopCh:
	}
}

// Submit feeds a located word into the pipeline.
func (p *Pipeline) Submit(w models.WordAtPosition) {
	if p.closed.Load() {
		return
	}
	select {
	case p.eventCh <- w:
	case <-p.stopped:
	}
}

// State reports the current cycle state.
func (p *Pipeline) State() State {
	if p.closed.Load() {
		return StateIdle
	}

	resp := make(chan State, 1)
	select {
	case p.stateReqCh <- resp:
	case <-p.stopped:
		return StateIdle
	}

	select {
	case s := <-resp:
		return s
	case <-p.stopped:
		return StateIdle
	}
}

// Close stops the loop and cancels any lookup in flight.
func (p *Pipeline) Close() {
	if p.closed.CompareAndSwap(false, true) {
		close(p.stopCh)
	}
	<-p.stopped
}
