// Package sse implements a Server-Sent Events broker for real-time updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/starford/lyricist/internal/models"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Document event kinds accepted by PublishDocumentEvent.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
	KindSaved   = "saved"
)

// LibraryUpdate is the payload of library.updated: the distinct paths
// changed since the previous library.updated, sorted.
type LibraryUpdate struct {
	Paths []string `json:"paths"`
}

func validKind(kind string) bool {
	switch kind {
	case KindCreated, KindUpdated, KindDeleted, KindSaved:
		return true
	}
	return false
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients, the paths pending for library.updated and its throttle timer).
// Public methods communicate with this loop through channels, so no mutexes
// are required.
type Broker struct {
	libraryMin time.Duration

	subscribeCh     chan chan []byte
	unsubscribeCh   chan chan []byte
	publishCh       chan Event
	documentEventCh chan models.DocumentEvent
	countReqCh      chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. library.updated is sent at most once
// per libraryThrottle; changes arriving inside the window are coalesced into
// one trailing library.updated when it closes.
func NewBroker(libraryThrottle time.Duration) *Broker {
	if libraryThrottle <= 0 {
		libraryThrottle = 2 * time.Second
	}

	b := &Broker{
		libraryMin:      libraryThrottle,
		subscribeCh:     make(chan chan []byte),
		unsubscribeCh:   make(chan chan []byte),
		publishCh:       make(chan Event, 256),
		documentEventCh: make(chan models.DocumentEvent, 256),
		countReqCh:      make(chan chan int),
		stopCh:          make(chan struct{}),
		stopped:         make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	pending := make(map[string]struct{})
	var (
		lastLibrary time.Time
		libTimer    *time.Timer
		libC        <-chan time.Time
	)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		msg := fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)
		raw := []byte(msg)

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	flushLibrary := func(now time.Time) {
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		slices.Sort(paths)
		clear(pending)
		lastLibrary = now
		broadcast(Event{Type: "library.updated", Data: LibraryUpdate{Paths: paths}})
	}

	for {
		select {
		case <-b.stopCh:
			if libTimer != nil {
				libTimer.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case ev := <-b.documentEventCh:
			broadcast(Event{Type: "document." + ev.Kind, Data: ev})
			pending[ev.Path] = struct{}{}

			now := time.Now()
			if elapsed := now.Sub(lastLibrary); elapsed >= b.libraryMin {
				flushLibrary(now)
			} else if libC == nil {
				if libTimer == nil {
					libTimer = time.NewTimer(b.libraryMin - elapsed)
				} else {
					libTimer.Reset(b.libraryMin - elapsed)
				}
				libC = libTimer.C
			}

		case <-libC:
			libC = nil
			if len(pending) > 0 {
				flushLibrary(time.Now())
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishDocument publishes document.<kind> with ev as payload and feeds
// the throttled library.updated. Unknown kinds are ignored.
func (b *Broker) PublishDocument(ev models.DocumentEvent) {
	if b.closed.Load() || !validKind(ev.Kind) {
		return
	}
	select {
	case b.documentEventCh <- ev:
	case <-b.stopped:
	}
}

// PublishDocumentEvent publishes a change known only by kind and path, as
// reported by the file watcher.
func (b *Broker) PublishDocumentEvent(kind, path string) {
	b.PublishDocument(models.DocumentEvent{Kind: kind, Path: path})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
