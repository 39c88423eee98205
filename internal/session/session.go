// Package session serves live editing sessions over WebSocket. Each
// connection mirrors the client's text, locates the word under the cursor
// or selection and pushes rhyme suggestions back.
package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/starford/lyricist/internal/editor"
	"github.com/starford/lyricist/internal/models"
	"github.com/starford/lyricist/internal/rhymes"
	"github.com/starford/lyricist/internal/words"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 1 << 20
	sendBuffer     = 64
)

// Handler upgrades requests to WebSocket sessions.
type Handler struct {
	lookup   rhymes.Lookup
	opts     []rhymes.Option
	logger   *slog.Logger
	upgrader websocket.Upgrader
	active   atomic.Int64
}

// NewHandler creates a session handler. opts configure each session's
// rhyme pipeline.
func NewHandler(lookup rhymes.Lookup, logger *slog.Logger, opts ...rhymes.Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		lookup: lookup,
		opts:   append([]rhymes.Option{rhymes.WithLogger(logger)}, opts...),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Active returns the number of open sessions.
func (h *Handler) Active() int {
	return int(h.active.Load())
}

// ServeHTTP is the session endpoint handler (GET /api/session).
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("session: upgrade failed", slog.String("error", err.Error()))
		return
	}

	s := newSession(conn, h.logger)
	s.pipeline = rhymes.NewPipeline(h.lookup, s, h.opts...)
	s.locator = words.NewLocator(s.buf, s.pipeline.Submit)

	n := h.active.Add(1)
	s.logger.Info("session: opened", slog.Int64("active", n))

	go s.writePump()
	s.send(helloMessage{Type: MsgHello, Session: s.id})
	s.readPump()

	s.pipeline.Close()
	close(s.out)
	n = h.active.Add(-1)
	s.logger.Info("session: closed", slog.Int64("active", n))
}

// Session is one live editing connection.
type Session struct {
	id       string
	conn     *websocket.Conn
	buf      *editor.Buffer
	locator  *words.Locator
	pipeline *rhymes.Pipeline
	logger   *slog.Logger
	out      chan []byte

	mu      sync.Mutex
	current []rhymes.Suggestion
}

func newSession(conn *websocket.Conn, logger *slog.Logger) *Session {
	id := uuid.NewString()
	s := &Session{
		id:     id,
		conn:   conn,
		buf:    editor.NewBuffer(""),
		logger: logger.With(slog.String("session", id)),
		out:    make(chan []byte, sendBuffer),
	}
	s.buf.SetListener(s)
	return s
}

// Render implements rhymes.Display. It replaces the client's list.
func (s *Session) Render(query models.WordAtPosition, suggestions []rhymes.Suggestion) {
	if suggestions == nil {
		suggestions = []rhymes.Suggestion{}
	}
	s.mu.Lock()
	s.current = suggestions
	s.mu.Unlock()
	s.send(rhymesMessage{Type: MsgRhymes, Query: query, Suggestions: suggestions})
}

// Edited implements editor.Listener.
func (s *Session) Edited(r models.Range, text string) {
	s.send(editMessage{Type: MsgEdit, Range: r, Text: text})
}

// Focused implements editor.Listener.
func (s *Session) Focused() {
	s.send(focusMessage{Type: MsgFocus})
}

func (s *Session) send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("session: marshal failed", slog.String("error", err.Error()))
		return
	}
	select {
	case s.out <- data:
	default:
		s.logger.Warn("session: send buffer full, dropping message")
	}
}

func (s *Session) sendSyllables() {
	s.send(syllablesMessage{Type: MsgSyllables, Lines: words.CountLines(s.buf.Text())})
}

func (s *Session) sendStatus() {
	s.send(statusMessage{Type: MsgStatus, Version: s.buf.Version(), Modified: s.buf.Modified()})
}

func (s *Session) sendError(format string, args ...any) {
	s.send(errorMessage{Type: MsgError, Message: fmt.Sprintf(format, args...)})
}

func (s *Session) readPump() {
	defer s.conn.Close()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("session: unexpected close", slog.String("error", err.Error()))
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError("invalid message: %v", err)
			continue
		}
		s.handle(msg)
	}
}

func (s *Session) handle(msg ClientMessage) {
	switch msg.Type {
	case MsgText:
		if msg.Saved {
			s.buf.Load(msg.Text)
		} else {
			s.buf.SetText(msg.Text)
		}
		s.sendSyllables()
		s.sendStatus()
	case MsgSaved:
		s.buf.MarkSaved()
		s.sendStatus()
	case MsgCursor:
		if msg.Position == nil {
			s.sendError("cursor: missing position")
			return
		}
		s.buf.SetCursor(*msg.Position)
		s.locator.CursorChanged()
	case MsgSelection:
		if msg.Selection == nil {
			s.sendError("selection: missing range")
			return
		}
		s.buf.SetSelection(*msg.Selection)
		s.locator.SelectionChanged()
	case MsgChoose:
		s.mu.Lock()
		var chosen *rhymes.Suggestion
		if msg.Index >= 0 && msg.Index < len(s.current) {
			chosen = &s.current[msg.Index]
		}
		s.mu.Unlock()
		if chosen == nil {
			s.sendError("choose: no suggestion at index %d", msg.Index)
			return
		}
		if err := chosen.Apply(s.buf); err != nil {
			s.sendError("choose: %v", err)
			return
		}
		s.sendSyllables()
		s.sendStatus()
	default:
		s.sendError("unknown message type %q", msg.Type)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
