package session

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lyricist/internal/models"
	"github.com/starford/lyricist/internal/rhymes"
)

type frame struct {
	Type        string                `json:"type"`
	Session     string                `json:"session"`
	Query       models.WordAtPosition `json:"query"`
	Suggestions []rhymes.Suggestion   `json:"suggestions"`
	Range       models.Range          `json:"range"`
	Text        string                `json:"text"`
	Message     string                `json:"message"`
	Lines       []int                 `json:"lines"`
	Version     uint64                `json:"version"`
	Modified    bool                  `json:"modified"`
}

func dial(t *testing.T, h *Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

// readUntil skips frames until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) frame {
	t.Helper()
	for {
		if f := readFrame(t, conn); f.Type == typ {
			return f
		}
	}
}

func write(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func fixedLookup(words ...string) rhymes.Lookup {
	return rhymes.LookupFunc(func(_ context.Context, _ string) ([]models.RhymeCandidate, error) {
		out := make([]models.RhymeCandidate, len(words))
		for i, w := range words {
			out[i] = models.RhymeCandidate{Word: w}
		}
		return out, nil
	})
}

func TestSession_Hello(t *testing.T) {
	h := NewHandler(fixedLookup(), nil, rhymes.WithDebounce(10*time.Millisecond))
	conn := dial(t, h)

	f := readFrame(t, conn)
	assert.Equal(t, MsgHello, f.Type)
	assert.Len(t, f.Session, 36)
	assert.Eventually(t, func() bool { return h.Active() == 1 }, time.Second, 5*time.Millisecond)
}

func TestSession_CursorProducesRhymesAndChooseEdits(t *testing.T) {
	h := NewHandler(fixedLookup("mine", "fine"), nil, rhymes.WithDebounce(10*time.Millisecond))
	conn := dial(t, h)
	readUntil(t, conn, MsgHello)

	write(t, conn, ClientMessage{Type: MsgText, Text: "I walk the line"})
	write(t, conn, ClientMessage{Type: MsgCursor, Position: &models.Position{Line: 1, Column: 13}})

	f := readUntil(t, conn, MsgRhymes)
	assert.Equal(t, "line", f.Query.Word)
	require.Len(t, f.Suggestions, 2)
	assert.Equal(t, "mine", f.Suggestions[0].Word)
	assert.Equal(t, "fine", f.Suggestions[1].Word)
	want := models.Range{StartLine: 1, StartColumn: 12, EndLine: 1, EndColumn: 16}
	assert.Equal(t, want, f.Suggestions[0].Target)

	write(t, conn, ClientMessage{Type: MsgChoose, Index: 1})
	edit := readUntil(t, conn, MsgEdit)
	assert.Equal(t, want, edit.Range)
	assert.Equal(t, "fine", edit.Text)
	assert.Equal(t, MsgFocus, readFrame(t, conn).Type)
}

func TestSession_SelectionProducesRhymes(t *testing.T) {
	h := NewHandler(fixedLookup("sky"), nil, rhymes.WithDebounce(10*time.Millisecond))
	conn := dial(t, h)
	readUntil(t, conn, MsgHello)

	write(t, conn, ClientMessage{Type: MsgText, Text: "fly high"})
	sel := models.Range{StartLine: 1, StartColumn: 5, EndLine: 1, EndColumn: 9}
	write(t, conn, ClientMessage{Type: MsgSelection, Selection: &sel})

	f := readUntil(t, conn, MsgRhymes)
	assert.Equal(t, "high", f.Query.Word)
	assert.Equal(t, sel, f.Query.Range)
}

func TestSession_Errors(t *testing.T) {
	h := NewHandler(fixedLookup(), nil, rhymes.WithDebounce(10*time.Millisecond))
	conn := dial(t, h)
	readUntil(t, conn, MsgHello)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, MsgError, readFrame(t, conn).Type)

	write(t, conn, ClientMessage{Type: MsgChoose, Index: 3})
	f := readFrame(t, conn)
	assert.Equal(t, MsgError, f.Type)
	assert.Contains(t, f.Message, "index 3")

	write(t, conn, ClientMessage{Type: MsgCursor})
	assert.Equal(t, MsgError, readFrame(t, conn).Type)

	write(t, conn, ClientMessage{Type: "dance"})
	assert.Contains(t, readFrame(t, conn).Message, "dance")
}

func TestSession_CloseReleasesSession(t *testing.T) {
	h := NewHandler(fixedLookup(), nil)
	conn := dial(t, h)
	readUntil(t, conn, MsgHello)
	require.Eventually(t, func() bool { return h.Active() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return h.Active() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestSession_TextReportsSyllables(t *testing.T) {
	h := NewHandler(fixedLookup(), nil, rhymes.WithDebounce(10*time.Millisecond))
	conn := dial(t, h)
	readUntil(t, conn, MsgHello)

	write(t, conn, ClientMessage{Type: MsgText, Text: "Down by the river\nI walk the line\n"})
	f := readUntil(t, conn, MsgSyllables)
	assert.Equal(t, []int{5, 4, 0}, f.Lines)
}

func TestSession_ModifiedFollowsSaves(t *testing.T) {
	h := NewHandler(fixedLookup("mine"), nil, rhymes.WithDebounce(10*time.Millisecond))
	conn := dial(t, h)
	readUntil(t, conn, MsgHello)

	write(t, conn, ClientMessage{Type: MsgText, Text: "I walk the line", Saved: true})
	st := readUntil(t, conn, MsgStatus)
	assert.False(t, st.Modified)

	write(t, conn, ClientMessage{Type: MsgText, Text: "I walk the line tonight"})
	st = readUntil(t, conn, MsgStatus)
	assert.True(t, st.Modified)
	first := st.Version

	write(t, conn, ClientMessage{Type: MsgSaved})
	st = readUntil(t, conn, MsgStatus)
	assert.False(t, st.Modified)
	assert.Equal(t, first, st.Version)

	write(t, conn, ClientMessage{Type: MsgCursor, Position: &models.Position{Line: 1, Column: 13}})
	readUntil(t, conn, MsgRhymes)
	write(t, conn, ClientMessage{Type: MsgChoose, Index: 0})
	readUntil(t, conn, MsgEdit)

	syl := readUntil(t, conn, MsgSyllables)
	assert.Equal(t, []int{6}, syl.Lines)
	st = readUntil(t, conn, MsgStatus)
	assert.True(t, st.Modified)
	assert.Greater(t, st.Version, first)
}
