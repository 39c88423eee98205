package session

import (
	"github.com/starford/lyricist/internal/models"
	"github.com/starford/lyricist/internal/rhymes"
)

// Client message types.
const (
	MsgText      = "text"
	MsgCursor    = "cursor"
	MsgSelection = "selection"
	MsgChoose    = "choose"
	MsgSaved     = "saved"
)

// Server message types.
const (
	MsgHello     = "hello"
	MsgRhymes    = "rhymes"
	MsgEdit      = "edit"
	MsgFocus     = "focus"
	MsgSyllables = "syllables"
	MsgStatus    = "status"
	MsgError     = "error"
)

// ClientMessage is one frame sent by the editor client.
type ClientMessage struct {
	Type      string           `json:"type"`
	Text      string           `json:"text,omitempty"`
	Position  *models.Position `json:"position,omitempty"`
	Selection *models.Range    `json:"selection,omitempty"`
	Index     int              `json:"index,omitempty"`
	// Saved marks a text frame as freshly loaded from disk.
	Saved bool `json:"saved,omitempty"`
}

type helloMessage struct {
	Type    string `json:"type"`
	Session string `json:"session"`
}

// rhymesMessage replaces the client's suggestion list.
type rhymesMessage struct {
	Type        string                `json:"type"`
	Query       models.WordAtPosition `json:"query"`
	Suggestions []rhymes.Suggestion   `json:"suggestions"`
}

type editMessage struct {
	Type  string       `json:"type"`
	Range models.Range `json:"range"`
	Text  string       `json:"text"`
}

// syllablesMessage carries one count per line of the buffer.
type syllablesMessage struct {
	Type  string `json:"type"`
	Lines []int  `json:"lines"`
}

type statusMessage struct {
	Type     string `json:"type"`
	Version  uint64 `json:"version"`
	Modified bool   `json:"modified"`
}

type focusMessage struct {
	Type string `json:"type"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
