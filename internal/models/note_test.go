package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPlayable(t *testing.T) {
	tests := []struct {
		name string
		ref  *ReferenceData
		want bool
	}{
		{"nil reference", nil, false},
		{"mp3 file", &ReferenceData{Kind: ReferenceKindFile, Locator: "/music/demo.mp3"}, true},
		{"wav file", &ReferenceData{Kind: ReferenceKindFile, Locator: "take2.wav"}, true},
		{"pdf file", &ReferenceData{Kind: ReferenceKindFile, Locator: "/docs/chords.pdf"}, false},
		{"no extension", &ReferenceData{Kind: ReferenceKindFile, Locator: "/music/demo"}, false},
		{"non-file kind", &ReferenceData{Kind: "url", Locator: "https://x/demo.mp3"}, false},
		{"uppercase extension", &ReferenceData{Kind: ReferenceKindFile, Locator: "demo.MP3"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPlayable(tt.ref))
		})
	}
}

func TestWordAtPosition_StructuralEquality(t *testing.T) {
	r := Range{StartLine: 1, StartColumn: 1, EndLine: 1, EndColumn: 5}
	a := WordAtPosition{Word: "love", Range: r}
	b := WordAtPosition{Word: "love", Range: r}
	c := WordAtPosition{Word: "love", Range: Range{StartLine: 2, StartColumn: 1, EndLine: 2, EndColumn: 5}}

	assert.True(t, a == b)
	assert.False(t, a == c)
}
