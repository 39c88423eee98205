package models

// Position is a 1-based line and rune column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Range spans [Start, End) in document coordinates.
type Range struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
}

// IsEmpty reports whether the range covers no text.
func (r Range) IsEmpty() bool {
	return r.StartLine == r.EndLine && r.StartColumn == r.EndColumn
}

// WordAtPosition is a word and the exact span it was taken from.
// It is comparable; == is the structural equality used for deduplication.
type WordAtPosition struct {
	Word  string `json:"word"`
	Range Range  `json:"range"`
}

// RhymeCandidate is one suggestion returned by the rhyme collaborator.
type RhymeCandidate struct {
	Word      string `json:"word"`
	Score     int    `json:"score,omitempty"`
	Syllables int    `json:"numSyllables,omitempty"`
}
