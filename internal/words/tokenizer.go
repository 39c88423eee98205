// Package words finds the word of interest under the cursor or selection.
package words

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// wordRe is an optional leading apostrophe, a word character, then word
// characters or apostrophes. Hyphens separate words.
var wordRe = regexp.MustCompile(`'?[\p{L}\p{N}_][\p{L}\p{N}_']*`)

// Token is a word on a single line. Start and End are 1-based rune
// columns, End exclusive.
type Token struct {
	Word  string
	Start int
	End   int
}

// Tokenize returns the words of line in order.
func Tokenize(line string) []Token {
	locs := wordRe.FindAllStringIndex(line, -1)
	out := make([]Token, 0, len(locs))
	col, prev := 1, 0
	for _, loc := range locs {
		col += utf8.RuneCountInString(line[prev:loc[0]])
		word := line[loc[0]:loc[1]]
		n := utf8.RuneCountInString(word)
		out = append(out, Token{Word: word, Start: col, End: col + n})
		col += n
		prev = loc[1]
	}
	return out
}

// At returns the token containing column. A column on either edge of a
// word counts as inside it; the earlier word wins when two words touch.
func At(line string, column int) (Token, bool) {
	for _, tok := range Tokenize(line) {
		if tok.Start <= column && column <= tok.End {
			return tok, true
		}
		if tok.Start > column {
			break
		}
	}
	return Token{}, false
}

// IsWordRune reports whether r can start a word: a letter, a number
// (any \p{N}, so "²" and "Ⅻ" count) or an underscore.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
