package words

import (
	"strings"
	"unicode"
)

// Syllables estimates the spoken syllables in word by counting vowel
// groups, then correcting for a silent final e and for -es/-ed endings that
// do not form their own syllable. Any word with a letter has at least one.
// Words without letters, such as numerals, count zero.
func Syllables(word string) int {
	runes := []rune(strings.ToLower(strings.ReplaceAll(word, "'", "")))
	hasLetter := false
	for _, r := range runes {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return 0
	}

	n := 0
	prevVowel := false
	for _, r := range runes {
		v := isVowel(r)
		if v && !prevVowel {
			n++
		}
		prevVowel = v
	}

	if n > 1 && silentEnding(runes) {
		n--
	}
	if n < 1 {
		n = 1
	}
	return n
}

// silentEnding reports a final "e", "es" or "ed" whose vowel is usually not
// pronounced: "fire", "times", "loved", but not "table", "free", "roses",
// "wanted".
func silentEnding(w []rune) bool {
	l := len(w)
	if l < 3 {
		return false
	}
	last, prev := w[l-1], w[l-2]
	switch {
	case last == 'e':
		if prev == 'e' {
			return false
		}
		// consonant + "le" keeps its syllable.
		return !(prev == 'l' && !isVowel(w[l-3]))
	case prev == 'e' && last == 'd':
		return w[l-3] != 't' && w[l-3] != 'd' && !isVowel(w[l-3])
	case prev == 'e' && last == 's':
		if l < 4 {
			return false
		}
		c := w[l-3]
		if isVowel(c) || strings.ContainsRune("sxzcgh", c) {
			return false
		}
		// consonant + "les" keeps its syllable.
		return !(c == 'l' && !isVowel(w[l-4]))
	}
	return false
}

func isVowel(r rune) bool {
	return strings.ContainsRune("aeiouyàáâãäåæèéêëìíîïòóôõöøœùúûüýÿ", r)
}

// LineSyllables is the syllable total of the words on line.
func LineSyllables(line string) int {
	total := 0
	for _, tok := range Tokenize(line) {
		total += Syllables(tok.Word)
	}
	return total
}

// CountLines returns the syllable total of each line of text, in order.
func CountLines(text string) []int {
	lines := strings.Split(text, "\n")
	out := make([]int, len(lines))
	for i, line := range lines {
		out[i] = LineSyllables(line)
	}
	return out
}
