package detector

import (
	"math"
	"strings"
	"unicode"
)

// FleschReadingEase computes 206.835 - 1.015*(words/sentences) -
// 84.6*(syllables/words). Syllables are approximated by vowel groups.
// Empty text scores 0.
func FleschReadingEase(text string) float64 {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	if len(words) == 0 {
		return 0
	}

	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}
	sentences := countSentences(text)

	wps := float64(len(words)) / float64(sentences)
	spw := float64(syllables) / float64(len(words))
	return round(206.835-1.015*wps-84.6*spw, 2)
}

func countSentences(text string) int {
	n := 0
	inTerminator := false
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			if !inTerminator {
				n++
			}
			inTerminator = true
		default:
			if !unicode.IsSpace(r) {
				inTerminator = false
			}
		}
	}
	trimmed := strings.TrimRightFunc(text, unicode.IsSpace)
	if trimmed != "" && !strings.ContainsAny(trimmed[len(trimmed)-1:], ".!?") {
		n++
	}
	if n == 0 {
		return 1
	}
	return n
}

func countSyllables(word string) int {
	word = strings.ToLower(word)
	count := 0
	prevVowel := false
	for _, r := range word {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	if strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") && count > 1 {
		count--
	}
	if count == 0 {
		return 1
	}
	return count
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
