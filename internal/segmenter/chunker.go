package segmenter

import (
	"regexp"
	"strings"
	"unicode"

	"caption-plan-go/internal/config"
)

var (
	conjunctionRe   = regexp.MustCompile(`(?i)\b(and|but)\b`)
	spaceBeforePunc = regexp.MustCompile(`\s+([,.])`)
)

// Segmenter turns transcript entries into caption-sized segments.
type Segmenter struct {
	MaxWords int
	MinWords int
}

// New creates a segmenter from pipeline settings.
func New(settings config.Pipeline) *Segmenter {
	return &Segmenter{
		MaxWords: settings.MaxWords,
		MinWords: settings.MinWords,
	}
}

// WordCount returns the number of whitespace separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Chunk splits an entry's text into pieces of at most MaxWords words.
// Short entries are returned unchanged.
func (s *Segmenter) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) <= s.MaxWords {
		return []string{text}
	}

	chunks := splitSmart(text)
	for _, c := range chunks {
		if WordCount(c) > s.MaxWords {
			return fixedWindows(words, s.MaxWords)
		}
	}
	return chunks
}

// splitSmart breaks text around commas, sentence stops and the conjunctions
// "and"/"but".
func splitSmart(text string) []string {
	padded := strings.ReplaceAll(text, ",", " , ")
	padded = conjunctionRe.ReplaceAllString(padded, " $1 ")

	var (
		parts   []string
		current strings.Builder
	)
	flush := func() {
		if p := tidy(current.String()); p != "" {
			parts = append(parts, p)
		}
		current.Reset()
	}

	runes := []rune(padded)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if unicode.IsSpace(r) {
			j := i
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if j-i >= 2 {
				flush()
			} else {
				current.WriteRune(r)
			}
			i = j - 1
			continue
		}
		current.WriteRune(r)
		if r == ',' || r == '.' {
			flush()
		}
	}
	flush()
	return parts
}

// tidy collapses whitespace and re-attaches punctuation padded by splitSmart.
func tidy(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return spaceBeforePunc.ReplaceAllString(s, "$1")
}

func fixedWindows(words []string, size int) []string {
	out := make([]string, 0, (len(words)+size-1)/size)
	for i := 0; i < len(words); i += size {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		out = append(out, strings.Join(words[i:end], " "))
	}
	return out
}
