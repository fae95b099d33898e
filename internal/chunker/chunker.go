// Package chunker splits oversized documents into overlapping fragments
// along a coarse-to-fine separator ladder.
//
// Sizes and the overlap window are measured in runes, not bytes: the corpus
// carries CJK comment text where byte counts would triple the apparent size.
package chunker

import (
	"strings"

	"github.com/singabi/dbkb/internal/document"
)

// separators ordered coarsest to finest. The empty string is the terminal
// level: split into individual runes.
var separators = []string{"\n\n", "\n", "。", ". ", "；", "，", ", ", " ", ""}

// Split returns the document unchanged (in a one-element slice) when its
// content fits within maxSize runes. Otherwise it returns overlapping chunks
// that each inherit the parent's category, metadata, and hash; the parent
// hash stays the unit of change detection, chunks are never tracked
// individually. Ordinal records the chunk position for stable storage ids.
func Split(doc document.Document, maxSize, overlap int) []document.Document {
	if len([]rune(doc.Content)) <= maxSize {
		return []document.Document{doc}
	}

	units := splitText(doc.Content, maxSize, separators)
	pieces := pack(units, maxSize, overlap)

	chunks := make([]document.Document, 0, len(pieces))

	for i, piece := range pieces {
		chunk := doc
		chunk.Content = piece
		chunk.Ordinal = i
		chunks = append(chunks, chunk)
	}

	return chunks
}

// splitText recursively breaks text into units no longer than maxSize runes,
// splitting on the first separator from seps that actually occurs in the text
func splitText(text string, maxSize int, seps []string) []string {
	if len([]rune(text)) <= maxSize {
		return []string{text}
	}

	sep, rest := pickSeparator(text, seps)

	if sep == "" {
		return splitRunes(text, maxSize)
	}

	var units []string

	// SplitAfter keeps the separator attached so rejoining chunks loses
	// nothing of the original text
	for _, part := range strings.SplitAfter(text, sep) {
		if part == "" {
			continue
		}

		if len([]rune(part)) > maxSize {
			units = append(units, splitText(part, maxSize, rest)...)
		} else {
			units = append(units, part)
		}
	}

	return units
}

// pickSeparator returns the first separator present in text and the finer
// levels below it. The empty-string terminal level is reported as "".
func pickSeparator(text string, seps []string) (string, []string) {
	for i, sep := range seps {
		if sep == "" {
			return "", nil
		}

		if strings.Contains(text, sep) {
			return sep, seps[i+1:]
		}
	}

	return "", nil
}

func splitRunes(text string, maxSize int) []string {
	runes := []rune(text)

	var units []string

	for start := 0; start < len(runes); start += maxSize {
		end := min(start+maxSize, len(runes))
		units = append(units, string(runes[start:end]))
	}

	return units
}

// pack greedily joins units into chunks of at most maxSize runes, seeding
// each chunk after the first with the last overlap runes of its predecessor.
// The overlap tail is dropped when it would push the chunk past maxSize.
func pack(units []string, maxSize, overlap int) []string {
	var chunks []string

	var current []rune

	flush := func() {
		if len(current) == 0 {
			return
		}

		chunks = append(chunks, string(current))

		if overlap > 0 && overlap < len(current) {
			tail := make([]rune, overlap)
			copy(tail, current[len(current)-overlap:])
			current = tail
		} else {
			current = nil
		}
	}

	for _, unit := range units {
		runes := []rune(unit)

		if len(current)+len(runes) > maxSize {
			if len(current) > 0 {
				flush()
			}

			// overlap tail plus the next unit may still overflow
			if len(current)+len(runes) > maxSize {
				current = nil
			}
		}

		current = append(current, runes...)
	}

	if len(current) > 0 {
		chunks = append(chunks, string(current))
	}

	return chunks
}
