package document

import "strings"

const (
	// searchWordLimit bounds the anchor match to a short prefix of the
	// candidate text. Model quotes drift from the live document toward
	// the tail; a 15-word prefix keeps false positives rare without
	// failing on trailing differences.
	searchWordLimit = 15

	// containmentProbe is how much of the remaining candidate text a
	// paragraph must open with to be pulled into the span.
	containmentProbe = 50
)

// Span is the located region for a candidate: the anchor paragraph plus
// any following paragraphs the original text spills into.
type Span struct {
	Anchor int
	Extras []int
}

// Locate finds the span of paragraphs matching original. The anchor is the
// first paragraph containing the first 15 words of the normalized original
// as an in-order, case-insensitive word subsequence; the span then extends
// forward while subsequent paragraphs are contained in the unconsumed
// original text.
func Locate(paragraphs []string, original string) (Span, bool) {
	searchWords := prefixWords(original, searchWordLimit)
	if len(searchWords) == 0 {
		return Span{}, false
	}
	for i, para := range paragraphs {
		if !wordsInOrder(words(Normalize(para)), searchWords) {
			continue
		}
		span := Span{Anchor: i}
		remaining := Normalize(original)
		normalizedOriginal := remaining
		for j := i; j < len(paragraphs) && remaining != ""; j++ {
			paraText := Normalize(paragraphs[j])
			if paraText == "" {
				// Blank paragraphs inside the span are consumed with it,
				// so a candidate crossing a blank line is removed whole.
				if j != i {
					span.Extras = append(span.Extras, j)
				}
				continue
			}
			probe := remaining
			if len(probe) > containmentProbe {
				probe = probe[:containmentProbe]
			}
			if !strings.Contains(normalizedOriginal, paraText) && !strings.Contains(paraText, probe) {
				break
			}
			if j != i {
				span.Extras = append(span.Extras, j)
			}
			remaining = strings.TrimSpace(strings.Replace(remaining, paraText, "", 1))
		}
		return span, true
	}
	return Span{}, false
}

// Normalize collapses all whitespace runs to single spaces and trims. Both
// the candidate text and paragraph text go through this before any
// comparison, since the model's quoted text rarely preserves the
// document's exact whitespace.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// prefixWords returns up to limit leading words of the normalized text,
// with backslash escapes stripped the way the raw model quote carries
// them.
func prefixWords(text string, limit int) []string {
	cleaned := strings.ReplaceAll(text, "\\", "")
	fields := words(Normalize(cleaned))
	if len(fields) > limit {
		fields = fields[:limit]
	}
	return fields
}

func words(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}

// wordsInOrder reports whether every search word appears in haystack as a
// subsequence of whole words, case-insensitively and in increasing
// position order.
func wordsInOrder(haystack, search []string) bool {
	last := -1
	for _, want := range search {
		found := -1
		for idx := last + 1; idx < len(haystack); idx++ {
			if strings.EqualFold(strings.TrimSpace(haystack[idx]), strings.TrimSpace(want)) {
				found = idx
				break
			}
		}
		if found == -1 {
			return false
		}
		last = found
	}
	return true
}
