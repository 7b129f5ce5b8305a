// Package suggest turns raw model output into review candidates. Model
// responses range from a clean JSON array to JSON fragments buried in
// prose, so extraction is an ordered chain of strategies; the first one
// that yields candidates wins.
package suggest

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Candidate is one proposed edit: the text the model quoted from the
// document and the replacement it recommends.
type Candidate struct {
	Original    string `json:"original"`
	Recommended string `json:"recommended"`
}

var (
	originalValueRe    = regexp.MustCompile(`"original_text"\s*:\s*"((?:\\"|[^"])*?)"`)
	recommendedValueRe = regexp.MustCompile(`"recommended_text"\s*:\s*"((?:\\"|[^"])*?)"`)
	blockStartRe       = regexp.MustCompile(`\{\s*"original_text"`)
)

type rawPair struct {
	Original    string `json:"original_text"`
	Recommended string `json:"recommended_text"`
}

// Parse extracts candidates from raw model output. sourceText is the text
// that was sent for review; it is only consulted in selection mode, where
// a response with no extractable pairs is treated as a direct rewrite of
// the whole selection.
func Parse(content, sourceText string, selection bool) []Candidate {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	if candidates := parseStrictJSON(content); len(candidates) > 0 {
		return candidates
	}
	if candidates := parsePairedValues(content); len(candidates) > 0 {
		return candidates
	}
	if candidates := parseBlocks(content); len(candidates) > 0 {
		return candidates
	}
	if selection {
		if strings.TrimSpace(sourceText) == "" {
			return nil
		}
		return []Candidate{{Original: sourceText, Recommended: content}}
	}
	return parseLines(content)
}

func parseStrictJSON(content string) []Candidate {
	trimmed := strings.TrimSpace(content)
	var list []rawPair
	if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
		var candidates []Candidate
		for _, item := range list {
			if item.Original != "" && item.Recommended != "" {
				candidates = append(candidates, Candidate{Original: item.Original, Recommended: item.Recommended})
			}
		}
		return candidates
	}
	var single rawPair
	if err := json.Unmarshal([]byte(trimmed), &single); err == nil {
		if single.Original != "" && single.Recommended != "" {
			return []Candidate{{Original: single.Original, Recommended: single.Recommended}}
		}
	}
	return nil
}

// parsePairedValues collects every original_text value and every
// recommended_text value independently and pairs them positionally when
// the counts agree.
func parsePairedValues(content string) []Candidate {
	originals := extractAll(originalValueRe, content)
	recommendeds := extractAll(recommendedValueRe, content)
	if len(originals) == 0 || len(originals) != len(recommendeds) {
		return nil
	}
	candidates := make([]Candidate, 0, len(originals))
	for i := range originals {
		if originals[i] == "" || recommendeds[i] == "" {
			continue
		}
		candidates = append(candidates, Candidate{Original: originals[i], Recommended: recommendeds[i]})
	}
	return candidates
}

// parseBlocks splits the response at each `{"original_text"` opener and
// extracts one pair per block that carries both keys. Used when the two
// value counts disagree, which happens when the model drops or duplicates
// a field.
func parseBlocks(content string) []Candidate {
	starts := blockStartRe.FindAllStringIndex(content, -1)
	if len(starts) == 0 {
		return nil
	}
	var candidates []Candidate
	for i, start := range starts {
		end := len(content)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		block := content[start[0]:end]
		if !strings.Contains(block, "original_text") || !strings.Contains(block, "recommended_text") {
			continue
		}
		original, okOriginal := extractFirst(originalValueRe, block)
		recommended, okRecommended := extractFirst(recommendedValueRe, block)
		if !okOriginal || !okRecommended || original == "" || recommended == "" {
			continue
		}
		candidates = append(candidates, Candidate{Original: original, Recommended: recommended})
	}
	return candidates
}

// parseLines is the last resort: a line-oriented scan that pairs each
// recommended_text value with the most recently seen original_text value.
func parseLines(content string) []Candidate {
	var candidates []Candidate
	var pending string
	havePending := false
	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.Contains(line, `"original_text"`):
			if value, ok := extractFirst(originalValueRe, line); ok {
				pending = value
				havePending = true
			}
		case strings.Contains(line, `"recommended_text"`) && havePending:
			value, ok := extractFirst(recommendedValueRe, line)
			if !ok || pending == "" || value == "" {
				continue
			}
			candidates = append(candidates, Candidate{Original: pending, Recommended: value})
			pending = ""
			havePending = false
		}
	}
	return candidates
}

func extractAll(re *regexp.Regexp, content string) []string {
	matches := re.FindAllStringSubmatch(content, -1)
	values := make([]string, 0, len(matches))
	for _, match := range matches {
		values = append(values, Unescape(match[1]))
	}
	return values
}

func extractFirst(re *regexp.Regexp, content string) (string, bool) {
	match := re.FindStringSubmatch(content)
	if match == nil {
		return "", false
	}
	return Unescape(match[1]), true
}

// Unescape resolves the escape sequences the model emits inside string
// values. Order matters: quote before newline before backslash. Collapsing
// double backslashes first would leave sequences like `\\n` looking like an
// escaped newline and unescape them twice.
func Unescape(value string) string {
	value = strings.ReplaceAll(value, `\"`, `"`)
	value = strings.ReplaceAll(value, `\n`, "\n")
	value = strings.ReplaceAll(value, `\\`, `\`)
	return value
}
