package document

import (
	"errors"
	"sort"
	"strings"
)

// ErrSpanNotFound reports that a candidate's original text could not be
// anchored anywhere in the document. The caller treats it as a
// recoverable per-item failure.
var ErrSpanNotFound = errors.New("span not found")

// commentPhraseLen is how much of the replacement text is used to relocate
// it for comment attachment after a whole-document replacement, when the
// original range no longer exists.
const commentPhraseLen = 20

// ConvertNewlines turns literal escaped-newline markers left in the
// replacement text into real line breaks before insertion.
func ConvertNewlines(text string) string {
	return strings.ReplaceAll(text, `\n`, "\n")
}

// ApplySelection replaces the live selection's content with the
// recommended text.
func ApplySelection(b *Buffer, recommended string) error {
	return b.Run(func(b *Buffer) error {
		if _, ok := b.Selection(); !ok {
			return ErrNoSelection
		}
		b.ReplaceSelection(ConvertNewlines(recommended))
		return nil
	})
}

// ApplyToDocument locates the candidate's original text and replaces it.
// The anchor paragraph takes the full replacement; any further paragraphs
// the span covered are removed in a second sync step so the anchor's
// identity is settled before deletions shift indices.
func ApplyToDocument(b *Buffer, original, recommended string) error {
	span, found := Locate(b.Paragraphs(), original)
	if !found {
		return ErrSpanNotFound
	}
	return b.Run(func(b *Buffer) error {
		b.ReplaceParagraph(span.Anchor, ConvertNewlines(recommended))
		if err := b.Sync(); err != nil {
			return err
		}
		extras := append([]int(nil), span.Extras...)
		sort.Sort(sort.Reverse(sort.IntSlice(extras)))
		for _, idx := range extras {
			b.DeleteParagraph(idx)
		}
		return nil
	})
}

// AttachComment annotates the applied replacement. In selection mode the
// live selection is the target; otherwise the replacement is relocated by
// its opening characters, since the original range reference died with
// the replacement. A miss skips the comment without failing.
func AttachComment(b *Buffer, recommended, comment string, selectionMode bool) (bool, error) {
	if comment == "" {
		return false, nil
	}
	var target Range
	if selectionMode {
		sel, ok := b.Selection()
		if !ok {
			return false, nil
		}
		target = sel
	} else {
		phrase := recommended
		if runes := []rune(phrase); len(runes) > commentPhraseLen {
			phrase = string(runes[:commentPhraseLen])
		}
		found, ok := b.SearchFirst(phrase)
		if !ok {
			return false, nil
		}
		target = found
	}
	err := b.Run(func(b *Buffer) error {
		b.InsertComment(target, comment)
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
