package analysis

import (
	"bytes"
	"strings"

	"github.com/clipperhouse/uax29/words"
)

// UnicodeTokenizer splits text on Unicode word boundaries (UAX #29), elides
// apostrophes inside words, re-joins words bridged only by apostrophes, and
// emits one extra compound token for each run of dash-joined words.
//
// Input must be well-formed UTF-8; the caller guarantees that. Given valid
// text, tokenization never fails: pathological inputs (empty string, no word
// characters, punctuation-only words) yield an empty stream.
//
// A tokenizer instance may be reused sequentially. Each call to Tokenize
// returns an independent single-use stream; concurrent callers must each use
// their own stream.
type UnicodeTokenizer struct{}

// NewUnicodeTokenizer creates a new UnicodeTokenizer.
func NewUnicodeTokenizer() *UnicodeTokenizer {
	return &UnicodeTokenizer{}
}

// Tokenize computes the full token sequence for text and returns a pull
// cursor over it.
func (t *UnicodeTokenizer) Tokenize(text string) *TokenStream {
	return newTokenStream(tokenizeText(text))
}

// tokenizeText runs the segment → split → merge → expand pipeline and
// returns the finalized tokens in emission order.
func tokenizeText(text string) []pendingToken {
	var merged []pendingToken

	// UAX #29 segments are contiguous and cover the whole input, so the
	// running byte offset is the sum of preceding segment lengths. Segments
	// with no word character (whitespace, punctuation runs) are dropped.
	seg := words.NewSegmenter([]byte(text))
	offset := 0
	for seg.Next() {
		wordOffset := offset
		offset += len(seg.Bytes())
		if !bytes.ContainsFunc(seg.Bytes(), isAlphanumeric) {
			continue
		}

		for _, tok := range splitWordTokens(wordOffset, string(seg.Bytes())) {
			// A segmenter boundary can fall exactly on an apostrophe
			// (e.g. a grave accent used as one). When the bytes between the
			// previous token and this one are purely apostrophes, stitch the
			// halves back into a single token. Chains left-associatively.
			if n := len(merged); n > 0 {
				last := &merged[n-1]
				if tok.offsetFrom >= last.offsetTo && isApostropheRun(text[last.offsetTo:tok.offsetFrom]) {
					last.text += tok.text
					last.offsetTo = tok.offsetTo
					continue
				}
			}
			merged = append(merged, tok)
		}
	}
	// The segmenter errors only on malformed UTF-8, which the Tokenize
	// contract excludes. The defined result for such input is an empty stream.
	if seg.Err() != nil {
		return nil
	}

	return expandDashCompounds(merged, text)
}

// splitWordTokens walks one segmented word character by character and splits
// it on internal punctuation. An apostrophe-like character strictly between
// two alphanumerics is elided: it never reaches the output text, but the
// token's span keeps covering its bytes. Any other non-alphanumeric flushes
// the current accumulator.
func splitWordTokens(wordOffset int, word string) []pendingToken {
	type runeAt struct {
		byteIdx int
		r       rune
	}
	chars := make([]runeAt, 0, len(word))
	for i, r := range word {
		chars = append(chars, runeAt{i, r})
	}

	var (
		tokens []pendingToken
		text   strings.Builder
		start  = -1
		end    int
	)
	flush := func() {
		if start >= 0 && text.Len() > 0 {
			tokens = append(tokens, pendingToken{
				text:       text.String(),
				offsetFrom: wordOffset + start,
				offsetTo:   wordOffset + end,
			})
		}
		text.Reset()
		start = -1
		end = 0
	}

	for i, c := range chars {
		nextByte := len(word)
		if i+1 < len(chars) {
			nextByte = chars[i+1].byteIdx
		}
		prevAlnum := i > 0 && isAlphanumeric(chars[i-1].r)
		nextAlnum := i+1 < len(chars) && isAlphanumeric(chars[i+1].r)

		switch {
		case isApostropheLike(c.r) && prevAlnum && nextAlnum:
			// Elide: sam's → sams. The span still closes over the
			// apostrophe's bytes.
			end = nextByte
		case isAlphanumeric(c.r):
			if start < 0 {
				start = c.byteIdx
			}
			text.WriteRune(c.r)
			end = nextByte
		default:
			// An apostrophe at a word edge splits like any other
			// punctuation.
			flush()
		}
	}
	flush()

	return tokens
}

// expandDashCompounds keeps every token and additionally appends one compound
// token per maximal run of tokens bridged pairwise by dash-like separators.
// A run of N tokens yields N individual tokens plus exactly 1 compound, never
// N-1 pairwise compounds. The compound carries the concatenated text (dashes
// excluded) and spans first.offsetFrom to last.offsetTo.
func expandDashCompounds(tokens []pendingToken, text string) []pendingToken {
	if len(tokens) == 0 {
		return tokens
	}

	expanded := make([]pendingToken, 0, len(tokens))
	for idx := 0; idx < len(tokens); {
		expanded = append(expanded, tokens[idx])

		var compound strings.Builder
		compound.WriteString(tokens[idx].text)
		runEnd := idx
		combinedEnd := tokens[idx].offsetTo
		bridged := false

		for runEnd+1 < len(tokens) &&
			tokens[runEnd].offsetTo <= tokens[runEnd+1].offsetFrom &&
			isDashRun(text[tokens[runEnd].offsetTo:tokens[runEnd+1].offsetFrom]) {
			bridged = true
			runEnd++
			compound.WriteString(tokens[runEnd].text)
			combinedEnd = tokens[runEnd].offsetTo
			expanded = append(expanded, tokens[runEnd])
		}

		if bridged {
			expanded = append(expanded, pendingToken{
				text:       compound.String(),
				offsetFrom: tokens[idx].offsetFrom,
				offsetTo:   combinedEnd,
			})
			idx = runEnd + 1
		} else {
			idx++
		}
	}
	return expanded
}
