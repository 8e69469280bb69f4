package analysis

import "unicode"

// The apostrophe and dash classes below are fixed tables of lookalike code
// points. Unicode occasionally grows new lookalikes; extend the tables here
// rather than branching inline in the pipeline stages.

// isApostropheLike reports whether r is one of the code points treated as an
// apostrophe.
func isApostropheLike(r rune) bool {
	switch r {
	case '\'',
		'’', // right single quotation mark
		'‘', // left single quotation mark
		'‛', // single high-reversed-9 quotation mark
		'ʼ', // modifier letter apostrophe
		'＇', // fullwidth apostrophe
		'`',      // grave accent
		'´', // acute accent
		'ʹ', // modifier letter prime
		'′': // prime
		return true
	}
	return false
}

// isDashLike reports whether r is one of the code points treated as a hyphen
// or dash.
func isDashLike(r rune) bool {
	switch r {
	case '-',
		'‐', // hyphen
		'‑', // non-breaking hyphen
		'‒', // figure dash
		'–', // en dash
		'—', // em dash
		'―', // horizontal bar
		'−', // minus sign
		'﹣', // small hyphen-minus
		'－': // fullwidth hyphen-minus
		return true
	}
	return false
}

// isApostropheRun reports whether s is non-empty and consists entirely of
// apostrophe-like characters.
func isApostropheRun(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isApostropheLike(r) {
			return false
		}
	}
	return true
}

// isDashRun reports whether s is non-empty and consists entirely of
// dash-like characters.
func isDashRun(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isDashLike(r) {
			return false
		}
	}
	return true
}

// isAlphanumeric is the word-character class shared by all pipeline stages.
func isAlphanumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
