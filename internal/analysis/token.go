package analysis

// Token is a single unit of tokenized text.
//
// OffsetFrom and OffsetTo delimit the half-open byte range the token claims
// within the original input. Because apostrophes are elided and bridged words
// are merged, len(Text) need not equal OffsetTo-OffsetFrom; the span always
// covers the source bytes the token was derived from, which is what
// highlighting needs.
type Token struct {
	Text       string
	OffsetFrom int
	OffsetTo   int

	// Position counts emissions, starting at 0 for the first token of a
	// stream and incrementing by exactly 1. It wraps on overflow instead of
	// failing so unbounded streaming keeps working.
	Position uint64
}

// pendingToken mirrors Token's shape while the pipeline stages are still
// mutating it. It is a plain value, never a reference into the source text.
type pendingToken struct {
	text       string
	offsetFrom int
	offsetTo   int
}
