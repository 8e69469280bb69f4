package analysis

import "math"

// TokenStream is a single-pass pull cursor over the tokens computed for one
// input text. It is not restartable; callers needing the tokens twice must
// tokenize again. A stream holds no reference to the input after
// construction.
type TokenStream struct {
	pending []pendingToken
	next    int
	token   Token
}

func newTokenStream(pending []pendingToken) *TokenStream {
	return &TokenStream{
		pending: pending,
		// The first Advance wraps the position counter around to 0.
		token: Token{Position: math.MaxUint64},
	}
}

// Advance moves the cursor to the next token and reports whether one was
// available. Once it returns false the stream is exhausted and every further
// call returns false without changing state.
func (s *TokenStream) Advance() bool {
	if s.next >= len(s.pending) {
		return false
	}
	p := s.pending[s.next]
	s.next++

	s.token.Text = p.text
	s.token.OffsetFrom = p.offsetFrom
	s.token.OffsetTo = p.offsetTo
	s.token.Position++
	return true
}

// Token returns the token most recently advanced to. The pointed-to value is
// overwritten by the next Advance; callers retaining a token must copy it.
func (s *TokenStream) Token() *Token {
	return &s.token
}
