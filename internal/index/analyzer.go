package index

import (
	"fmt"
	"sync"
	"unicode"

	blugeanalysis "github.com/blugelabs/bluge/analysis"
	"github.com/blugelabs/bluge/analysis/analyzer"
	"github.com/blugelabs/bluge/analysis/token"
	"github.com/blugelabs/bluge/analysis/tokenizer"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"unisearch/internal/analysis"
)

// Registry manages analyzers by name.
type Registry struct {
	mu        sync.RWMutex
	analyzers map[string]*blugeanalysis.Analyzer
}

// NewRegistry creates a Registry with the built-in analyzers registered.
func NewRegistry() *Registry {
	r := &Registry{
		analyzers: make(map[string]*blugeanalysis.Analyzer),
	}
	r.analyzers[AnalyzerUnicode] = NewUnicodeAnalyzer()
	r.analyzers[AnalyzerStandard] = analyzer.NewStandardAnalyzer()
	r.analyzers[AnalyzerWhitespace] = &blugeanalysis.Analyzer{
		Tokenizer: tokenizer.NewWhitespaceTokenizer(),
	}
	r.analyzers[AnalyzerKeyword] = analyzer.NewKeywordAnalyzer()
	return r
}

// Get returns the analyzer registered under the given name.
func (r *Registry) Get(name string) (*blugeanalysis.Analyzer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.analyzers[name]
	if !ok {
		return nil, fmt.Errorf("unknown analyzer: %q", name)
	}
	return a, nil
}

// Register adds a custom analyzer to the registry.
func (r *Registry) Register(name string, a *blugeanalysis.Analyzer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.analyzers[name]; exists {
		return fmt.Errorf("analyzer already registered: %q", name)
	}
	r.analyzers[name] = a
	return nil
}

// Names returns the names of all registered analyzers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.analyzers))
	for name := range r.analyzers {
		names = append(names, name)
	}
	return names
}

// NewUnicodeAnalyzer chains the unicode word tokenizer with the downstream
// case-folding and accent-folding filters. The tokenizer itself never
// normalizes case or diacritics; these filters do.
func NewUnicodeAnalyzer() *blugeanalysis.Analyzer {
	return &blugeanalysis.Analyzer{
		Tokenizer: &unicodeTokenizer{inner: analysis.NewUnicodeTokenizer()},
		TokenFilters: []blugeanalysis.TokenFilter{
			token.NewLowerCaseFilter(),
			newAccentFoldFilter(),
		},
	}
}

// unicodeTokenizer adapts the core tokenizer's pull stream to the engine's
// analysis chain. Every emission carries a position increment of 1, so
// compound tokens occupy the position slot right after their last sub-token.
type unicodeTokenizer struct {
	inner *analysis.UnicodeTokenizer
}

func (t *unicodeTokenizer) Tokenize(input []byte) blugeanalysis.TokenStream {
	stream := t.inner.Tokenize(string(input))
	var out blugeanalysis.TokenStream
	for stream.Advance() {
		tok := stream.Token()
		out = append(out, &blugeanalysis.Token{
			Term:         []byte(tok.Text),
			Start:        tok.OffsetFrom,
			End:          tok.OffsetTo,
			PositionIncr: 1,
			Type:         blugeanalysis.AlphaNumeric,
		})
	}
	return out
}

// accentFoldFilter strips combining marks after NFD decomposition so that
// accented and unaccented spellings index to the same term. Offsets are left
// untouched; only the term bytes change.
type accentFoldFilter struct{}

func newAccentFoldFilter() *accentFoldFilter {
	return &accentFoldFilter{}
}

func (f *accentFoldFilter) Filter(input blugeanalysis.TokenStream) blugeanalysis.TokenStream {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	for _, tok := range input {
		folded, _, err := transform.Bytes(fold, tok.Term)
		if err != nil {
			continue
		}
		tok.Term = folded
	}
	return input
}
