package query

// TermQuery matches documents containing the exact indexed term. The term is
// taken as-is, with no analysis applied.
type TermQuery struct {
	Field string
	Term  string
	Boost float64
}

func (q *TermQuery) Type() QueryType { return QueryTypeTerm }

// MatchQuery analyzes the given text with the field's analyzer and matches
// documents containing the resulting terms.
type MatchQuery struct {
	Field    string
	Text     string
	Operator MatchOperator
	Boost    float64
}

func (q *MatchQuery) Type() QueryType { return QueryTypeMatch }

// MatchOperator defines how a MatchQuery combines its analyzed terms.
type MatchOperator int

const (
	MatchAny MatchOperator = iota // OR
	MatchAll                      // AND
)

// BooleanOp defines the boolean operator.
type BooleanOp int

const (
	BooleanMust    BooleanOp = iota // AND
	BooleanShould                   // OR
	BooleanMustNot                  // NOT
)

// BooleanClause is a single clause within a BooleanQuery.
type BooleanClause struct {
	Occur BooleanOp
	Query Query
}

// BooleanQuery combines sub-queries with boolean logic.
type BooleanQuery struct {
	Clauses            []BooleanClause
	MinimumShouldMatch int
}

func (q *BooleanQuery) Type() QueryType { return QueryTypeBoolean }

// PrefixQuery matches terms starting with the given prefix.
type PrefixQuery struct {
	Field  string
	Prefix string
	Boost  float64
}

func (q *PrefixQuery) Type() QueryType { return QueryTypePrefix }

// WildcardQuery matches terms using wildcard patterns (* and ?).
type WildcardQuery struct {
	Field   string
	Pattern string
	Boost   float64
}

func (q *WildcardQuery) Type() QueryType { return QueryTypeWildcard }

// RegexQuery matches terms matching a regular expression.
type RegexQuery struct {
	Field   string
	Pattern string
	Boost   float64
}

func (q *RegexQuery) Type() QueryType { return QueryTypeRegex }

// PhraseQuery matches documents where the phrase's analyzed terms appear in
// sequence, allowing up to Slop positions of reordering.
type PhraseQuery struct {
	Field  string
	Phrase string
	Slop   int
	Boost  float64
}

func (q *PhraseQuery) Type() QueryType { return QueryTypePhrase }

// FuzzyQuery matches terms within an edit distance of the query term.
type FuzzyQuery struct {
	Field        string
	Term         string
	MaxDistance  int
	PrefixLength int
	Boost        float64
}

func (q *FuzzyQuery) Type() QueryType { return QueryTypeFuzzy }

// RangeQuery matches documents whose numeric field value lies in the range.
// Nil bounds are unbounded.
type RangeQuery struct {
	Field        string
	Lower        *float64
	Upper        *float64
	IncludeLower bool
	IncludeUpper bool
	Boost        float64
}

func (q *RangeQuery) Type() QueryType { return QueryTypeRange }

// DateRangeQuery matches documents whose date field value lies in the range.
// Bounds are RFC 3339 strings; empty bounds are unbounded.
type DateRangeQuery struct {
	Field        string
	Lower        string
	Upper        string
	IncludeLower bool
	IncludeUpper bool
	Boost        float64
}

func (q *DateRangeQuery) Type() QueryType { return QueryTypeDateRange }

// MatchAllQuery matches all documents.
type MatchAllQuery struct {
	Boost float64
}

func (q *MatchAllQuery) Type() QueryType { return QueryTypeMatchAll }

// MatchNoneQuery matches no documents.
type MatchNoneQuery struct{}

func (q *MatchNoneQuery) Type() QueryType { return QueryTypeMatchNone }
