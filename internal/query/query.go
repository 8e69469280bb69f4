package query

import "errors"

// QueryType identifies the kind of query node.
type QueryType int

const (
	QueryTypeTerm QueryType = iota
	QueryTypeMatch
	QueryTypeBoolean
	QueryTypePrefix
	QueryTypeWildcard
	QueryTypeRegex
	QueryTypePhrase
	QueryTypeFuzzy
	QueryTypeRange
	QueryTypeDateRange
	QueryTypeMatchAll
	QueryTypeMatchNone
)

// Query is the interface for all query AST nodes.
type Query interface {
	Type() QueryType
}

// Boolean operator limits.
const (
	MaxBooleanClauses = 1024
	MaxBooleanDepth   = 10
)

// Phrase limits.
const (
	MaxPhraseBytes = 4096
	MaxPhraseSlop  = 100
)

// Fuzzy limits.
const (
	MaxFuzzyDistance   = 2
	MinFuzzyTermLength = 3
)

var (
	ErrEmptyField       = errors.New("query field must not be empty")
	ErrTooManyClauses   = errors.New("boolean query exceeds clause limit")
	ErrTooDeep          = errors.New("boolean query exceeds depth limit")
	ErrPhraseTooLong    = errors.New("phrase exceeds length limit")
	ErrSlopOutOfRange   = errors.New("slop out of range")
	ErrFuzzyDistance    = errors.New("fuzzy distance out of range")
	ErrFuzzyTermLength  = errors.New("fuzzy term too short")
	ErrEmptyRange       = errors.New("range query needs at least one bound")
	ErrUnknownQueryType = errors.New("unknown query type")
)

// Validate checks structural limits across the whole AST.
func Validate(q Query) error {
	return validate(q, 0)
}

func validate(q Query, depth int) error {
	if depth > MaxBooleanDepth {
		return ErrTooDeep
	}

	switch v := q.(type) {
	case *TermQuery:
		return requireField(v.Field)
	case *MatchQuery:
		return requireField(v.Field)
	case *PrefixQuery:
		return requireField(v.Field)
	case *WildcardQuery:
		return requireField(v.Field)
	case *RegexQuery:
		return requireField(v.Field)
	case *PhraseQuery:
		if err := requireField(v.Field); err != nil {
			return err
		}
		if len(v.Phrase) > MaxPhraseBytes {
			return ErrPhraseTooLong
		}
		if v.Slop < 0 || v.Slop > MaxPhraseSlop {
			return ErrSlopOutOfRange
		}
		return nil
	case *FuzzyQuery:
		if err := requireField(v.Field); err != nil {
			return err
		}
		if v.MaxDistance < 0 || v.MaxDistance > MaxFuzzyDistance {
			return ErrFuzzyDistance
		}
		if len([]rune(v.Term)) < MinFuzzyTermLength {
			return ErrFuzzyTermLength
		}
		return nil
	case *RangeQuery:
		if err := requireField(v.Field); err != nil {
			return err
		}
		if v.Lower == nil && v.Upper == nil {
			return ErrEmptyRange
		}
		return nil
	case *DateRangeQuery:
		if err := requireField(v.Field); err != nil {
			return err
		}
		if v.Lower == "" && v.Upper == "" {
			return ErrEmptyRange
		}
		return nil
	case *BooleanQuery:
		if len(v.Clauses) > MaxBooleanClauses {
			return ErrTooManyClauses
		}
		for _, c := range v.Clauses {
			if err := validate(c.Query, depth+1); err != nil {
				return err
			}
		}
		return nil
	case *MatchAllQuery, *MatchNoneQuery:
		return nil
	default:
		return ErrUnknownQueryType
	}
}

func requireField(f string) error {
	if f == "" {
		return ErrEmptyField
	}
	return nil
}
