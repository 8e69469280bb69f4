package query

import (
	"encoding/json"
	"fmt"
)

// rawNode is the wire shape of a query node. The "type" tag selects the
// variant; the remaining keys are variant-specific.
type rawNode struct {
	Type string `json:"type"`

	Field string  `json:"field,omitempty"`
	Boost float64 `json:"boost,omitempty"`

	Term         string `json:"term,omitempty"`
	Text         string `json:"text,omitempty"`
	Operator     string `json:"operator,omitempty"`
	Prefix       string `json:"prefix,omitempty"`
	Pattern      string `json:"pattern,omitempty"`
	Phrase       string `json:"phrase,omitempty"`
	Slop         int    `json:"slop,omitempty"`
	Distance     int    `json:"distance,omitempty"`
	PrefixLength int    `json:"prefix_length,omitempty"`

	Lower        json.RawMessage `json:"lower,omitempty"`
	Upper        json.RawMessage `json:"upper,omitempty"`
	IncludeLower bool            `json:"include_lower,omitempty"`
	IncludeUpper bool            `json:"include_upper,omitempty"`

	Clauses            []rawClause `json:"clauses,omitempty"`
	MinimumShouldMatch int         `json:"minimum_should_match,omitempty"`
}

type rawClause struct {
	Occur string          `json:"occur"`
	Query json.RawMessage `json:"query"`
}

// Parse decodes a JSON query DSL document into a validated AST.
func Parse(data []byte) (Query, error) {
	q, err := parseNode(data, 0)
	if err != nil {
		return nil, err
	}
	if err := Validate(q); err != nil {
		return nil, err
	}
	return q, nil
}

func parseNode(data []byte, depth int) (Query, error) {
	if depth > MaxBooleanDepth {
		return nil, ErrTooDeep
	}

	var node rawNode
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("decode query: %w", err)
	}

	switch node.Type {
	case "term":
		return &TermQuery{Field: node.Field, Term: node.Term, Boost: node.Boost}, nil

	case "match":
		op := MatchAny
		switch node.Operator {
		case "", "or":
		case "and":
			op = MatchAll
		default:
			return nil, fmt.Errorf("invalid match operator %q", node.Operator)
		}
		return &MatchQuery{Field: node.Field, Text: node.Text, Operator: op, Boost: node.Boost}, nil

	case "phrase":
		return &PhraseQuery{Field: node.Field, Phrase: node.Phrase, Slop: node.Slop, Boost: node.Boost}, nil

	case "prefix":
		return &PrefixQuery{Field: node.Field, Prefix: node.Prefix, Boost: node.Boost}, nil

	case "wildcard":
		return &WildcardQuery{Field: node.Field, Pattern: node.Pattern, Boost: node.Boost}, nil

	case "regex":
		return &RegexQuery{Field: node.Field, Pattern: node.Pattern, Boost: node.Boost}, nil

	case "fuzzy":
		return &FuzzyQuery{
			Field:        node.Field,
			Term:         node.Term,
			MaxDistance:  node.Distance,
			PrefixLength: node.PrefixLength,
			Boost:        node.Boost,
		}, nil

	case "range":
		q := &RangeQuery{
			Field:        node.Field,
			IncludeLower: node.IncludeLower,
			IncludeUpper: node.IncludeUpper,
			Boost:        node.Boost,
		}
		var err error
		if q.Lower, err = parseBound(node.Lower); err != nil {
			return nil, fmt.Errorf("range lower: %w", err)
		}
		if q.Upper, err = parseBound(node.Upper); err != nil {
			return nil, fmt.Errorf("range upper: %w", err)
		}
		return q, nil

	case "date_range":
		q := &DateRangeQuery{
			Field:        node.Field,
			IncludeLower: node.IncludeLower,
			IncludeUpper: node.IncludeUpper,
			Boost:        node.Boost,
		}
		if len(node.Lower) > 0 {
			if err := json.Unmarshal(node.Lower, &q.Lower); err != nil {
				return nil, fmt.Errorf("date_range lower: %w", err)
			}
		}
		if len(node.Upper) > 0 {
			if err := json.Unmarshal(node.Upper, &q.Upper); err != nil {
				return nil, fmt.Errorf("date_range upper: %w", err)
			}
		}
		return q, nil

	case "boolean":
		if len(node.Clauses) > MaxBooleanClauses {
			return nil, ErrTooManyClauses
		}
		q := &BooleanQuery{MinimumShouldMatch: node.MinimumShouldMatch}
		for i, c := range node.Clauses {
			occur, err := parseOccur(c.Occur)
			if err != nil {
				return nil, fmt.Errorf("clause %d: %w", i, err)
			}
			sub, err := parseNode(c.Query, depth+1)
			if err != nil {
				return nil, fmt.Errorf("clause %d: %w", i, err)
			}
			q.Clauses = append(q.Clauses, BooleanClause{Occur: occur, Query: sub})
		}
		return q, nil

	case "match_all":
		return &MatchAllQuery{Boost: node.Boost}, nil

	case "match_none":
		return &MatchNoneQuery{}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownQueryType, node.Type)
	}
}

func parseOccur(s string) (BooleanOp, error) {
	switch s {
	case "must":
		return BooleanMust, nil
	case "should":
		return BooleanShould, nil
	case "must_not":
		return BooleanMustNot, nil
	default:
		return 0, fmt.Errorf("invalid occur %q", s)
	}
}

func parseBound(raw json.RawMessage) (*float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
