package query

import (
	"fmt"
	"math"
	"time"

	"github.com/blugelabs/bluge"
	blugeanalysis "github.com/blugelabs/bluge/analysis"
)

// AnalyzerResolver maps a field name to the analyzer its indexed terms were
// produced with. Match and phrase queries analyze their input through it so
// query terms line up with indexed terms. A nil return falls back to the
// engine default.
type AnalyzerResolver func(field string) *blugeanalysis.Analyzer

// ToBluge lowers a validated AST into an engine query. Callers should run
// Rewrite first so the engine sees the simplified form.
func ToBluge(q Query, resolve AnalyzerResolver) (bluge.Query, error) {
	switch v := q.(type) {
	case *TermQuery:
		out := bluge.NewTermQuery(v.Term).SetField(v.Field)
		if v.Boost > 0 {
			out.SetBoost(v.Boost)
		}
		return out, nil

	case *MatchQuery:
		out := bluge.NewMatchQuery(v.Text).SetField(v.Field)
		if a := resolve(v.Field); a != nil {
			out.SetAnalyzer(a)
		}
		if v.Operator == MatchAll {
			out.SetOperator(bluge.MatchQueryOperatorAnd)
		}
		if v.Boost > 0 {
			out.SetBoost(v.Boost)
		}
		return out, nil

	case *PhraseQuery:
		out := bluge.NewMatchPhraseQuery(v.Phrase).SetField(v.Field).SetSlop(v.Slop)
		if a := resolve(v.Field); a != nil {
			out.SetAnalyzer(a)
		}
		if v.Boost > 0 {
			out.SetBoost(v.Boost)
		}
		return out, nil

	case *PrefixQuery:
		out := bluge.NewPrefixQuery(v.Prefix).SetField(v.Field)
		if v.Boost > 0 {
			out.SetBoost(v.Boost)
		}
		return out, nil

	case *WildcardQuery:
		out := bluge.NewWildcardQuery(v.Pattern).SetField(v.Field)
		if v.Boost > 0 {
			out.SetBoost(v.Boost)
		}
		return out, nil

	case *RegexQuery:
		out := bluge.NewRegexpQuery(v.Pattern).SetField(v.Field)
		if v.Boost > 0 {
			out.SetBoost(v.Boost)
		}
		return out, nil

	case *FuzzyQuery:
		out := bluge.NewFuzzyQuery(v.Term).SetField(v.Field).
			SetFuzziness(v.MaxDistance).
			SetPrefix(v.PrefixLength)
		if v.Boost > 0 {
			out.SetBoost(v.Boost)
		}
		return out, nil

	case *RangeQuery:
		lower, upper := -math.MaxFloat64, math.MaxFloat64
		if v.Lower != nil {
			lower = *v.Lower
		}
		if v.Upper != nil {
			upper = *v.Upper
		}
		out := bluge.NewNumericRangeInclusiveQuery(lower, upper, v.IncludeLower, v.IncludeUpper).
			SetField(v.Field)
		if v.Boost > 0 {
			out.SetBoost(v.Boost)
		}
		return out, nil

	case *DateRangeQuery:
		var lower, upper time.Time
		var err error
		if v.Lower != "" {
			if lower, err = time.Parse(time.RFC3339, v.Lower); err != nil {
				return nil, fmt.Errorf("date_range lower: %w", err)
			}
		}
		if v.Upper != "" {
			if upper, err = time.Parse(time.RFC3339, v.Upper); err != nil {
				return nil, fmt.Errorf("date_range upper: %w", err)
			}
		}
		out := bluge.NewDateRangeInclusiveQuery(lower, upper, v.IncludeLower, v.IncludeUpper).
			SetField(v.Field)
		if v.Boost > 0 {
			out.SetBoost(v.Boost)
		}
		return out, nil

	case *BooleanQuery:
		out := bluge.NewBooleanQuery()
		for _, c := range v.Clauses {
			sub, err := ToBluge(c.Query, resolve)
			if err != nil {
				return nil, err
			}
			switch c.Occur {
			case BooleanMust:
				out.AddMust(sub)
			case BooleanShould:
				out.AddShould(sub)
			case BooleanMustNot:
				out.AddMustNot(sub)
			}
		}
		if v.MinimumShouldMatch > 0 {
			out.SetMinShould(v.MinimumShouldMatch)
		}
		return out, nil

	case *MatchAllQuery:
		out := bluge.NewMatchAllQuery()
		if v.Boost > 0 {
			out.SetBoost(v.Boost)
		}
		return out, nil

	case *MatchNoneQuery:
		return bluge.NewMatchNoneQuery(), nil

	default:
		return nil, ErrUnknownQueryType
	}
}
