package query

import "strings"

// Rewrite simplifies a query AST until it reaches a fixed point.
//
// Leaf rules: a MatchQuery or PhraseQuery whose text analyzes to nothing
// (empty or whitespace-only) collapses to MatchNone. Boolean rules: nested
// booleans flatten into their parent where the operators agree, must-MatchAll
// and dead should/must_not clauses are pruned, must-MatchNone short-circuits
// the whole boolean, and single-clause booleans unwrap when
// MinimumShouldMatch still permits it.
func Rewrite(q Query) Query {
	for {
		simplified := simplify(q)
		if astEqual(simplified, q) {
			return simplified
		}
		q = simplified
	}
}

func simplify(q Query) Query {
	switch v := q.(type) {
	case *BooleanQuery:
		return simplifyBoolean(v)
	case *MatchQuery:
		if strings.TrimSpace(v.Text) == "" {
			return &MatchNoneQuery{}
		}
		return v
	case *PhraseQuery:
		if strings.TrimSpace(v.Phrase) == "" {
			return &MatchNoneQuery{}
		}
		return v
	default:
		return q
	}
}

func simplifyBoolean(q *BooleanQuery) Query {
	// Simplify children first, folding same-operator booleans into this level.
	clauses := make([]BooleanClause, 0, len(q.Clauses))
	for _, c := range q.Clauses {
		sub := simplify(c.Query)

		if inner, ok := sub.(*BooleanQuery); ok && flattenable(c.Occur, q.MinimumShouldMatch, inner) {
			for _, ic := range inner.Clauses {
				clauses = append(clauses, BooleanClause{Occur: c.Occur, Query: ic.Query})
			}
			continue
		}

		clauses = append(clauses, BooleanClause{Occur: c.Occur, Query: sub})
	}

	var (
		kept      = make([]BooleanClause, 0, len(clauses))
		hadMust   bool
		hadShould bool
		numShould int
	)
	for _, c := range clauses {
		switch c.Occur {
		case BooleanMust:
			hadMust = true
			if _, ok := c.Query.(*MatchAllQuery); ok {
				continue // a required match-all constrains nothing
			}
			if _, ok := c.Query.(*MatchNoneQuery); ok {
				return &MatchNoneQuery{}
			}
		case BooleanShould:
			hadShould = true
			if _, ok := c.Query.(*MatchNoneQuery); ok {
				continue // a should that can never match never contributes
			}
			numShould++
		case BooleanMustNot:
			if _, ok := c.Query.(*MatchNoneQuery); ok {
				continue // excluding nothing is a no-op
			}
		}
		kept = append(kept, c)
	}

	// Pruning dead shoulds must not leave the minimum unsatisfiable.
	if hadShould && q.MinimumShouldMatch > numShould {
		return &MatchNoneQuery{}
	}

	// All must clauses were match-all and nothing else remains.
	if hadMust && len(kept) == 0 {
		return &MatchAllQuery{}
	}

	if len(kept) == 1 {
		switch kept[0].Occur {
		case BooleanMust:
			return kept[0].Query
		case BooleanShould:
			if q.MinimumShouldMatch <= 1 {
				return kept[0].Query
			}
		}
	}

	return &BooleanQuery{
		Clauses:            kept,
		MinimumShouldMatch: q.MinimumShouldMatch,
	}
}

// flattenable reports whether an inner boolean can fold into an outer clause
// without changing semantics. AND(AND(a,b),c) → AND(a,b,c) and
// OR(OR(a,b),c) → OR(a,b,c). A must_not clause never flattens, and neither
// side may carry a MinimumShouldMatch that counts clauses: the inner boolean
// counts as one should toward the outer minimum, so splitting it apart would
// change what the minimum means.
func flattenable(outer BooleanOp, outerMin int, inner *BooleanQuery) bool {
	if outer == BooleanMustNot {
		return false
	}
	if outer == BooleanShould && outerMin > 1 {
		return false
	}
	if inner.MinimumShouldMatch > 1 {
		return false
	}
	for _, c := range inner.Clauses {
		if c.Occur != outer {
			return false
		}
	}
	return true
}

// astEqual checks structural equality for fixed-point detection. Booleans
// compare clause by clause; leaves compare by pointer, which is sufficient
// because simplify returns leaves unchanged.
func astEqual(a, b Query) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type() != b.Type() {
		return false
	}
	ab, ok := a.(*BooleanQuery)
	if !ok {
		return a == b
	}
	bb := b.(*BooleanQuery)
	if ab.MinimumShouldMatch != bb.MinimumShouldMatch || len(ab.Clauses) != len(bb.Clauses) {
		return false
	}
	for i := range ab.Clauses {
		if ab.Clauses[i].Occur != bb.Clauses[i].Occur {
			return false
		}
		if !astEqual(ab.Clauses[i].Query, bb.Clauses[i].Query) {
			return false
		}
	}
	return true
}
