package query

import (
	"errors"
	"testing"
)

func TestParse_Term(t *testing.T) {
	q, err := Parse([]byte(`{"type":"term","field":"title","term":"sams","boost":2.0}`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	tq, ok := q.(*TermQuery)
	if !ok {
		t.Fatalf("expected TermQuery, got %T", q)
	}
	if tq.Field != "title" || tq.Term != "sams" || tq.Boost != 2.0 {
		t.Errorf("unexpected term query: %+v", tq)
	}
}

func TestParse_Match(t *testing.T) {
	q, err := Parse([]byte(`{"type":"match","field":"body","text":"Sam's café","operator":"and"}`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	mq, ok := q.(*MatchQuery)
	if !ok {
		t.Fatalf("expected MatchQuery, got %T", q)
	}
	if mq.Text != "Sam's café" || mq.Operator != MatchAll {
		t.Errorf("unexpected match query: %+v", mq)
	}
}

func TestParse_Boolean(t *testing.T) {
	data := []byte(`{
		"type": "boolean",
		"clauses": [
			{"occur": "must", "query": {"type": "term", "field": "f", "term": "a"}},
			{"occur": "should", "query": {"type": "prefix", "field": "f", "prefix": "b"}},
			{"occur": "must_not", "query": {"type": "match_all"}}
		],
		"minimum_should_match": 1
	}`)
	q, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	bq, ok := q.(*BooleanQuery)
	if !ok {
		t.Fatalf("expected BooleanQuery, got %T", q)
	}
	if len(bq.Clauses) != 3 {
		t.Fatalf("expected 3 clauses, got %d", len(bq.Clauses))
	}
	wantOccurs := []BooleanOp{BooleanMust, BooleanShould, BooleanMustNot}
	for i, want := range wantOccurs {
		if bq.Clauses[i].Occur != want {
			t.Errorf("clause %d occur = %d, want %d", i, bq.Clauses[i].Occur, want)
		}
	}
	if bq.MinimumShouldMatch != 1 {
		t.Errorf("minimum_should_match = %d, want 1", bq.MinimumShouldMatch)
	}
}

func TestParse_Range(t *testing.T) {
	q, err := Parse([]byte(`{"type":"range","field":"price","lower":10,"include_lower":true}`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	rq, ok := q.(*RangeQuery)
	if !ok {
		t.Fatalf("expected RangeQuery, got %T", q)
	}
	if rq.Lower == nil || *rq.Lower != 10 {
		t.Errorf("lower = %v, want 10", rq.Lower)
	}
	if rq.Upper != nil {
		t.Errorf("upper = %v, want nil", rq.Upper)
	}
	if !rq.IncludeLower || rq.IncludeUpper {
		t.Errorf("bounds inclusivity wrong: %+v", rq)
	}
}

func TestParse_DateRange(t *testing.T) {
	q, err := Parse([]byte(`{"type":"date_range","field":"ts","lower":"2024-01-01T00:00:00Z","upper":"2025-01-01T00:00:00Z","include_lower":true,"include_upper":false}`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	dq, ok := q.(*DateRangeQuery)
	if !ok {
		t.Fatalf("expected DateRangeQuery, got %T", q)
	}
	if dq.Lower != "2024-01-01T00:00:00Z" || dq.Upper != "2025-01-01T00:00:00Z" {
		t.Errorf("unexpected bounds: %+v", dq)
	}
}

func TestParse_Phrase(t *testing.T) {
	q, err := Parse([]byte(`{"type":"phrase","field":"body","phrase":"state of the art","slop":1}`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	pq, ok := q.(*PhraseQuery)
	if !ok {
		t.Fatalf("expected PhraseQuery, got %T", q)
	}
	if pq.Phrase != "state of the art" || pq.Slop != 1 {
		t.Errorf("unexpected phrase query: %+v", pq)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"unknown type", `{"type":"nope"}`, ErrUnknownQueryType},
		{"missing field", `{"type":"term","term":"a"}`, ErrEmptyField},
		{"range no bounds", `{"type":"range","field":"f"}`, ErrEmptyRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParse_BadOccur(t *testing.T) {
	_, err := Parse([]byte(`{"type":"boolean","clauses":[{"occur":"maybe","query":{"type":"match_all"}}]}`))
	if err == nil {
		t.Fatal("expected error for invalid occur")
	}
}

func TestParse_DepthLimit(t *testing.T) {
	data := `{"type":"match_all"}`
	for i := 0; i <= MaxBooleanDepth+1; i++ {
		data = `{"type":"boolean","clauses":[{"occur":"must","query":` + data + `}]}`
	}
	if _, err := Parse([]byte(data)); !errors.Is(err, ErrTooDeep) {
		t.Errorf("Parse() = %v, want ErrTooDeep", err)
	}
}
