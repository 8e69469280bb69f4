package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/blugelabs/bluge"
	blugeanalysis "github.com/blugelabs/bluge/analysis"
)

var (
	ErrDocMissingID    = errors.New("document is missing an _id")
	ErrDocUnknownField = errors.New("document field not in schema")
	ErrDocBadValue     = errors.New("document field value has wrong type")
)

// Document is the external representation of a document: an identifier plus
// a flat map of field values. Multi-valued fields carry a JSON array.
type Document struct {
	ID     string         `json:"_id"`
	Fields map[string]any `json:"fields"`
}

// toBluge converts a Document into an engine document according to the
// schema. Fields not declared in the schema are rejected.
func (s *Schema) toBluge(doc Document, reg *Registry) (*bluge.Document, error) {
	if doc.ID == "" {
		return nil, ErrDocMissingID
	}

	out := bluge.NewDocument(doc.ID)
	for name, value := range doc.Fields {
		def := s.Field(name)
		if def == nil {
			return nil, fmt.Errorf("%w: %q", ErrDocUnknownField, name)
		}

		values, ok := value.([]any)
		if !ok {
			values = []any{value}
		}
		for _, v := range values {
			field, err := s.blugeField(def, v, reg)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			out.AddField(field)
		}
	}
	return out, nil
}

func (s *Schema) blugeField(def *FieldDef, value any, reg *Registry) (bluge.Field, error) {
	switch def.Type {
	case FieldTypeText:
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: want string, got %T", ErrDocBadValue, value)
		}
		a, err := reg.Get(s.AnalyzerFor(def.Name))
		if err != nil {
			return nil, err
		}
		return textField(def, str, a), nil

	case FieldTypeKeyword:
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: want string, got %T", ErrDocBadValue, value)
		}
		f := bluge.NewKeywordField(def.Name, str)
		if def.Stored {
			f.StoreValue()
		}
		return f, nil

	case FieldTypeNumeric:
		num, err := toFloat64(value)
		if err != nil {
			return nil, err
		}
		f := bluge.NewNumericField(def.Name, num)
		if def.Stored {
			f.StoreValue()
		}
		return f, nil

	case FieldTypeDate:
		t, err := toTime(value)
		if err != nil {
			return nil, err
		}
		f := bluge.NewDateTimeField(def.Name, t)
		if def.Stored {
			f.StoreValue()
		}
		return f, nil

	case FieldTypeStoredOnly:
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDocBadValue, err)
		}
		return bluge.NewStoredOnlyField(def.Name, raw), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrSchemaInvalidType, def.Type)
	}
}

func textField(def *FieldDef, value string, a *blugeanalysis.Analyzer) bluge.Field {
	f := bluge.NewTextField(def.Name, value).WithAnalyzer(a)
	if def.Stored {
		f.StoreValue()
	}
	if def.Positions {
		f.SearchTermPositions()
	}
	if def.Highlight {
		f.HighlightMatches()
	}
	return f
}

func toFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	default:
		return 0, fmt.Errorf("%w: want number, got %T", ErrDocBadValue, value)
	}
}

func toTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrDocBadValue, err)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("%w: want RFC 3339 string, got %T", ErrDocBadValue, value)
	}
}
