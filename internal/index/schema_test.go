package index

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSchema() *Schema {
	return &Schema{
		Version:         1,
		CreatedAt:       time.Now().UTC(),
		DefaultAnalyzer: AnalyzerUnicode,
		Fields: []FieldDef{
			{Name: "title", Type: FieldTypeText, Analyzer: AnalyzerUnicode, Stored: true, Indexed: true, Positions: true, Highlight: true},
			{Name: "tags", Type: FieldTypeKeyword, Stored: true, Indexed: true},
			{Name: "price", Type: FieldTypeNumeric, Stored: true, Indexed: true},
			{Name: "published_at", Type: FieldTypeDate, Indexed: true},
			{Name: "raw", Type: FieldTypeStoredOnly, Stored: true},
		},
	}
}

func TestSchemaValidate(t *testing.T) {
	require.NoError(t, validSchema().Validate())
}

func TestSchemaValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Schema)
	}{
		{"reserved field", func(s *Schema) { s.Fields[0].Name = "_id" }},
		{"duplicate field", func(s *Schema) { s.Fields[1].Name = s.Fields[0].Name }},
		{"bad type", func(s *Schema) { s.Fields[0].Type = "blob" }},
		{"bad analyzer", func(s *Schema) { s.Fields[0].Analyzer = "nope" }},
		{"analyzer on keyword", func(s *Schema) { s.Fields[1].Analyzer = AnalyzerUnicode }},
		{"positions on numeric", func(s *Schema) { s.Fields[2].Positions = true }},
		{"highlight on unstored", func(s *Schema) { s.Fields[0].Stored = false }},
		{"highlight on keyword", func(s *Schema) { s.Fields[1].Highlight = true }},
		{"indexed stored_only", func(s *Schema) { s.Fields[4].Indexed = true }},
		{"text without analyzer", func(s *Schema) {
			s.Fields[0].Analyzer = ""
			s.DefaultAnalyzer = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSchema()
			tt.mutate(s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestSchemaAnalyzerFor(t *testing.T) {
	s := validSchema()
	assert.Equal(t, AnalyzerUnicode, s.AnalyzerFor("title"))
	assert.Equal(t, AnalyzerUnicode, s.AnalyzerFor("unknown_field"))

	s.DefaultAnalyzer = AnalyzerStandard
	assert.Equal(t, AnalyzerStandard, s.AnalyzerFor("unknown_field"))
	assert.Equal(t, AnalyzerUnicode, s.AnalyzerFor("title"))
}

func TestSchemaRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), SchemaFileName)

	s := validSchema()
	require.NoError(t, WriteSchema(path, s))

	loaded, err := LoadSchema(path)
	require.NoError(t, err)
	assert.Equal(t, s.Fields, loaded.Fields)
	assert.Equal(t, s.DefaultAnalyzer, loaded.DefaultAnalyzer)
	assert.NotEmpty(t, loaded.Checksum)
}

func TestSchemaChecksumDetectsTampering(t *testing.T) {
	s := validSchema()
	data, err := MarshalSchema(s)
	require.NoError(t, err)

	tampered := bytes.Replace(data, []byte(`"title"`), []byte(`"tilte"`), 1)

	_, err = UnmarshalSchema(tampered)
	assert.ErrorIs(t, err, ErrSchemaCorrupt)
}
