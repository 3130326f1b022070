package block

import (
	"github.com/apache/arrow/go/v13/arrow"
)

// NamedColumnType is a (name, type) pair — an input column declaration
// before any data exists for it.
type NamedColumnType struct {
	Name string
	Type arrow.DataType
}

// NamedColumn is a named, typed, materialized column — used for constant
// inputs and for the value carried by an AddColumn action.
type NamedColumn struct {
	Name     string
	Type     arrow.DataType
	Data     arrow.Array
	Constant bool
}

// SampleBlock carries names and types but no row data. It is what planning
// time code uses to resolve types and check shape without materializing
// anything.
type SampleBlock struct {
	schema *arrow.Schema
}

// NewSampleBlock builds a SampleBlock from input column declarations.
func NewSampleBlock(columns []NamedColumnType) *SampleBlock {
	fields := make([]arrow.Field, len(columns))
	for i, c := range columns {
		fields[i] = arrow.Field{Name: c.Name, Type: c.Type, Nullable: true}
	}
	return &SampleBlock{schema: arrow.NewSchema(fields, nil)}
}

// NewSampleBlockFromSchema wraps an existing schema as a SampleBlock.
func NewSampleBlockFromSchema(schema *arrow.Schema) *SampleBlock {
	return &SampleBlock{schema: schema}
}

// FromBlock derives a SampleBlock from a materialized Block's schema.
func FromBlock(b Block) *SampleBlock {
	return &SampleBlock{schema: b.Schema()}
}

// Schema returns the underlying arrow schema.
func (s *SampleBlock) Schema() *arrow.Schema {
	return s.schema
}

// Names returns the sample block's column names in order.
func (s *SampleBlock) Names() []string {
	fields := s.schema.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// IndexOf returns the index of the first column named name, or -1.
func (s *SampleBlock) IndexOf(name string) int {
	for i, f := range s.schema.Fields() {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether the sample block has a column named name.
func (s *SampleBlock) Has(name string) bool {
	return s.IndexOf(name) != -1
}

// TypeOf returns the type of the column named name.
func (s *SampleBlock) TypeOf(name string) (arrow.DataType, bool) {
	i := s.IndexOf(name)
	if i == -1 {
		return nil, false
	}
	return s.schema.Field(i).Type, true
}

// WithColumn returns a new SampleBlock with the given column appended (or
// replacing an existing column of the same name, matching how adding an
// action whose result reuses a name works on a real block).
func (s *SampleBlock) WithColumn(f arrow.Field) *SampleBlock {
	fields := s.schema.Fields()
	out := make([]arrow.Field, 0, len(fields)+1)
	replaced := false
	for _, existing := range fields {
		if existing.Name == f.Name {
			out = append(out, f)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, f)
	}
	return &SampleBlock{schema: arrow.NewSchema(out, nil)}
}

// WithoutColumn returns a new SampleBlock with the named column removed.
func (s *SampleBlock) WithoutColumn(name string) *SampleBlock {
	fields := s.schema.Fields()
	out := make([]arrow.Field, 0, len(fields))
	for _, f := range fields {
		if f.Name == name {
			continue
		}
		out = append(out, f)
	}
	return &SampleBlock{schema: arrow.NewSchema(out, nil)}
}

// Project returns a new SampleBlock built from pairs of (sourceName, alias),
// alias == "" meaning keep the source name. Mirrors the Project action's
// effect on a sample block.
func (s *SampleBlock) Project(pairs []ProjectPair) (*SampleBlock, error) {
	out := make([]arrow.Field, len(pairs))
	for i, p := range pairs {
		idx := s.IndexOf(p.Source)
		if idx == -1 {
			return nil, ErrNoSuchColumn(p.Source)
		}
		f := s.schema.Field(idx)
		if p.Alias != "" {
			f.Name = p.Alias
		}
		out[i] = f
	}
	return &SampleBlock{schema: arrow.NewSchema(out, nil)}, nil
}

// ProjectPair is a single (source, alias) entry of a Project action.
type ProjectPair struct {
	Source string
	Alias  string
}

// ErrNoSuchColumn reports a missing column by name.
type ErrNoSuchColumn string

func (e ErrNoSuchColumn) Error() string {
	return "no such column: " + string(e)
}
