package orm

import "fmt"

// ColumnType is the storage-neutral type of a column.
type ColumnType int

const (
	Integer ColumnType = iota + 1
	String
	Boolean
)

func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "Integer"
	case String:
		return "String"
	case Boolean:
		return "Boolean"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// Column describes one column of a table.
// Default is nil when the column has no DEFAULT clause.
type Column struct {
	Name    string
	Type    ColumnType
	NotNull bool
	Default any
}

// ForeignKey links Column to RefTable.RefColumn.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// Schema describes the table an entity is mapped to.
// Columns are kept in declaration order; that order is used for SELECT
// lists and CREATE TABLE.
type Schema struct {
	Table       string
	PrimaryKey  string
	Columns     []Column
	ForeignKeys []ForeignKey
}

// Column returns the column named name.
func (s *Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// HasColumn reports whether the table has a column named name.
func (s *Schema) HasColumn(name string) bool {
	_, ok := s.Column(name)
	return ok
}

// ColumnNames returns the column names in declaration order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// requiredColumn reports whether an INSERT must carry a non-nil value
// for name.
func (s *Schema) requiredColumn(name string) bool {
	c, ok := s.Column(name)
	return ok && c.NotNull && c.Default == nil && c.Name != s.PrimaryKey
}

func (s *Schema) validate() error {
	if s.Table == "" {
		return &ConfigurationError{Entity: "<unnamed>", Reason: "table name is empty"}
	}
	seen := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		if _, dup := seen[c.Name]; dup {
			return &ConfigurationError{Entity: s.Table, Reason: fmt.Sprintf("duplicate column %q", c.Name)}
		}
		seen[c.Name] = struct{}{}
		if c.Type < Integer || c.Type > Boolean {
			return &ConfigurationError{Entity: s.Table, Reason: fmt.Sprintf("column %q has no type", c.Name)}
		}
	}
	pk, ok := s.Column(s.PrimaryKey)
	if !ok {
		return &ConfigurationError{Entity: s.Table, Reason: fmt.Sprintf("primary key %q is not a column", s.PrimaryKey)}
	}
	if pk.Type != Integer {
		return &ConfigurationError{Entity: s.Table, Reason: "primary key must be an integer column"}
	}
	for _, fk := range s.ForeignKeys {
		if !s.HasColumn(fk.Column) {
			return &ConfigurationError{Entity: s.Table, Reason: fmt.Sprintf("foreign key column %q is not a column", fk.Column)}
		}
	}
	return nil
}
