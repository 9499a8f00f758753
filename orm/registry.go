package orm

import (
	"fmt"
	"reflect"
)

// RegistryEntry binds a Go entity type to its Schema.
// Create one with Register.
type RegistryEntry struct {
	typ    reflect.Type
	schema Schema
}

// Register returns a RegistryEntry for T. When s.Table is empty the
// table name is derived with TableNameFor[T].
func Register[T any](s Schema) RegistryEntry {
	if s.Table == "" {
		s.Table = TableNameFor[T]()
	}
	return RegistryEntry{typ: reflect.TypeFor[T](), schema: s}
}

// Registry maps entity types to table schemas. It is built once by
// NewRegistry and never mutated afterwards, so concurrent readers are safe.
type Registry struct {
	byType  map[reflect.Type]*Schema
	byTable map[string]*Schema
	order   []*Schema
}

// NewRegistry validates entries and builds a Registry.
// Every schema must name its primary key among its columns, tables must be
// unique, and foreign keys must point at columns of tables registered
// earlier (or of the same table).
func NewRegistry(entries ...RegistryEntry) (*Registry, error) {
	r := &Registry{
		byType:  make(map[reflect.Type]*Schema, len(entries)),
		byTable: make(map[string]*Schema, len(entries)),
	}
	for _, e := range entries {
		s := e.schema
		s.Columns = append([]Column(nil), e.schema.Columns...)
		s.ForeignKeys = append([]ForeignKey(nil), e.schema.ForeignKeys...)
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byType[e.typ]; dup {
			return nil, &ConfigurationError{Entity: e.typ.String(), Reason: "registered twice"}
		}
		if _, dup := r.byTable[s.Table]; dup {
			return nil, &ConfigurationError{Entity: s.Table, Reason: "table registered twice"}
		}
		r.byType[e.typ] = &s
		r.byTable[s.Table] = &s
		r.order = append(r.order, &s)
	}

	before := make(map[string]bool, len(r.order))
	for _, s := range r.order {
		before[s.Table] = true
		for _, fk := range s.ForeignKeys {
			ref, ok := r.byTable[fk.RefTable]
			if !ok || !before[fk.RefTable] {
				return nil, &ConfigurationError{
					Entity: s.Table,
					Reason: fmt.Sprintf("foreign key %s references table %q, which is not registered before it", fk.Column, fk.RefTable),
				}
			}
			if !ref.HasColumn(fk.RefColumn) {
				return nil, &ConfigurationError{
					Entity: s.Table,
					Reason: fmt.Sprintf("foreign key %s references unknown column %s.%s", fk.Column, fk.RefTable, fk.RefColumn),
				}
			}
		}
	}
	return r, nil
}

// SchemaOf returns the Schema registered for T.
// Returns a *ConfigurationError if T was never registered.
func SchemaOf[T any](r *Registry) (*Schema, error) {
	typ := reflect.TypeFor[T]()
	if r != nil {
		if s, ok := r.byType[typ]; ok {
			return s, nil
		}
	}
	return nil, &ConfigurationError{Entity: typ.String(), Reason: "entity is not registered"}
}

// Table returns the Schema registered for the named table.
func (r *Registry) Table(name string) (*Schema, bool) {
	s, ok := r.byTable[name]
	return s, ok
}

// Schemas returns the registered schemas in registration order.
// NewRegistry requires referenced tables to come first, so the order is
// also a valid CREATE TABLE order.
func (r *Registry) Schemas() []*Schema {
	return append([]*Schema(nil), r.order...)
}
