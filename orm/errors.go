package orm

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a query expects exactly one row but finds none.
var ErrNotFound = errors.New("orm: not found")

var (
	// ErrConfiguration is matched by *ConfigurationError.
	ErrConfiguration = errors.New("orm: configuration error")
	// ErrSchema is matched by *SchemaError.
	ErrSchema = errors.New("orm: schema error")
	// ErrInvalidArgument is matched by *InvalidArgumentError.
	ErrInvalidArgument = errors.New("orm: invalid argument")
	// ErrPersistence is matched by *PersistenceError.
	ErrPersistence = errors.New("orm: persistence error")
)

// ConfigurationError reports an entity or table missing from (or
// inconsistent in) the mapping registry. It is meant to stop the
// process at startup.
type ConfigurationError struct {
	Entity string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("orm: configuration: %s: %s", e.Entity, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// SchemaError reports a query that references a column the table does not have.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("orm: schema: table %q has no column %q", e.Table, e.Column)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// InvalidArgumentError reports a builder argument outside its domain,
// e.g. a non-positive limit.
type InvalidArgumentError struct {
	Op    string
	Value any
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("orm: invalid argument to %s: %v", e.Op, e.Value)
}

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// PersistenceReason classifies why a write was rejected.
type PersistenceReason int

const (
	ReasonUnknown PersistenceReason = iota
	ReasonMissingAttribute
	ReasonNotNull
	ReasonForeignKey
	ReasonUnique
)

func (r PersistenceReason) String() string {
	switch r {
	case ReasonMissingAttribute:
		return "missing attribute"
	case ReasonNotNull:
		return "not null violation"
	case ReasonForeignKey:
		return "foreign key violation"
	case ReasonUnique:
		return "unique violation"
	default:
		return "unknown"
	}
}

// PersistenceError is returned by write operations. Err holds the
// storage error as the driver returned it, so errors.As against driver
// error types keeps working.
type PersistenceError struct {
	Table  string
	Column string
	Reason PersistenceReason
	Err    error
}

func (e *PersistenceError) Error() string {
	msg := fmt.Sprintf("orm: persist %s: %s", e.Table, e.Reason)
	if e.Column != "" {
		msg += fmt.Sprintf(" (%s)", e.Column)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func (e *PersistenceError) Unwrap() error { return e.Err }
