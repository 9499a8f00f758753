package orm

import (
	"reflect"

	"github.com/mickamy/repokit/internal/naming"
)

// TableNamer can be implemented by model structs to override the
// auto-derived table name.
type TableNamer interface {
	TableName() string
}

// TableNameFor returns the table name for type T.
// If T implements TableNamer (value or pointer receiver), that name is used;
// otherwise the snake_case plural of the type name is returned
// (Article → "articles").
func TableNameFor[T any]() string {
	var zero T
	if tn, ok := any(&zero).(TableNamer); ok {
		return tn.TableName()
	}
	return naming.TableName(reflect.TypeFor[T]().Name())
}
