// Package scope provides reusable, named query fragments.
package scope

// Applier is implemented by query builders to receive scope fragments.
// This interface lives in the scope package so that orm can import scope
// without creating circular dependencies.
type Applier interface {
	ApplyWhere(column string, value any)
	ApplyOrder(column string, desc bool)
	ApplyLimit(n int)
}

type scopeKind int

const (
	kindWhere scopeKind = iota
	kindOrder
	kindLimit
)

// Scope represents a single query condition fragment.
// Scopes are immutable and safe to reuse across queries.
type Scope struct {
	kind   scopeKind
	column string
	value  any
	desc   bool
	n      int
}

// Apply dispatches this Scope to the given Applier.
func (s Scope) Apply(a Applier) {
	switch s.kind {
	case kindWhere:
		a.ApplyWhere(s.column, s.value)
	case kindOrder:
		a.ApplyOrder(s.column, s.desc)
	case kindLimit:
		a.ApplyLimit(s.n)
	}
}

// Where returns a Scope that adds an equality condition.
//
//	scope.Where("published", true)
func Where(column string, value any) Scope {
	return Scope{kind: kindWhere, column: column, value: value}
}

// Asc returns a Scope that orders by column ascending.
func Asc(column string) Scope {
	return Scope{kind: kindOrder, column: column}
}

// Desc returns a Scope that orders by column descending.
//
//	scope.Desc("comments_count")
func Desc(column string) Scope {
	return Scope{kind: kindOrder, column: column, desc: true}
}

// Limit returns a Scope that sets the LIMIT.
func Limit(n int) Scope {
	return Scope{kind: kindLimit, n: n}
}

// Scopes is a named slice of Scope, useful for conditionally building
// up a set of scopes.
//
//	var s scope.Scopes
//	if onlyPublished {
//	    s = s.Append(scope.Where("published", true))
//	}
//	s = s.Append(scope.Limit(perPage))
//	articles.All(ctx, s...)
type Scopes []Scope

// Append adds scopes and returns a new Scopes. The receiver is not modified.
func (ss Scopes) Append(scopes ...Scope) Scopes {
	return append(append(Scopes(nil), ss...), scopes...)
}

// Merge concatenates two Scopes and returns a new Scopes.
// Neither receiver nor argument is modified.
func (ss Scopes) Merge(other Scopes) Scopes {
	return append(append(Scopes(nil), ss...), other...)
}

// Combine creates a Scopes from the given scopes.
//
//	scope.Combine(scope.Where("author_id", id), scope.Limit(8))
func Combine(scopes ...Scope) Scopes {
	return Scopes(scopes)
}
