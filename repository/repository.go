// Package repository exposes typed CRUD and named queries for the model
// entities.
package repository

import (
	"context"
	"iter"

	"github.com/mickamy/repokit/orm"
	"github.com/mickamy/repokit/scope"
)

// Repository provides CRUD over one table. Every call starts from a fresh
// query, so a Repository is safe for concurrent use.
type Repository[T any] struct {
	newQuery func() *orm.Query[T]
}

func newRepository[T any](newQuery func() *orm.Query[T]) Repository[T] {
	return Repository[T]{newQuery: newQuery}
}

// Query returns an unfiltered query over the table.
func (r *Repository[T]) Query() *orm.Query[T] {
	return r.newQuery()
}

// Create inserts t and stores the generated primary key on it.
func (r *Repository[T]) Create(ctx context.Context, t *T) error {
	return r.newQuery().Create(ctx, t)
}

// Update writes every non-key attribute of t to its row.
// Returns orm.ErrNotFound if the row does not exist.
func (r *Repository[T]) Update(ctx context.Context, t *T) error {
	return r.newQuery().Update(ctx, t)
}

// Delete removes the row with primary key id.
func (r *Repository[T]) Delete(ctx context.Context, id int64) error {
	q := r.newQuery()
	return q.Where(q.Schema().PrimaryKey, id).Delete(ctx)
}

// Find returns the row with primary key id, or orm.ErrNotFound.
func (r *Repository[T]) Find(ctx context.Context, id int64) (T, error) {
	q := r.newQuery()
	return q.Where(q.Schema().PrimaryKey, id).First(ctx)
}

// First returns the row with the smallest primary key, or orm.ErrNotFound.
func (r *Repository[T]) First(ctx context.Context) (T, error) {
	return r.newQuery().First(ctx)
}

// Last returns the row with the largest primary key, or orm.ErrNotFound.
func (r *Repository[T]) Last(ctx context.Context) (T, error) {
	return r.newQuery().Last(ctx)
}

// All returns every row matching scopes in primary key order unless a
// scope sets another ordering.
func (r *Repository[T]) All(ctx context.Context, scopes ...scope.Scope) ([]T, error) {
	return r.newQuery().Scopes(scopes...).All(ctx)
}

// Each lazily iterates over every row in primary key order. Ranging over
// the sequence again reads the table again. A connection stays checked
// out until the loop ends.
func (r *Repository[T]) Each(ctx context.Context) iter.Seq2[T, error] {
	return r.newQuery().Each(ctx)
}

// Count returns the number of rows in the table.
func (r *Repository[T]) Count(ctx context.Context) (int64, error) {
	return r.newQuery().Count(ctx)
}
