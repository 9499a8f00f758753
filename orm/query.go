package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"reflect"
	"strings"

	"github.com/mickamy/repokit/internal/sqlerr"
	"github.com/mickamy/repokit/scope"
)

// ScanFunc scans a single row into T.
// Written per entity alongside its Schema.
type ScanFunc[T any] func(rows *sql.Rows) (T, error)

// ColumnValueFunc extracts column names and their values from a *T.
// When includesPK is false the primary key column is excluded (for INSERT
// with auto-increment). A nil value means the attribute is missing.
type ColumnValueFunc[T any] func(t *T, includesPK bool) (columns []string, values []any)

// SetPKFunc sets the auto-generated primary key on *T after INSERT.
// May be nil when the primary key is not auto-generated.
type SetPKFunc[T any] func(t *T, id int64)

// Direction is the sort direction of an ordering clause.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

func (d Direction) reverse() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// Query represents a pending query against a single table.
// All builder methods return a new Query; the receiver is never modified.
//
// Builder mistakes (unknown columns, non-positive limits) are recorded on
// the returned Query and reported by Err and by every terminal method
// before anything is sent to storage.
type Query[T any] struct {
	db          Querier
	schema      *Schema
	scan        ScanFunc[T]
	colValPairs ColumnValueFunc[T]
	setPK       SetPKFunc[T]

	where predicate
	order *ordering
	limit *int

	err error
}

// predicate is a conjunction of equality filters and negated
// sub-predicates.
type predicate struct {
	filters  []filter
	excludes []predicate
}

type filter struct {
	column string
	value  any
}

type ordering struct {
	column string
	dir    Direction
}

func (p predicate) clone() predicate {
	p2 := predicate{filters: append([]filter(nil), p.filters...)}
	if len(p.excludes) > 0 {
		p2.excludes = make([]predicate, len(p.excludes))
		for i, e := range p.excludes {
			p2.excludes[i] = e.clone()
		}
	}
	return p2
}

func (p predicate) empty() bool {
	return len(p.filters) == 0 && len(p.excludes) == 0
}

// NewQuery is called by per-entity factory functions.
func NewQuery[T any](
	db Querier,
	schema *Schema,
	scan ScanFunc[T],
	colValPairs ColumnValueFunc[T],
	setPK SetPKFunc[T],
) *Query[T] {
	return &Query[T]{
		db:          db,
		schema:      schema,
		scan:        scan,
		colValPairs: colValPairs,
		setPK:       setPK,
	}
}

// clone returns a shallow copy with slices copied to avoid aliasing.
func (q *Query[T]) clone() *Query[T] {
	q2 := *q
	q2.where = q.where.clone()
	if q.order != nil {
		o := *q.order
		q2.order = &o
	}
	if q.limit != nil {
		n := *q.limit
		q2.limit = &n
	}
	return &q2
}

// Err returns the first builder error recorded on the query, if any.
func (q *Query[T]) Err() error { return q.err }

// Schema returns the schema of the queried table.
func (q *Query[T]) Schema() *Schema { return q.schema }

func (q *Query[T]) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

func (q *Query[T]) checkColumn(column string) bool {
	if !q.schema.HasColumn(column) {
		q.fail(&SchemaError{Table: q.schema.Table, Column: column})
		return false
	}
	return true
}

// --- Builder methods ---

// Where adds an equality filter. Filters are combined with AND. Calling
// Where again for the same column replaces the earlier value.
func (q *Query[T]) Where(column string, value any) *Query[T] {
	q2 := q.clone()
	q2.ApplyWhere(column, value)
	return q2
}

// Asc orders by column ascending, replacing any earlier ordering.
func (q *Query[T]) Asc(column string) *Query[T] {
	q2 := q.clone()
	q2.ApplyOrder(column, false)
	return q2
}

// Desc orders by column descending, replacing any earlier ordering.
func (q *Query[T]) Desc(column string) *Query[T] {
	q2 := q.clone()
	q2.ApplyOrder(column, true)
	return q2
}

// Limit caps the number of rows returned. n must be positive.
func (q *Query[T]) Limit(n int) *Query[T] {
	q2 := q.clone()
	q2.ApplyLimit(n)
	return q2
}

// Exclude returns a query matching the rows of q that other does not
// match. Only the conditions of other are used; its ordering and limit
// are ignored. Excluding a query without conditions matches nothing.
func (q *Query[T]) Exclude(other *Query[T]) *Query[T] {
	q2 := q.clone()
	if other.err != nil {
		q2.fail(other.err)
	}
	q2.where.excludes = append(q2.where.excludes, other.where.clone())
	return q2
}

// Scopes applies the given scope.Scope values to the query.
func (q *Query[T]) Scopes(scopes ...scope.Scope) *Query[T] {
	q2 := q.clone()
	for _, s := range scopes {
		s.Apply(q2)
	}
	return q2
}

// --- scope.Applier implementation ---

func (q *Query[T]) ApplyWhere(column string, value any) {
	if !q.checkColumn(column) {
		return
	}
	for i, f := range q.where.filters {
		if f.column == column {
			q.where.filters[i].value = value
			return
		}
	}
	q.where.filters = append(q.where.filters, filter{column, value})
}

func (q *Query[T]) ApplyOrder(column string, desc bool) {
	if !q.checkColumn(column) {
		return
	}
	dir := Asc
	if desc {
		dir = Desc
	}
	q.order = &ordering{column: column, dir: dir}
}

func (q *Query[T]) ApplyLimit(n int) {
	if n <= 0 {
		q.fail(&InvalidArgumentError{Op: "Limit", Value: n})
		return
	}
	q.limit = &n
}

var _ scope.Applier = (*Query[any])(nil)

// --- Terminal methods ---

// Each returns a lazy sequence over the matching rows. Rows are read from
// storage while the sequence is iterated; every new range statement runs
// the query again. The loop holds one pooled connection until it ends, so
// queries issued from its body need a pool with room for a second one.
func (q *Query[T]) Each(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if q.err != nil {
			yield(zero, q.err)
			return
		}

		query, args := q.rewrite(q.buildSelect(false))
		rows, err := q.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(zero, err)
			return
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			item, err := q.scan(rows)
			if !yield(item, err) || err != nil {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, err)
		}
	}
}

// All executes a SELECT and returns all matching rows.
func (q *Query[T]) All(ctx context.Context) ([]T, error) {
	var result []T
	for item, err := range q.Each(ctx) {
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, nil
}

// First executes a SELECT with LIMIT 1 and returns the first row.
// Returns ErrNotFound if no rows match.
func (q *Query[T]) First(ctx context.Context) (T, error) {
	return q.Limit(1).one(ctx, false)
}

// Last returns the last row under the current ordering (primary key
// ascending when none was set). Returns ErrNotFound if no rows match.
func (q *Query[T]) Last(ctx context.Context) (T, error) {
	var zero T
	if q.err != nil {
		return zero, q.err
	}
	if q.limit != nil {
		// The last of a capped result set is not the first of the
		// reversed table; read the capped set instead.
		items, err := q.All(ctx)
		if err != nil {
			return zero, err
		}
		if len(items) == 0 {
			return zero, ErrNotFound
		}
		return items[len(items)-1], nil
	}
	return q.Limit(1).one(ctx, true)
}

func (q *Query[T]) one(ctx context.Context, reverse bool) (T, error) {
	var zero T
	if q.err != nil {
		return zero, q.err
	}

	query, args := q.rewrite(q.buildSelect(reverse))
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return zero, err //nolint:wrapcheck // pass through
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return zero, err //nolint:wrapcheck // pass through
		}
		return zero, ErrNotFound
	}
	return q.scan(rows)
}

// Count returns the number of rows matching the current query conditions.
func (q *Query[T]) Count(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}

	var count int64
	query, args := q.buildAggregate("COUNT(*)", q.schema.PrimaryKey)
	if err := q.scalar(ctx, query, args, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// Exists returns true if at least one row matches the current query conditions.
func (q *Query[T]) Exists(ctx context.Context) (bool, error) {
	count, err := q.Limit(1).Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Average returns the arithmetic mean of column over the matching rows.
// An empty result set averages to 0.
func (q *Query[T]) Average(ctx context.Context, column string) (float64, error) {
	q2 := q.clone()
	q2.checkColumn(column)
	if q2.err != nil {
		return 0, q2.err
	}

	var avg sql.NullFloat64
	query, args := q2.buildAggregate(q.db.dialect().Average(q.qi(column)), column)
	if err := q2.scalar(ctx, query, args, &avg); err != nil {
		return 0, err
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

func (q *Query[T]) scalar(ctx context.Context, query string, args []any, dest any) error {
	query, args = q.rewrite(query, args)
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err //nolint:wrapcheck // pass through
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err //nolint:wrapcheck // pass through
		}
		return errors.New("orm: aggregate returned no rows")
	}
	if err := rows.Scan(dest); err != nil {
		return err //nolint:wrapcheck // pass through
	}
	return rows.Err() //nolint:wrapcheck // pass through
}

// Create inserts a new row. If setPK is set, the primary key is populated
// via RETURNING (PostgreSQL) or LastInsertId (MySQL, SQLite).
//
// A NOT NULL column without default whose value is nil is rejected with a
// *PersistenceError before the INSERT is sent. Storage errors are returned
// as a *PersistenceError wrapping the driver error.
func (q *Query[T]) Create(ctx context.Context, t *T) error {
	if q.err != nil {
		return q.err
	}

	includesPK := q.setPK == nil
	columns, values := q.colValPairs(t, includesPK)
	for i, col := range columns {
		if values[i] == nil && q.schema.requiredColumn(col) {
			return &PersistenceError{Table: q.schema.Table, Column: col, Reason: ReasonMissingAttribute}
		}
	}

	query, values := q.rewrite(q.buildInsert(columns), values)

	d := q.db.dialect()
	if d.UseReturning() && q.setPK != nil {
		query += d.ReturningClause(q.schema.PrimaryKey)
		rows, err := q.db.QueryContext(ctx, query, values...)
		if err != nil {
			return q.persistErr(err)
		}
		defer func() { _ = rows.Close() }()
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return q.persistErr(err)
			}
			return errors.New("orm: INSERT RETURNING returned no rows")
		}
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err //nolint:wrapcheck // pass through
		}
		q.setPK(t, id)
		return rows.Err() //nolint:wrapcheck // pass through
	}

	result, err := q.db.ExecContext(ctx, query, values...)
	if err != nil {
		return q.persistErr(err)
	}

	if q.setPK != nil {
		id, err := result.LastInsertId()
		if err != nil {
			return err //nolint:wrapcheck // pass through
		}
		q.setPK(t, id)
	}
	return nil
}

// Update updates the row identified by the primary key of t.
// All non-PK columns are SET.
func (q *Query[T]) Update(ctx context.Context, t *T) error {
	if q.err != nil {
		return q.err
	}

	allCols, allVals := q.colValPairs(t, true)

	var setCols []string
	var setVals []any
	var pkVal any
	for i, col := range allCols {
		if col == q.schema.PrimaryKey {
			pkVal = allVals[i]
		} else {
			setCols = append(setCols, col)
			setVals = append(setVals, allVals[i])
		}
	}
	if pkVal == nil || reflect.ValueOf(pkVal).IsZero() {
		return errors.New("orm: primary key value is required for Update")
	}
	for i, col := range setCols {
		if setVals[i] == nil && q.schema.requiredColumn(col) {
			return &PersistenceError{Table: q.schema.Table, Column: col, Reason: ReasonMissingAttribute}
		}
	}

	setVals = append(setVals, pkVal)
	query, setVals := q.rewrite(q.buildUpdate(setCols), setVals)

	result, err := q.db.ExecContext(ctx, query, setVals...)
	if err != nil {
		return q.persistErr(err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes rows matching the accumulated conditions.
// Returns an error if no conditions are set (safety guard).
func (q *Query[T]) Delete(ctx context.Context) error {
	if q.err != nil {
		return q.err
	}
	if q.where.empty() {
		return errors.New("orm: Delete without WHERE clause is not allowed")
	}
	query, args := q.rewrite(q.buildDelete())

	_, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return q.persistErr(err)
	}
	return nil
}

func (q *Query[T]) persistErr(err error) error {
	pe := &PersistenceError{Table: q.schema.Table, Err: err}
	switch sqlerr.Classify(err) {
	case sqlerr.NotNull:
		pe.Reason = ReasonNotNull
	case sqlerr.ForeignKey:
		pe.Reason = ReasonForeignKey
	case sqlerr.Unique:
		pe.Reason = ReasonUnique
	}
	return pe
}

// --- SQL building ---

// qi quotes an identifier (table/column name) using the dialect.
func (q *Query[T]) qi(name string) string {
	return q.db.dialect().QuoteIdent(name)
}

// quoteColumns joins column names with dialect-aware quoting.
func (q *Query[T]) quoteColumns(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = q.qi(c)
	}
	return strings.Join(quoted, ", ")
}

// orderBy renders the ORDER BY clause. The primary key ascending is
// always the last key so that ties resolve the same way on every run.
func (q *Query[T]) orderBy(reverse bool) string {
	keys := make([]ordering, 0, 2)
	if q.order != nil {
		keys = append(keys, *q.order)
	}
	if q.order == nil || q.order.column != q.schema.PrimaryKey {
		keys = append(keys, ordering{column: q.schema.PrimaryKey, dir: Asc})
	}

	parts := make([]string, len(keys))
	for i, k := range keys {
		dir := k.dir
		if reverse {
			dir = dir.reverse()
		}
		parts[i] = q.qi(k.column) + " " + dir.String()
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (q *Query[T]) buildSelect(reverse bool) (string, []any) {
	return q.buildSelectColumns(q.quoteColumns(q.schema.ColumnNames()), reverse)
}

func (q *Query[T]) buildSelectColumns(columns string, reverse bool) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(columns)
	b.WriteString(" FROM ")
	b.WriteString(q.qi(q.schema.Table))

	args := q.appendWhere(&b)

	b.WriteString(q.orderBy(reverse))

	if q.limit != nil {
		fmt.Fprintf(&b, " LIMIT %d", *q.limit)
	}

	return b.String(), args
}

// buildAggregate renders SELECT expr over the matching rows. When the
// query is limited the rows are selected in a sub-query first, since
// LIMIT on the outer statement would cap the aggregate's single row
// instead of its input.
func (q *Query[T]) buildAggregate(expr, column string) (string, []any) {
	if q.limit != nil {
		inner, args := q.buildSelectColumns(q.qi(column), false)
		return "SELECT " + expr + " FROM (" + inner + ") AS " + q.qi("sub"), args
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(expr)
	b.WriteString(" FROM ")
	b.WriteString(q.qi(q.schema.Table))
	args := q.appendWhere(&b)
	return b.String(), args
}

func (q *Query[T]) buildInsert(columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		q.qi(q.schema.Table),
		q.quoteColumns(columns),
		strings.Join(placeholders, ", "),
	)
}

func (q *Query[T]) buildUpdate(setCols []string) string {
	sets := make([]string, len(setCols))
	for i, col := range setCols {
		sets[i] = q.qi(col) + " = ?"
	}
	return fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = ?",
		q.qi(q.schema.Table),
		strings.Join(sets, ", "),
		q.qi(q.schema.PrimaryKey),
	)
}

func (q *Query[T]) buildDelete() (string, []any) {
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(q.qi(q.schema.Table))
	args := q.appendWhere(&b)
	return b.String(), args
}

func (q *Query[T]) appendWhere(b *strings.Builder) []any {
	if q.where.empty() {
		return nil
	}
	clause, args := q.renderPredicate(q.where)
	b.WriteString(" WHERE ")
	b.WriteString(clause)
	return args
}

func (q *Query[T]) renderPredicate(p predicate) (string, []any) {
	parts := make([]string, 0, len(p.filters)+len(p.excludes))
	var args []any
	for _, f := range p.filters {
		if f.value == nil {
			parts = append(parts, q.qi(f.column)+" IS NULL")
			continue
		}
		parts = append(parts, q.qi(f.column)+" = ?")
		args = append(args, f.value)
	}
	for _, e := range p.excludes {
		if e.empty() {
			parts = append(parts, "1 = 0")
			continue
		}
		clause, eargs := q.renderPredicate(e)
		parts = append(parts, "NOT ("+clause+")")
		args = append(args, eargs...)
	}
	return strings.Join(parts, " AND "), args
}

// rewrite converts ? placeholders to dialect-specific placeholders.
// For MySQL and SQLite this leaves the query unchanged. For PostgreSQL,
// ? becomes $1, $2, etc.
func (q *Query[T]) rewrite(query string, args []any) (string, []any) {
	return rewritePlaceholders(q.db.dialect(), query), args
}

func rewritePlaceholders(d Dialect, query string) string {
	var b strings.Builder
	b.Grow(len(query))
	idx := 1
	for i := range len(query) {
		if query[i] == '?' {
			b.WriteString(d.Placeholder(idx))
			idx++
		} else {
			b.WriteByte(query[i])
		}
	}
	return b.String()
}
