package orm

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect abstracts SQL differences between database engines.
type Dialect interface {
	// Name returns the canonical dialect name ("mysql", "postgres", "sqlite").
	Name() string

	// Placeholder returns the bind parameter placeholder for the given
	// 1-based index. MySQL and SQLite return "?" regardless of index;
	// PostgreSQL returns "$1", "$2", etc.
	Placeholder(index int) string

	// QuoteIdent quotes an identifier (table name, column name) to safely
	// handle SQL reserved words. MySQL uses backticks; PostgreSQL and
	// SQLite use double quotes.
	QuoteIdent(name string) string

	// UseReturning reports whether INSERT should use a RETURNING clause
	// to retrieve the auto-generated primary key (PostgreSQL) rather
	// than relying on LastInsertId (MySQL, SQLite).
	UseReturning() bool

	// ReturningClause returns the RETURNING clause appended to INSERT
	// statements. Returns an empty string for dialects that do not use it.
	ReturningClause(pk string) string

	// ColumnType returns the DDL type used for t.
	ColumnType(t ColumnType) string

	// AutoIncrementPK returns the full column definition of an
	// auto-generated integer primary key.
	AutoIncrementPK(column string) string

	// Literal renders a DEFAULT value.
	Literal(v any) string

	// Average returns an AVG expression over expr whose result scans
	// into a float64.
	Average(expr string) string
}

// MySQL is the Dialect for MySQL / MariaDB.
var MySQL Dialect = mysqlDialect{}

// PostgreSQL is the Dialect for PostgreSQL.
var PostgreSQL Dialect = postgresDialect{}

// SQLite is the Dialect for SQLite.
var SQLite Dialect = sqliteDialect{}

// DialectFor returns the Dialect for a driver or scheme name.
// Aliases are accepted: "pgx", "postgresql" and "postgres" all map to
// PostgreSQL; "sqlite3" and "sqlite" map to SQLite.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "pgx", "postgresql", "postgres":
		return PostgreSQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return nil, &ConfigurationError{Entity: name, Reason: "unknown dialect"}
	}
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string                    { return "mysql" }
func (mysqlDialect) Placeholder(_ int) string        { return "?" }
func (mysqlDialect) QuoteIdent(name string) string   { return "`" + name + "`" }
func (mysqlDialect) UseReturning() bool              { return false }
func (mysqlDialect) ReturningClause(_ string) string { return "" }
func (mysqlDialect) Average(expr string) string      { return "AVG(" + expr + ")" }

func (mysqlDialect) ColumnType(t ColumnType) string {
	switch t {
	case Integer:
		return "BIGINT"
	case Boolean:
		return "BOOLEAN"
	default:
		return "VARCHAR(255)"
	}
}

func (d mysqlDialect) AutoIncrementPK(column string) string {
	return d.QuoteIdent(column) + " BIGINT AUTO_INCREMENT PRIMARY KEY"
}

func (mysqlDialect) Literal(v any) string { return literal(v, "TRUE", "FALSE") }

type postgresDialect struct{}

func (postgresDialect) Name() string                     { return "postgres" }
func (postgresDialect) Placeholder(index int) string     { return fmt.Sprintf("$%d", index) }
func (postgresDialect) QuoteIdent(name string) string    { return `"` + name + `"` }
func (postgresDialect) UseReturning() bool               { return true }
func (postgresDialect) ReturningClause(pk string) string { return ` RETURNING "` + pk + `"` }

// AVG over integers yields NUMERIC in PostgreSQL.
func (postgresDialect) Average(expr string) string {
	return "CAST(AVG(" + expr + ") AS DOUBLE PRECISION)"
}

func (postgresDialect) ColumnType(t ColumnType) string {
	switch t {
	case Integer:
		return "BIGINT"
	case Boolean:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

func (d postgresDialect) AutoIncrementPK(column string) string {
	return d.QuoteIdent(column) + " BIGSERIAL PRIMARY KEY"
}

func (postgresDialect) Literal(v any) string { return literal(v, "TRUE", "FALSE") }

type sqliteDialect struct{}

func (sqliteDialect) Name() string                    { return "sqlite" }
func (sqliteDialect) Placeholder(_ int) string        { return "?" }
func (sqliteDialect) QuoteIdent(name string) string   { return `"` + name + `"` }
func (sqliteDialect) UseReturning() bool              { return false }
func (sqliteDialect) ReturningClause(_ string) string { return "" }
func (sqliteDialect) Average(expr string) string      { return "AVG(" + expr + ")" }

func (sqliteDialect) ColumnType(t ColumnType) string {
	switch t {
	case Integer:
		return "INTEGER"
	case Boolean:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// AUTOINCREMENT keeps ids strictly increasing even after deletes.
func (d sqliteDialect) AutoIncrementPK(column string) string {
	return d.QuoteIdent(column) + " INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (sqliteDialect) Literal(v any) string { return literal(v, "1", "0") }

func literal(v any, trueLit, falseLit string) string {
	switch x := v.(type) {
	case bool:
		if x {
			return trueLit
		}
		return falseLit
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	default:
		return fmt.Sprintf("%v", x)
	}
}
