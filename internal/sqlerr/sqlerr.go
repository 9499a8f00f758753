// Package sqlerr classifies constraint violations reported by the
// supported database drivers.
//
// Each driver reports violations with its own error type and code table;
// Classify maps them onto a small driver-neutral Kind.
package sqlerr

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Kind is a driver-neutral constraint violation class.
type Kind int

const (
	Other Kind = iota
	NotNull
	ForeignKey
	Unique
)

func (k Kind) String() string {
	switch k {
	case NotNull:
		return "not_null"
	case ForeignKey:
		return "foreign_key"
	case Unique:
		return "unique"
	default:
		return "other"
	}
}

// SQLSTATE codes shared by PostgreSQL drivers.
const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// MySQL server error numbers.
const (
	mysqlDupEntry         = 1062
	mysqlBadNull          = 1048
	mysqlNoDefault        = 1364
	mysqlRowIsReferenced  = 1451
	mysqlNoReferencedRow  = 1452
	mysqlRowIsReferenced2 = 1217
	mysqlNoReferencedRow2 = 1216
)

// Classify returns the Kind of err, or Other when err is nil or not a
// recognised constraint violation.
func Classify(err error) Kind {
	if err == nil {
		return Other
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fromSQLState(pgErr.Code)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fromSQLState(string(pqErr.Code))
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlBadNull, mysqlNoDefault:
			return NotNull
		case mysqlNoReferencedRow, mysqlNoReferencedRow2, mysqlRowIsReferenced, mysqlRowIsReferenced2:
			return ForeignKey
		case mysqlDupEntry:
			return Unique
		}
		return Other
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return fromSQLite(liteErr)
	}

	return Other
}

func fromSQLState(code string) Kind {
	switch code {
	case pgNotNullViolation:
		return NotNull
	case pgForeignKeyViolation:
		return ForeignKey
	case pgUniqueViolation:
		return Unique
	default:
		return Other
	}
}

func fromSQLite(err *sqlite.Error) Kind {
	switch err.Code() {
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return NotNull
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return ForeignKey
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return Unique
	}

	// Connections without extended result codes only report
	// SQLITE_CONSTRAINT; fall back to the message.
	if err.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return Other
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return NotNull
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ForeignKey
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return Unique
	default:
		return Other
	}
}
