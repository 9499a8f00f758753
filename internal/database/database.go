// Package database opens the store named by the configured URI and wraps
// it for the orm package.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/mickamy/repokit/config"
	"github.com/mickamy/repokit/internal/logger"
	"github.com/mickamy/repokit/orm"
)

// Database is an open connection pool together with its dialect.
type Database struct {
	*orm.DB
	Driver string
	log    zerolog.Logger
}

type target struct {
	driver string
	dsn    string
	// memory is set for sqlite://:memory:, whose data lives only as long
	// as one of its connections stays open.
	memory bool
}

// memSeq names in-memory databases so that every Open gets its own.
var memSeq atomic.Int64

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Open connects to cfg.Database.URI, applies the pool settings and pings
// the store within cfg.Database.PingTimeout.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Database, error) {
	t, err := parseURI(cfg.Database.URI, cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	d, err := orm.DialectFor(t.driver)
	if err != nil {
		return nil, err //nolint:wrapcheck // already a ConfigurationError
	}

	log = log.With().Str("driver", t.driver).Str("uri", Redact(cfg.Database.URI)).Logger()

	raw, err := sql.Open(t.driver, t.dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", t.driver, err)
	}
	configurePool(raw, t, cfg.Database)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.PingTimeout)
	defer cancel()
	if err := raw.PingContext(pingCtx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping %s: %w", t.driver, err)
	}
	log.Info().Msg("connected to the database")

	db := orm.New(raw, d)
	if cfg.Log.Queries {
		db = db.Debug(logger.NewQueryLogger(log))
	}
	return &Database{DB: db, Driver: t.driver, log: log}, nil
}

func (db *Database) Close() error {
	db.log.Info().Msg("closing database connection pool")
	return db.DB.Close() //nolint:wrapcheck // pass through
}

func configurePool(raw *sql.DB, t target, cfg config.DatabaseConfig) {
	raw.SetMaxOpenConns(cfg.MaxOpenConns)
	raw.SetMaxIdleConns(cfg.MaxIdleConns)
	raw.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	if t.memory {
		// Keep one idle connection forever, or the shared cache and every
		// row in it is dropped.
		raw.SetMaxIdleConns(max(cfg.MaxIdleConns, 1))
		raw.SetConnMaxLifetime(0)
		raw.SetConnMaxIdleTime(0)
	}
}

// parseURI maps a connection URI onto a database/sql driver name and DSN.
// pgDriver picks the driver for PostgreSQL URIs.
func parseURI(uri, pgDriver string) (target, error) {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return target{}, &orm.ConfigurationError{Entity: "database.uri", Reason: "missing scheme"}
	}

	switch scheme {
	case "sqlite", "sqlite3":
		// Not parsed as a URL: ":memory:" is not a valid host.
		path := rest
		if path == "" {
			return target{}, &orm.ConfigurationError{Entity: "database.uri", Reason: "sqlite path is empty"}
		}
		if path == ":memory:" {
			// A shared cache lets the pool's connections see one database.
			name := fmt.Sprintf("file:repokit-%d?mode=memory&cache=shared&%s", memSeq.Add(1), sqlitePragmas)
			return target{driver: "sqlite", dsn: name, memory: true}, nil
		}
		// WAL lets readers and a writer use separate connections at once.
		return target{driver: "sqlite", dsn: "file:" + path + "?_pragma=journal_mode(WAL)&" + sqlitePragmas}, nil

	case "postgres", "postgresql":
		if pgDriver == "" {
			pgDriver = "pgx"
		}
		return target{driver: pgDriver, dsn: uri}, nil

	case "mysql", "mariadb":
		u, err := url.Parse(uri)
		if err != nil {
			return target{}, &orm.ConfigurationError{Entity: "database.uri", Reason: err.Error()}
		}
		c := mysql.NewConfig()
		c.Net = "tcp"
		c.Addr = u.Host
		c.DBName = strings.TrimPrefix(u.Path, "/")
		c.ParseTime = true
		// Report matched rows so that an UPDATE writing unchanged values
		// is not mistaken for a missing row.
		c.ClientFoundRows = true
		if u.User != nil {
			c.User = u.User.Username()
			c.Passwd, _ = u.User.Password()
		}
		return target{driver: "mysql", dsn: c.FormatDSN()}, nil

	default:
		return target{}, &orm.ConfigurationError{
			Entity: "database.uri",
			Reason: fmt.Sprintf("unsupported scheme %q", scheme),
		}
	}
}

// Redact hides the password of uri for logging.
func Redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		if strings.Contains(uri, "@") {
			return "<invalid uri>"
		}
		return uri
	}
	return u.Redacted()
}
