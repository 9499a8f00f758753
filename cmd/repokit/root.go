package main

import (
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mickamy/repokit/config"
	"github.com/mickamy/repokit/internal/database"
	"github.com/mickamy/repokit/internal/logger"
	"github.com/mickamy/repokit/orm"
	"github.com/mickamy/repokit/query"
	"github.com/mickamy/repokit/repository"
)

const (
	uriFlag      = "uri"
	logLevelFlag = "log-level"
)

// connFlags returns the flags every command that opens the store accepts.
// They override REPOKIT_DATABASE__URI and REPOKIT_LOG__LEVEL.
func connFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		uriFlag: &cobraflags.StringFlag{
			Name:  uriFlag,
			Value: "",
			Usage: "Connection URI (sqlite://path, postgres://..., mysql://...)",
		},
		logLevelFlag: &cobraflags.StringFlag{
			Name:  logLevelFlag,
			Value: "",
			Usage: "Log level (trace, debug, info, warn, error)",
		},
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "repokit",
		Short:        "Typed repositories over the authors and articles tables",
		Version:      version,
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newDemoCommand())
	root.AddCommand(newArticlesCommand())
	return root
}

// env holds what a command needs once the store is open.
type env struct {
	log   zerolog.Logger
	db    *database.Database
	reg   *orm.Registry
	repos *repository.Repositories
}

func setup(cmd *cobra.Command, flags map[string]cobraflags.Flag) (*env, error) {
	cfg, err := config.Load(
		config.WithDatabaseURI(flags[uriFlag].GetString()),
		config.WithLogLevel(flags[logLevelFlag].GetString()),
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // already prefixed
	}
	log := logger.New(cfg, cmd.ErrOrStderr())

	reg, err := query.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	db, err := database.Open(cmd.Context(), cfg, log)
	if err != nil {
		return nil, err //nolint:wrapcheck // pass through
	}

	repos, err := repository.NewRepositories(db, reg)
	if err != nil {
		_ = db.Close()
		return nil, err //nolint:wrapcheck // pass through
	}
	return &env{log: log, db: db, reg: reg, repos: repos}, nil
}

func (e *env) close() {
	if err := e.db.Close(); err != nil {
		e.log.Error().Err(err).Msg("close database")
	}
}
