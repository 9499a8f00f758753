package main

import (
	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/mickamy/repokit/orm"
)

func newMigrateCommand() *cobra.Command {
	flags := connFlags()
	var force bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the authors and articles tables",
		Long: `Create the authors and articles tables if they do not exist.

With --force existing tables are dropped first and every row is lost.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer e.close()

			if err := orm.Migrate(cmd.Context(), e.db, e.reg, force); err != nil {
				return err //nolint:wrapcheck // pass through
			}
			for _, s := range e.reg.Schemas() {
				e.log.Info().Str("table", s.Table).Bool("recreated", force).Msg("table ready")
			}
			return nil
		},
	}

	cobraflags.RegisterMap(cmd, flags)
	cmd.Flags().BoolVar(&force, "force", false, "Drop existing tables before creating them")
	return cmd
}
