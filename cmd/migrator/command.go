package migrator

import (
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/openkcm/common-sdk/pkg/logger"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/config"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/db"
)

func Cmd(buildInfo string) *cobra.Command {
	var (
		version  int64
		rollback bool
	)

	cmd := &cobra.Command{
		Use:   "migrator",
		Short: "SaasHub Control Store Migrator",
		Long:  "SaasHub Control Store Migrator - runs goose migrations against the control-plane database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.LoadConfig()
			if err != nil {
				return oops.In("migrator").Wrapf(err, "failed to load the config")
			}

			err = commoncfg.UpdateConfigVersion(&cfg.BaseConfig, buildInfo)
			if err != nil {
				return oops.In("migrator").
					Wrapf(err, "Failed to update the version configuration")
			}

			err = logger.InitAsDefault(cfg.Logger, cfg.Application)
			if err != nil {
				return oops.In("migrator").
					Wrapf(err, "Failed to initialise the logger")
			}

			m, err := db.NewMigrator(cfg)
			if err != nil {
				return oops.In("migrator").Wrapf(err, "failed to create the migrator")
			}

			if rollback {
				err = m.MigrateDownTo(ctx, version)
			} else {
				err = m.MigrateToLatest(ctx)
			}

			if err != nil {
				return oops.In("migrator").Wrapf(err, "migration failed")
			}

			return nil
		},
	}

	cmd.Flags().Int64Var(&version, "version", 0, "target version for rollback")
	cmd.Flags().BoolVar(&rollback, "rollback", false, "run down migrations to the target version")

	return cmd
}
