package taskscheduler

import (
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/openkcm/common-sdk/pkg/logger"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/async"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/config"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/log"
)

func Cmd(buildInfo string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task-scheduler",
		Short: "SaasHub Task Scheduler",
		Long:  "SaasHub Task Scheduler - enqueues the periodic tasks defined in the scheduler config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.LoadConfig()
			if err != nil {
				return oops.In("main").Wrapf(err, "failed to load the config")
			}

			err = commoncfg.UpdateConfigVersion(&cfg.BaseConfig, buildInfo)
			if err != nil {
				return oops.In("main").
					Wrapf(err, "Failed to update the version configuration")
			}

			err = logger.InitAsDefault(cfg.Logger, cfg.Application)
			if err != nil {
				return oops.In("main").
					Wrapf(err, "Failed to initialise the logger")
			}

			scheduler, err := async.New(cfg)
			if err != nil {
				return oops.In("main").Wrapf(err, "failed to create the scheduler")
			}

			log.Info(ctx, "starting task scheduler")

			err = scheduler.RunScheduler()
			if err != nil {
				return oops.In("main").Wrapf(err, "failed to run the scheduler")
			}

			return nil
		},
	}

	return cmd
}
