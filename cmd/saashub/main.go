package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openkcm/common-sdk/pkg/utils"
	"github.com/spf13/cobra"

	slogctx "github.com/veqryn/slog-context"

	"github.com/chifouu65/sass-hub-v2-sub000/cmd/migrator"
	"github.com/chifouu65/sass-hub-v2-sub000/cmd/server"
	"github.com/chifouu65/sass-hub-v2-sub000/cmd/taskscheduler"
	"github.com/chifouu65/sass-hub-v2-sub000/cmd/taskworker"
)

var (
	// BuildInfo will be set by the build system
	BuildInfo = "{}"

	isVersionCmd            bool
	gracefulShutdownSec     int64
	gracefulShutdownMessage string
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saashub",
		Short: "SaasHub - Multi-tenant application platform",
		Long:  `SaasHub is a multi-tenant control plane managing organizations, memberships, roles and application subscriptions, with one isolated database per tenant.`,
	}

	cmd.PersistentFlags().Int64Var(&gracefulShutdownSec, "graceful-shutdown", 1, "graceful shutdown seconds")
	cmd.PersistentFlags().StringVar(&gracefulShutdownMessage, "graceful-shutdown-message", "Graceful shutdown in %d seconds",
		"graceful shutdown message")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "SaasHub Version",
			RunE: func(cmd *cobra.Command, args []string) error {
				isVersionCmd = true
				value, err := utils.ExtractFromComplexValue(BuildInfo)
				if err != nil {
					return err
				}
				fmt.Println(value)
				return nil
			},
		},
		server.Cmd(BuildInfo),
		migrator.Cmd(BuildInfo),
		taskworker.Cmd(BuildInfo),
		taskscheduler.Cmd(BuildInfo),
	)

	return cmd
}

func main() {
	ctx, cancelOnSignal := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer cancelOnSignal()

	err := rootCmd().ExecuteContext(ctx)
	if err != nil {
		slogctx.Error(ctx, "Failed to start the application", "error", err)
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// graceful shutdown so running goroutines may finish
	if !isVersionCmd {
		_, _ = fmt.Fprintln(os.Stderr, fmt.Sprintf(gracefulShutdownMessage, gracefulShutdownSec))
		time.Sleep(time.Duration(gracefulShutdownSec) * time.Second)
	}
}
