package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/openkcm/common-sdk/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/config"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/db"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/log"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/manager"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/model"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/registry"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo/sql"
)

const (
	metricsReadHeaderTimeout = 5 * time.Second
	shutdownTimeout          = 10 * time.Second
)

func Cmd(buildInfo string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "SaasHub Server",
		Long:  "SaasHub Server - the control plane service managing tenants and their databases.",
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

			return run(ctx, cfg)
		},
	}

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	log.Debug(ctx, "Starting the application", slog.Any("config", cfg))

	err := db.WaitForControlStore(ctx, cfg.Database)
	if err != nil {
		return oops.In("main").Wrapf(err, "control store did not become ready")
	}

	dbCon, err := db.StartDB(ctx, cfg)
	if err != nil {
		return oops.In("main").Wrapf(err, "failed to start the control store")
	}

	repository := sql.NewRepository(dbCon)
	reg := registry.New(dbCon, cfg.Database)

	seeds, err := cfg.Catalog.LoadSeeds()
	if err != nil {
		return oops.In("main").Wrapf(err, "failed to load the application catalog")
	}

	managers := manager.New(repository, reg, cfg, seeds)

	if cfg.Provisioning.WarmUpOnStart {
		warmUp(ctx, repository, reg)
	}

	metricsServer := startMetricsServer(ctx, cfg.Metrics.Address)

	log.Info(ctx, "SaasHub server started",
		slog.Int("tenantConnections", managers.Registry.Size()))

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = metricsServer.Shutdown(shutdownCtx)
	if err != nil {
		log.Error(shutdownCtx, "failed shutting down metrics server", err)
	}

	reg.DisposeAll(shutdownCtx)

	log.Info(shutdownCtx, "SaasHub server stopped")

	return nil
}

// warmUp opens tenant connections for every active organization so first
// requests do not pay the connection cost. Failures are logged by the
// registry and never abort startup.
func warmUp(ctx context.Context, repository repo.Repo, reg *registry.Registry) {
	query := repo.NewQuery().Where(repo.StatusField, model.OrganizationStatusActive)

	err := repo.ProcessInBatch(ctx, repository, query, repo.DefaultLimit,
		func(organizations []*model.Organization) error {
			names := make([]string, 0, len(organizations))
			for _, organization := range organizations {
				names = append(names, organization.DatabaseName)
			}

			reg.WarmUp(ctx, names)

			return nil
		})
	if err != nil {
		log.Error(ctx, "failed listing organizations for warm-up", err)
	}
}

func startMetricsServer(ctx context.Context, address string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "metrics server failed", err)
		}
	}()

	return srv
}
