package db

import (
	"context"
	"database/sql"
	"time"

	retry "github.com/avast/retry-go/v5"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/config"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/db/dsn"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/log"
)

const (
	waitAttempts = 10
	waitDelay    = 500 * time.Millisecond
	waitMaxDelay = 10 * time.Second
)

// WaitForControlStore blocks until the control store accepts connections,
// backing off between attempts. Used at process startup only; the managers
// never retry.
func WaitForControlStore(ctx context.Context, conf config.Database) error {
	dsnFromConfig, err := dsn.FromDBConfig(conf)
	if err != nil {
		return errs.Wrap(ErrLoadingDsnFromDBConfig, err)
	}

	retrier := retry.New(
		retry.RetryIf(func(error) bool {
			return ctx.Err() == nil
		}),
		retry.Attempts(waitAttempts),
		retry.Delay(waitDelay),
		retry.MaxDelay(waitMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)

	err = retrier.Do(func() error {
		sqlDB, err := sql.Open("pgx", dsnFromConfig)
		if err != nil {
			return err
		}

		defer func() {
			closeErr := sqlDB.Close()
			if closeErr != nil {
				log.Warn(ctx, "failed closing probe connection")
			}
		}()

		return sqlDB.PingContext(ctx)
	})
	if err != nil {
		return errs.Wrap(ErrStartingDBCon, err)
	}

	return nil
}
