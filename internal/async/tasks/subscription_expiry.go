package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/config"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/log"
)

// SubscriptionExpirer sweeps lapsed subscriptions.
type SubscriptionExpirer interface {
	ExpireLapsed(ctx context.Context, now time.Time) (int, error)
}

type SubscriptionExpiryProcessor struct {
	expirer SubscriptionExpirer
}

func NewSubscriptionExpirer(expirer SubscriptionExpirer) *SubscriptionExpiryProcessor {
	return &SubscriptionExpiryProcessor{expirer: expirer}
}

func (p *SubscriptionExpiryProcessor) ProcessTask(ctx context.Context, task *asynq.Task) error {
	ctx = log.InjectTask(ctx, task)
	log.Info(ctx, "Started processing subscription expiry task")

	expired, err := p.expirer.ExpireLapsed(ctx, time.Now().UTC())
	if err != nil {
		log.Error(ctx, "Failed expiring lapsed subscriptions", err)
		return err
	}

	log.Info(ctx, "Finished processing subscription expiry task",
		slog.Int("expired", expired))

	return nil
}

func (p *SubscriptionExpiryProcessor) TaskType() string {
	return config.TypeSubscriptionExpiry
}
