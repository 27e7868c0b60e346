package async

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/hibiken/asynq"
	"github.com/openkcm/common-sdk/pkg/commoncfg"

	"github.com/chifouu65/sass-hub-v2-sub000/internal/async/tasks"
	conf "github.com/chifouu65/sass-hub-v2-sub000/internal/config"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/db"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/errs"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/log"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/manager"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/registry"
	"github.com/chifouu65/sass-hub-v2-sub000/internal/repo/sql"
)

// syncInterval is the interval at which the scheduled task manager will check
// for config changes.
const syncInterval = 10 * time.Second

var (
	ErrLoadingTaskQueueHost = errors.New("error loading task queue host")
	ErrACLPassword          = errors.New("error loading task queue ACL password")
	ErrACLUsername          = errors.New("error loading task queue ACL username")
)

// TaskHandler defines the interface for handling async tasks.
type TaskHandler interface {
	ProcessTask(ctx context.Context, task *asynq.Task) error
	TaskType() string
}

// App manages task processing, scheduling, and worker functionality.
type App struct {
	asynqClient    *asynq.Client
	asynqServer    *asynq.Server
	asynqServerCfg asynq.Config
	taskQueueCfg   asynq.RedisClientOpt
	tasks          map[string]TaskHandler
	cfg            *conf.Config
}

// New creates a new instance of App.
func New(cfg *conf.Config) (*App, error) {
	redisOpts, err := buildRedisClientOpt(cfg.Scheduler.TaskQueue)
	if err != nil {
		return nil, err
	}

	return &App{
		taskQueueCfg: redisOpts,
		asynqClient:  asynq.NewClient(redisOpts),
		tasks:        make(map[string]TaskHandler),
		cfg:          cfg,
	}, nil
}

// RegisterTasks registers multiple task handlers.
func (a *App) RegisterTasks(ctx context.Context, handlers []TaskHandler) {
	for _, handler := range handlers {
		taskType := handler.TaskType()
		a.tasks[taskType] = handler
		log.Info(ctx, "Registered task", slog.String("Name", taskType))
	}
}

// RunWorker connects to the control store, wires the managers and processes
// tasks until the server is shut down.
func (a *App) RunWorker(ctx context.Context) error {
	log.Info(ctx, "Starting async worker")

	dbCon, err := db.StartDBConnection(ctx, a.cfg.Database, a.cfg.DatabaseReplicas)
	if err != nil {
		return errs.Wrap(db.ErrStartingDBCon, err)
	}

	repository := sql.NewRepository(dbCon)
	reg := registry.New(dbCon, a.cfg.Database)

	seeds, err := a.cfg.Catalog.LoadSeeds()
	if err != nil {
		return err
	}

	managers := manager.New(repository, reg, a.cfg, seeds)

	a.RegisterTasks(ctx, []TaskHandler{
		tasks.NewSubscriptionExpirer(managers.Subscriptions),
	})

	a.asynqServer = asynq.NewServer(a.taskQueueCfg, a.asynqServerCfg)

	mux := asynq.NewServeMux()

	for taskName, handler := range a.tasks {
		mux.HandleFunc(taskName, handler.ProcessTask)
	}

	log.Info(ctx, "Starting worker server")

	err = a.asynqServer.Run(mux)
	if err != nil {
		return errs.Wrap(ErrStartingWorker, err)
	}

	return nil
}

// RunScheduler starts the cron job scheduling of the tasks defined in the
// scheduler config.
func (a *App) RunScheduler() error {
	provider := &ScheduledTaskConfigProvider{a.cfg}

	mgr, err := asynq.NewPeriodicTaskManager(
		asynq.PeriodicTaskManagerOpts{
			RedisConnOpt:               a.taskQueueCfg,
			PeriodicTaskConfigProvider: provider,
			SyncInterval:               syncInterval,
		})
	if err != nil {
		return errs.Wrap(ErrCreatingScheduler, err)
	}

	err = mgr.Run()
	if err != nil {
		return errs.Wrap(ErrRunningScheduler, err)
	}

	return nil
}

// EnqueueTask is used to run tasks out of schedule.
func (a *App) EnqueueTask(
	ctx context.Context,
	task *asynq.Task,
	opts ...asynq.Option,
) (*asynq.TaskInfo, error) {
	ctx = log.InjectTask(ctx, task)
	log.Debug(ctx, "Enqueuing task to be processed")

	info, err := a.asynqClient.Enqueue(task, opts...)
	if err != nil {
		return nil, errs.Wrap(ErrEnqueueingTask, err)
	}

	log.Debug(ctx, "Enqueued task")

	return info, nil
}

// Shutdown gracefully shuts down the worker and scheduler.
func (a *App) Shutdown(ctx context.Context) error {
	log.Info(ctx, "Starting async app shutdown")

	if a.asynqServer != nil {
		a.asynqServer.Shutdown()
	}

	if a.asynqClient != nil {
		err := a.asynqClient.Close()
		if err != nil {
			return errs.Wrap(ErrClientShutdown, err)
		}
	}

	log.Info(ctx, "Async app shutdown completed")

	return nil
}

func buildRedisClientOpt(taskQueueCfg conf.Redis) (asynq.RedisClientOpt, error) {
	taskQueueHost, err := commoncfg.LoadValueFromSourceRef(taskQueueCfg.Host)
	if err != nil {
		return asynq.RedisClientOpt{}, errs.Wrap(ErrLoadingTaskQueueHost, err)
	}

	redisOpts := asynq.RedisClientOpt{
		Addr: net.JoinHostPort(string(taskQueueHost), taskQueueCfg.Port),
	}

	if taskQueueCfg.ACL.Enabled {
		username, password, err := loadACLAuthFromConfig(taskQueueCfg)
		if err != nil {
			return asynq.RedisClientOpt{}, err
		}

		redisOpts.Username = string(username)
		redisOpts.Password = string(password)
	}

	return redisOpts, nil
}

func loadACLAuthFromConfig(cfg conf.Redis) ([]byte, []byte, error) {
	username, err := commoncfg.LoadValueFromSourceRef(cfg.ACL.Username)
	if err != nil {
		return nil, nil, ErrACLUsername
	}

	password, err := commoncfg.LoadValueFromSourceRef(cfg.ACL.Password)
	if err != nil {
		return nil, nil, ErrACLPassword
	}

	return username, password, nil
}
