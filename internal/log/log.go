package log

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	slogctx "github.com/veqryn/slog-context"
)

// InjectOrganization attaches the organization the current operation acts on
// to every log line emitted under the returned context.
func InjectOrganization(ctx context.Context, orgID uuid.UUID) context.Context {
	return slogctx.With(ctx, slog.String("organizationId", orgID.String()))
}

// InjectTenantDatabase attaches the tenant database name touched by the
// current provisioning or connection operation.
func InjectTenantDatabase(ctx context.Context, name string) context.Context {
	return slogctx.With(ctx, slog.String("tenantDatabase", name))
}

func InjectTask(ctx context.Context, task *asynq.Task) context.Context {
	return slogctx.With(ctx, slog.String("taskType", task.Type()))
}

func UserAttr(userID uuid.UUID) slog.Attr {
	return slog.String("userId", userID.String())
}

func ErrorAttr(err error) slog.Attr {
	return slog.Attr{
		Key:   slogctx.ErrKey,
		Value: slog.StringValue(err.Error()),
	}
}

func Debug(ctx context.Context, msg string, args ...slog.Attr) {
	slogctx.LogAttrs(ctx, slog.LevelDebug, msg, args...)
}

func Warn(ctx context.Context, msg string, args ...slog.Attr) {
	slogctx.LogAttrs(ctx, slog.LevelWarn, msg, args...)
}

func Info(ctx context.Context, msg string, args ...slog.Attr) {
	slogctx.LogAttrs(ctx, slog.LevelInfo, msg, args...)
}

func Error(ctx context.Context, msg string, err error, args ...slog.Attr) {
	args = append(args, slogctx.Err(err))

	slogctx.LogAttrs(ctx, slog.LevelError, msg, args...)
}
