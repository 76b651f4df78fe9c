package summarizer

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"

	"github.com/pdf-summarizer/server/internal/metrics"
	logx "github.com/pdf-summarizer/server/pkg/logger"
)

type stageStartKey struct{ name string }

// newStageObserver logs every chain stage and records its duration.
func newStageObserver() einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			name := stageName(info)
			logx.Debug().Str("stage", name).Msg("stage start")
			return context.WithValue(ctx, stageStartKey{name}, time.Now())
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackOutput) context.Context {
			name := stageName(info)
			dur := since(ctx, name)
			metrics.ObserveStage(name, dur)
			logx.Debug().Str("stage", name).Dur("took", dur).Msg("stage end")
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			name := stageName(info)
			metrics.ObserveStage(name, since(ctx, name))
			logx.Warn().Err(err).Str("stage", name).Msg("stage error")
			return ctx
		}).
		Build()
}

func stageName(info *einocb.RunInfo) string {
	if info == nil {
		return "unknown"
	}
	if info.Name != "" {
		return info.Name
	}
	return string(info.Component)
}

func since(ctx context.Context, name string) time.Duration {
	if start, ok := ctx.Value(stageStartKey{name}).(time.Time); ok {
		return time.Since(start)
	}
	return 0
}
