package events

import (
	"context"

	"github.com/smallbiznis/loyalty/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("events",
	fx.Provide(provide),
	fx.Invoke(run),
)

func provide(cfg config.Config, log *zap.Logger) *Publisher {
	return NewPublisher(log, cfg.EventBufferSize)
}

func run(lc fx.Lifecycle, p *Publisher) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return p.Stop(ctx)
		},
	})
}
