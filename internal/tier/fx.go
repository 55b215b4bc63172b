package tier

import (
	"context"

	"github.com/smallbiznis/loyalty/internal/tier/domain"
	"github.com/smallbiznis/loyalty/internal/tier/repository"
	"github.com/smallbiznis/loyalty/internal/tier/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tier.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Invoke(bootstrap),
)

func bootstrap(lc fx.Lifecycle, svc domain.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Bootstrap(ctx)
		},
	})
}
