package loyalty

import (
	"github.com/smallbiznis/loyalty/internal/loyalty/repository"
	"github.com/smallbiznis/loyalty/internal/loyalty/service"
	"go.uber.org/fx"
)

var Module = fx.Module("loyalty.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
