package redis_fx

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/okwareddevnest/eventpass/internal/infra"
)

var Module = fx.Provide(
	provideRedis)

func provideRedis(cfg *infra.Config) (*redis.Client, error) {
	return infra.InitRedis(cfg)
}
