package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/tanmaydk/shopcore/internal/config"
)

// Module wires the shared redis client.
var Module = fx.Options(
	fx.Provide(newClient),
	fx.Invoke(registerLifecycle),
)

type clientParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
}

func newClient(p clientParams) (*goredis.Client, error) {
	return New(p.Ctx, p.Config.RedisAddr)
}

func registerLifecycle(lc fx.Lifecycle, client *goredis.Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
}
