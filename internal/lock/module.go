package lock

import (
	"log/slog"

	goredislib "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// Module wires the distributed locker.
var Module = fx.Provide(newLocker)

type lockerParams struct {
	fx.In

	Client *goredislib.Client
	Logger *slog.Logger
}

func newLocker(p lockerParams) Locker {
	return NewRedisLocker(p.Client, p.Logger)
}
