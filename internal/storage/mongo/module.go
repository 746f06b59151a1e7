package mongo

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/tanmaydk/shopcore/internal/cache"
	"github.com/tanmaydk/shopcore/internal/config"
	"github.com/tanmaydk/shopcore/internal/domain/repository"
)

// Module wires MongoDB storage and the repository factory.
var Module = fx.Options(
	fx.Provide(newStorage),
	fx.Provide(func(s *Storage) repository.Factory { return s }),
	fx.Invoke(warnDegraded),
	fx.Invoke(registerLifecycle),
)

type storageParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Stock  cache.Stock
	Logger *slog.Logger
}

func newStorage(p storageParams) (*Storage, error) {
	return New(p.Ctx, p.Config.MongoURI, p.Config.MongoDatabase, p.Stock, p.Logger)
}

// warnDegraded flags a non-transactional store outside development. This is
// an operability risk, not a correctness guard.
func warnDegraded(ctx context.Context, storage *Storage, cfg *config.Config, logger *slog.Logger) {
	if cfg.Production() && !storage.Transactional(ctx) {
		logger.Warn("store is not a replica set: multi-document writes run without rollback, relying on compensating actions")
	}
}

func registerLifecycle(lc fx.Lifecycle, storage *Storage) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return storage.Close(ctx)
		},
	})
}
