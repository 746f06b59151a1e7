package di

import (
	"go.uber.org/fx"

	"github.com/tanmaydk/shopcore/internal/adapter/gateway"
	"github.com/tanmaydk/shopcore/internal/adapter/invoice"
	"github.com/tanmaydk/shopcore/internal/app"
	"github.com/tanmaydk/shopcore/internal/cache"
	"github.com/tanmaydk/shopcore/internal/config"
	"github.com/tanmaydk/shopcore/internal/lock"
	"github.com/tanmaydk/shopcore/internal/logger"
	"github.com/tanmaydk/shopcore/internal/pkg/auth"
	"github.com/tanmaydk/shopcore/internal/pkg/ordernum"
	"github.com/tanmaydk/shopcore/internal/pricing"
	"github.com/tanmaydk/shopcore/internal/queue"
	"github.com/tanmaydk/shopcore/internal/server/http/handlers"
	"github.com/tanmaydk/shopcore/internal/server/http/router"
	"github.com/tanmaydk/shopcore/internal/storage/mongo"
	"github.com/tanmaydk/shopcore/internal/storage/redis"
	"github.com/tanmaydk/shopcore/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		redis.Module,
		cache.Module,
		mongo.Module,
		lock.Module,
		queue.Module,
		gateway.Module,
		invoice.Module,
		pricing.Module,
		fx.Provide(ordernum.New),
		usecase.Module,
		fx.Provide(func(f *app.CommerceFacade) handlers.CommerceFacade { return f }),
		fx.Provide(func(u *usecase.PaymentUseCase) queue.EventProcessor { return u }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
