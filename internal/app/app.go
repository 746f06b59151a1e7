package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/tanmaydk/shopcore/internal/config"
	"github.com/tanmaydk/shopcore/internal/queue"
	"github.com/tanmaydk/shopcore/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewCommerceFacade,
		newHTTPServer,
		newAutoCancel,
		newPaymentConsumer,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type workerParams struct {
	fx.In

	Facade *CommerceFacade
	Config *config.Config
	Logger *slog.Logger
}

func newAutoCancel(p workerParams) *worker.AutoCancel {
	return worker.NewAutoCancel(
		p.Facade,
		p.Config.AutoCancelInterval,
		p.Config.SweepInterval,
		p.Config.JobBatchSize,
		p.Config.WorkerPoolSize,
		p.Logger,
	)
}

type consumerParams struct {
	fx.In

	Processor queue.EventProcessor
	Config    *config.Config
	Logger    *slog.Logger
}

func newPaymentConsumer(p consumerParams) (*queue.PaymentEventConsumer, error) {
	return queue.NewPaymentEventConsumer(p.Config.KafkaBrokers, p.Processor, p.Logger)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Worker     *worker.AutoCancel
	Consumer   *queue.PaymentEventConsumer
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting shopcore", slog.String("addr", p.Server.Addr))
			p.Worker.Start(ctx)
			p.Consumer.Start(ctx)
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Worker.Stop()
			if err := p.Consumer.Stop(); err != nil {
				p.Logger.Error("payment consumer stop failed", slog.String("error", err.Error()))
			}

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("shopcore stopped")
			return nil
		},
	})
}
