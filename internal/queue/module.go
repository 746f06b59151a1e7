package queue

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/tanmaydk/shopcore/internal/config"
)

// Module wires the Kafka publisher. The consumer is constructed in the app
// layer where the payment processor lives.
var Module = fx.Options(
	fx.Provide(newPublisher),
	fx.Provide(func(p *KafkaPublisher) Publisher { return p }),
	fx.Invoke(registerLifecycle),
)

type publisherParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newPublisher(p publisherParams) (*KafkaPublisher, error) {
	return NewKafkaPublisher(p.Config.KafkaBrokers, p.Logger)
}

func registerLifecycle(lc fx.Lifecycle, publisher *KafkaPublisher) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return publisher.Close()
		},
	})
}
