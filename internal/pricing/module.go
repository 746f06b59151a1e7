package pricing

import (
	"github.com/tanmaydk/shopcore/internal/config"
	"go.uber.org/fx"
)

// Module provides the pricing engine to the fx container.
var Module = fx.Provide(newEngine)

type engineParams struct {
	fx.In

	Config *config.Config
}

func newEngine(p engineParams) Engine {
	return NewGSTEngine(p.Config.HomeState, p.Config.ShippingFlatFee, p.Config.FreeShippingThreshold)
}
