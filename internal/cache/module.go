package cache

import (
	"go.uber.org/fx"
)

// Module wires the stock snapshot cache.
var Module = fx.Options(
	fx.Provide(NewStockCache),
	fx.Provide(func(c *StockCache) Stock { return c }),
)
