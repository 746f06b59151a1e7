package invoice

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/tanmaydk/shopcore/internal/config"
)

// Module wires the invoice generator. Falls back to a no-op when no
// invoicing service is configured.
var Module = fx.Provide(newGenerator)

type generatorParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newGenerator(p generatorParams) (Generator, error) {
	if p.Config.InvoiceAddress == "" {
		p.Logger.Warn("invoice service not configured, tax documents disabled")
		return Noop{}, nil
	}
	return NewHTTPClient(p.Config.InvoiceAddress, p.Logger)
}
