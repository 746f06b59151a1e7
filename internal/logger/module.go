package logger

import "go.uber.org/fx"

// Module provides the shared logger to the fx graph.
var Module = fx.Provide(New)
