package telemetry

import "go.uber.org/fx"

// Module wires the prometheus instruments via Fx.
var Module = fx.Options(
	fx.Provide(NewMetrics),
)
