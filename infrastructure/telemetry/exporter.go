package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitStdoutExporter installs a periodic stdout metrics exporter as the
// global meter provider. The returned function flushes and shuts the
// provider down.
func InitStdoutExporter(interval time.Duration) (func(context.Context) error, error) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)),
		),
	)
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}
