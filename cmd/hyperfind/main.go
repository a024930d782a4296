// Command hyperfind runs the search platform's HTTP API server and its
// crawl/reindex maintenance CLI.
package main

import (
	"os"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"hyperfind/cmd/hyperfind/cmd"
	"hyperfind/internal/logging"
)

func main() {
	otel.SetMeterProvider(sdkmetric.NewMeterProvider())

	if err := cmd.Execute(); err != nil {
		logging.Log.WithError(err).Error("hyperfind: fatal error")
		os.Exit(1)
	}
}
