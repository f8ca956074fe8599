package status

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// ExportHandle owns the OTel meter provider backing Pipeline's
// Prometheus export; callers Close it on shutdown. It serves no HTTP
// endpoint itself: the exporter registers with the default Prometheus
// registerer.
type ExportHandle struct {
	provider *sdkmetric.MeterProvider
	handler  http.Handler
}

// RegisterOTel mirrors the five Pipeline atomics into OTel observable
// instruments exported via Prometheus (grounded on MrWong99-glyphoxa's
// otel+exporters/prometheus wiring). The atomics in Pipeline remain
// the single source of truth, read directly by tests; this is purely
// an additional export path for operators who want a /metrics
// endpoint.
func RegisterOTel(p *Pipeline) (*ExportHandle, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("gibberish/pipeline")

	_, err = meter.Int64ObservableCounter("pipeline_frames_received",
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(p.FramesReceived()))
			return nil
		}))
	if err != nil {
		return nil, err
	}

	_, err = meter.Int64ObservableCounter("pipeline_frames_dropped",
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(p.FramesDropped()))
			return nil
		}))
	if err != nil {
		return nil, err
	}

	_, err = meter.Int64ObservableCounter("pipeline_commits_emitted",
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(p.CommitsEmitted()))
			return nil
		}))
	if err != nil {
		return nil, err
	}

	_, err = meter.Int64ObservableGauge("pipeline_last_commit_unix_ms",
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(p.LastCommitUnixMs())
			return nil
		}))
	if err != nil {
		return nil, err
	}

	_, err = meter.Int64ObservableGauge("pipeline_router_inflight",
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			v := int64(0)
			if p.RouterInflight() {
				v = 1
			}
			o.Observe(v)
			return nil
		}))
	if err != nil {
		return nil, err
	}

	return &ExportHandle{provider: provider}, nil
}

// Close shuts down the underlying meter provider.
func (h *ExportHandle) Close(ctx context.Context) error {
	return h.provider.Shutdown(ctx)
}
