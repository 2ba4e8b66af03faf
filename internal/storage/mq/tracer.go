package mq

import (
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("internal/storage/mq")

// kafkaHooks instruments a client with kotel. The global provider and
// propagator are read lazily, so hooks built before InitTracer still export.
func kafkaHooks() []kgo.Hook {
	kt := kotel.NewTracer(
		kotel.TracerProvider(otel.GetTracerProvider()),
		kotel.TracerPropagator(otel.GetTextMapPropagator()),
		kotel.LinkSpans(),
	)
	return kotel.NewKotel(kotel.WithTracer(kt)).Hooks()
}
