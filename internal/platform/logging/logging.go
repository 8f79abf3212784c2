package logging

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Setup configures the global zerolog logger. Development gets a console
// writer, every other environment logs JSON to stdout.
func Setup(environment, level string) {
	zerolog.TimeFieldFormat = time.RFC3339

	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}

	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		if parsed > zerolog.DebugLevel {
			parsed = zerolog.DebugLevel
		}
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	zerolog.SetGlobalLevel(parsed)
	zerolog.DefaultContextLogger = &log.Logger
}

// WithTrace attaches a logger carrying the active span's ids to ctx.
func WithTrace(ctx context.Context) context.Context {
	span := trace.SpanFromContext(ctx)
	sc := span.SpanContext()
	if !sc.HasTraceID() {
		return ctx
	}

	l := zerolog.Ctx(ctx).With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
	return l.WithContext(ctx)
}

// From returns the request scoped logger, or the global one.
func From(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
