package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/jsbattig/code-indexer-sub037/internal/config"
)

type AppMetrics struct {
	sessionValidationCounter metric.Int64Counter
	sessionEventCounter      metric.Int64Counter
	authLoginCounter         metric.Int64Counter
	authRefreshCounter       metric.Int64Counter
	rateLimitCounter         metric.Int64Counter
	clientRegistrationCount  metric.Int64Counter
	toolAuthorizationCounter metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)

	meter := mp.Meter("code-indexer-authcore")
	m := &AppMetrics{}
	for _, c := range []struct {
		name string
		dst  *metric.Int64Counter
	}{
		{"auth.sessions.validations", &m.sessionValidationCounter},
		{"auth.sessions.events", &m.sessionEventCounter},
		{"auth.login.attempts", &m.authLoginCounter},
		{"auth.refresh.attempts", &m.authRefreshCounter},
		{"ratelimit.decisions", &m.rateLimitCounter},
		{"oauth.client.registrations", &m.clientRegistrationCount},
		{"tools.authorization.checks", &m.toolAuthorizationCounter},
	} {
		counter, err := meter.Int64Counter(c.name)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func loadMetrics() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordSessionValidation(outcome string) {
	m := loadMetrics()
	if m == nil {
		return
	}
	m.sessionValidationCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordSessionEvent(event string) {
	m := loadMetrics()
	if m == nil {
		return
	}
	m.sessionEventCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("event", event)))
}

func RecordAuthLogin(status string) {
	m := loadMetrics()
	if m == nil {
		return
	}
	m.authLoginCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("status", status)))
}

func RecordAuthRefresh(status string) {
	m := loadMetrics()
	if m == nil {
		return
	}
	m.authRefreshCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("status", status)))
}

func RecordRateLimitDecision(scope, outcome string) {
	m := loadMetrics()
	if m == nil {
		return
	}
	m.rateLimitCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("scope", scope),
			attribute.String("outcome", outcome),
		))
}

func RecordClientRegistration(outcome string) {
	m := loadMetrics()
	if m == nil {
		return
	}
	m.clientRegistrationCount.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordToolAuthorization(outcome string) {
	m := loadMetrics()
	if m == nil {
		return
	}
	m.toolAuthorizationCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

var (
	repoMetricsOnce sync.Once
	repoCounter     metric.Int64Counter
)

func RecordRepositoryOperation(ctx context.Context, entity, operation, status string) {
	repoMetricsOnce.Do(func() {
		counter, err := otel.Meter("code-indexer-authcore").Int64Counter("repository.operations")
		if err == nil {
			repoCounter = counter
		}
	})
	if repoCounter == nil {
		return
	}
	repoCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}
