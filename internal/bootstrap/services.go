package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/target/escrow-api/config"
	"github.com/target/escrow-api/internal/adapters/stripe"
	"github.com/target/escrow-api/internal/adapters/userdir"
	"github.com/target/escrow-api/internal/data"
	"github.com/target/escrow-api/internal/observability/notify"
	"github.com/target/escrow-api/internal/observability/notify/pagerduty"
	"github.com/target/escrow-api/internal/observability/notify/slack"
	"github.com/target/escrow-api/internal/observability/statsd"
	"github.com/target/escrow-api/internal/ports"
	"github.com/target/escrow-api/internal/service"
	"github.com/target/escrow-api/internal/service/failurenotifier"
)

// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
const shutdownWaitTimeout = 15 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Jobs          *service.JobService
	Applications  *service.ApplicationService
	Milestones    *service.MilestoneService
	Payments      *service.PaymentService
	Webhooks      *service.WebhookService
	Admin         *service.AdminService
	Verifier      ports.TokenVerifier // nil unless the http service is enabled
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink     statsd.Sink
	FailureNotifier *failurenotifier.Service
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Jobs         *data.JobRepo
	Applications *data.ApplicationRepo
	Payments     *data.PaymentRepo
	Transfers    *data.TransferRepo
	Accounts     *data.ConnectedAccountRepo
	Events       *data.WebhookEventRepo
	Idempotency  *data.RedisIdempotencyStore
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient) *serviceRepositories {
	return &serviceRepositories{
		Jobs:         data.NewJobRepo(db),
		Applications: data.NewApplicationRepo(db),
		Payments:     data.NewPaymentRepo(db),
		Transfers:    data.NewTransferRepo(db),
		Accounts:     data.NewConnectedAccountRepo(db),
		Events:       data.NewWebhookEventRepo(db),
		Idempotency:  data.NewRedisIdempotencyStore(redisClient),
	}
}

// buildObservability creates the metrics sink and alert fan-out. A StatsD
// client that cannot be built degrades to Nop rather than failing startup.
func buildObservability(logger *slog.Logger, metrics config.MetricsConfig, alerts config.AlertsConfig) ObservabilityContainer {
	var sink statsd.Sink = statsd.Nop{}
	if metrics.Enabled() {
		client, err := statsd.NewClient(statsd.Config{
			Address: metrics.StatsdAddr,
			Prefix:  metrics.Prefix,
			Tags:    metrics.Tags,
			Logger:  logger,
		})
		if err != nil {
			logger.Error("statsd disabled", "addr", metrics.StatsdAddr, "error", err)
		} else {
			sink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:     sink,
		FailureNotifier: buildFailureNotifier(logger, alerts),
	}
}

func buildFailureNotifier(logger *slog.Logger, cfg config.AlertsConfig) *failurenotifier.Service {
	var sinks []failurenotifier.SinkRegistration
	add := func(name string, sink notify.Sink, err error) {
		if err != nil {
			logger.Error("alert sink disabled", "sink", name, "error", err)
			return
		}
		sinks = append(sinks, failurenotifier.SinkRegistration{Name: name, Sink: sink})
	}

	if cfg.Slack.Enabled() {
		client, err := slack.NewClient(slack.Config{
			WebhookURL:   cfg.Slack.WebhookURL,
			Channel:      cfg.Slack.Channel,
			Username:     cfg.Slack.Username,
			JobURLPrefix: cfg.Slack.JobURLPrefix,
			Timeout:      cfg.Timeout,
			Attempts:     cfg.Attempts,
		})
		add("slack", client, err)
	}
	if cfg.PagerDuty.Enabled() {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Endpoint:   cfg.PagerDuty.Endpoint,
			Timeout:    cfg.Timeout,
			Attempts:   cfg.Attempts,
		})
		add("pagerduty", client, err)
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger:       logger,
		Sinks:        sinks,
		SkipTestMode: cfg.SkipTestMode,
		Cooldown:     cfg.Cooldown,
	})
}

// NewServices wires repositories, adapters and services. The payment
// orchestrator and the milestone service reference each other; the cycle is
// closed with SetListener once both exist.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	repos := buildRepositories(deps.DB, deps.RedisClient)
	obs := buildObservability(logger, cfg.Metrics, cfg.Alerts)

	processor, err := stripe.NewProcessor(stripe.Config{
		SecretKey: cfg.Processor.SecretKey,
		Timeout:   cfg.Processor.Timeout,
		BaseURL:   cfg.Processor.BaseURL,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create payment processor: %w", err)
	}

	directory, err := userdir.New(userdir.Config{
		BaseURL:      cfg.Directory.BaseURL,
		Timeout:      cfg.Directory.Timeout,
		Attempts:     cfg.Directory.Attempts,
		ClientID:     cfg.Directory.ClientID,
		ClientSecret: cfg.Directory.ClientSecret,
		TokenURL:     cfg.Directory.TokenURL,
		Scopes:       cfg.Directory.Scopes,
		Logger:       logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create user directory client: %w", err)
	}

	payments := service.MustNewPaymentService(service.PaymentServiceOptions{
		Payments:    repos.Payments,
		Transfers:   repos.Transfers,
		Accounts:    repos.Accounts,
		Processor:   processor,
		Idempotency: repos.Idempotency,
		Notifier:    obs.FailureNotifier,
		Metrics:     obs.MetricsSink,
		Logger:      logger,
		ClaimTTL:    cfg.Payments.ClaimTTL,
		Currency:    cfg.Payments.Currency,
	})
	milestones := service.MustNewMilestoneService(service.MilestoneServiceOptions{
		Jobs:           repos.Jobs,
		Payments:       payments,
		Directory:      directory,
		Logger:         logger,
		Metrics:        obs.MetricsSink,
		MutateAttempts: cfg.Payments.MutateAttempts,
		Currency:       cfg.Payments.Currency,
	})
	payments.SetListener(milestones)

	container := ServiceContainer{
		Jobs: service.MustNewJobService(service.JobServiceOptions{
			Repo:           repos.Jobs,
			Logger:         logger,
			MutateAttempts: cfg.Payments.MutateAttempts,
		}),
		Applications: service.MustNewApplicationService(service.ApplicationServiceOptions{
			Repo:   repos.Applications,
			Jobs:   repos.Jobs,
			Logger: logger,
		}),
		Milestones: milestones,
		Payments:   payments,
		Admin: service.MustNewAdminService(service.AdminServiceOptions{
			Milestones: milestones,
			Jobs:       repos.Jobs,
			Payments:   payments,
			Logger:     logger,
		}),
		Observability: obs,
	}

	if !cfg.IsHTTPServerEnabled() {
		return container, nil
	}

	verifier, err := stripe.NewWebhookVerifier(cfg.Processor.WebhookSecret, cfg.Processor.SignatureTolerance)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create webhook verifier: %w", err)
	}
	container.Webhooks = service.MustNewWebhookService(service.WebhookServiceOptions{
		Verifier:  verifier,
		Events:    repos.Events,
		Payments:  repos.Payments,
		Transfers: repos.Transfers,
		Accounts:  repos.Accounts,
		Notifier:  obs.FailureNotifier,
		Metrics:   obs.MetricsSink,
		Logger:    logger,
	})
	container.Webhooks.SetListener(milestones)

	container.Verifier, err = BuildTokenVerifier(ctx, AuthConfig{Auth: cfg.Auth, IsDev: cfg.IsDev, Logger: logger})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create token verifier: %w", err)
	}
	return container, nil
}

// ServiceOrchestrationConfig contains everything needed to run the enabled services.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	DB       *sql.DB
	Logger   *slog.Logger
}

// backgroundService describes a startable component tied to a service mode.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

func buildBackgroundServices(cfg *ServiceOrchestrationConfig, logger *slog.Logger) []backgroundService {
	return []backgroundService{
		{
			mode: config.ServiceModeHTTP,
			name: "http server",
			start: func(ctx context.Context) error {
				server := NewHTTPServer(&HTTPServerConfig{
					Config:   cfg.Config,
					Services: cfg.Services,
					DB:       cfg.DB,
					Logger:   logger,
				})
				return ServeHTTP(ctx, server, logger)
			},
		},
		{
			mode: config.ServiceModeSweeper,
			name: "sweeper",
			start: func(ctx context.Context) error {
				return RunSweeper(ctx, SweeperConfig{
					DB:       cfg.DB,
					Logger:   logger,
					Config:   cfg.Config.Sweeper,
					Syncer:   cfg.Services.Payments,
					Stuck:    cfg.Services.Admin,
					Notifier: cfg.Services.Observability.FailureNotifier,
					Metrics:  cfg.Services.Observability.MetricsSink,
				})
			},
		},
	}
}

// selectServices returns the descriptors whose mode is enabled.
func selectServices(all []backgroundService, enabled map[config.ServiceMode]bool) []backgroundService {
	out := make([]backgroundService, 0, len(all))
	for _, svc := range all {
		if enabled[svc.mode] {
			out = append(out, svc)
		}
	}
	return out
}

// RunServicesWithShutdown starts all enabled services and blocks until a
// shutdown signal arrives or one of them fails, which stops the others.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, gctx := errgroup.WithContext(ctx)
	for _, svc := range selectServices(buildBackgroundServices(cfg, logger), enabled) {
		logger.InfoContext(gctx, "service started", "service", svc.name, "mode", svc.mode)
		group.Go(func() error {
			if err := svc.start(gctx); err != nil {
				return fmt.Errorf("%s failed: %w", svc.name, err)
			}
			logger.Info(svc.name + " stopped")
			return nil
		})
	}

	err = group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
