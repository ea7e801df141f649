package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"registrar/internal/auth"
	"registrar/internal/matrix"
	"registrar/internal/notify"
	"registrar/internal/platform/background"
	"registrar/internal/platform/config"
	"registrar/internal/platform/httpserver"
	"registrar/internal/platform/metrics"
	"registrar/internal/platform/redis"
	"registrar/internal/provisioning"
	ratelimitMetrics "registrar/internal/ratelimit/metrics"
	ratelimitMW "registrar/internal/ratelimit/middleware"
	ratelimitSvc "registrar/internal/ratelimit/service"
	"registrar/internal/ratelimit/store/backoff"
	registrationHandler "registrar/internal/registration/handler"
	registrationSvc "registrar/internal/registration/service"
	registrationStore "registrar/internal/registration/store"
	"registrar/internal/secrets"
	"registrar/pkg/platform/circuit"
	"registrar/pkg/platform/middleware/metadata"
	"registrar/pkg/platform/middleware/requesttime"
)

const defaultShutdownTimeout = 20 * time.Second

type runOptions struct {
	listenAddr      string
	metricsAddr     string
	shutdownTimeout time.Duration
}

// stores groups the persistence backends chosen at startup.
type stores struct {
	registrations registrationSvc.Store
	reader        auth.RegistrationReader
	updater       provisioning.RegistrationUpdater
	counters      ratelimitSvc.CounterStore
	redis         *redis.Client
}

func run(ctx context.Context, cfg config.Config, opts runOptions, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	hasher, err := secrets.NewHasher(secrets.FromConfig(cfg.Hasher),
		secrets.WithLogger(log),
		secrets.WithMetrics(appMetrics),
	)
	if err != nil {
		return fmt.Errorf("build hasher: %w", err)
	}

	st, err := buildStores(ctx, cfg, hasher, log)
	if err != nil {
		return err
	}
	if st.redis != nil {
		defer func() {
			if err := st.redis.Close(); err != nil {
				log.Error("failed to close redis client", "error", err)
			}
		}()
	}

	limiter, err := buildRateLimiter(cfg, st, registry, log)
	if err != nil {
		return err
	}

	authenticator, err := auth.New(ctx, st.reader, hasher, auth.WithLogger(log))
	if err != nil {
		return fmt.Errorf("build authenticator: %w", err)
	}

	apiBase := cfg.Server.APIPrefix
	var fakeHomeserver *matrix.FakeHomeserver
	matrixCfg := matrix.FromConfig(cfg.Matrix)
	if cfg.DevelopmentMode && cfg.Matrix.URL == "" {
		fakeHomeserver = matrix.NewFakeHomeserver(matrix.FakeSharedSecret, "localhost")
		matrixCfg.URL = cfg.Notify.PublicURL + apiBase + "/v1/matrix"
		matrixCfg.SharedSecret = matrix.FakeSharedSecret
		log.Warn("using the built-in fake homeserver", "url", matrixCfg.URL)
	}
	accounts, err := matrix.New(matrixCfg, matrix.WithLogger(log), matrix.WithMetrics(appMetrics))
	if err != nil {
		return fmt.Errorf("build matrix client: %w", err)
	}

	notifier := notify.NewService(notify.NewComposer(notify.Settings{
		SenderAddress:     cfg.Notify.SenderAddress,
		ManagersAddresses: cfg.Notify.ManagersAddresses,
		SubjectPrefix:     cfg.Notify.SubjectPrefix,
		ContactAddress:    cfg.Notify.ContactAddress,
		FrontendURL:       cfg.Notify.FrontendURL,
		MatrixURL:         matrixCfg.URL,
		BaseURL:           cfg.Notify.PublicURL + apiBase,
	}), notify.NewLogNotifier(log), log)

	dispatcher := background.NewDispatcher(log)

	orchestrator, err := provisioning.New(st.updater, accounts, notifier,
		provisioning.WithLogger(log),
		provisioning.WithMetrics(appMetrics),
	)
	if err != nil {
		return fmt.Errorf("build provisioning orchestrator: %w", err)
	}

	service, err := registrationSvc.New(st.registrations, orchestrator, notifier, dispatcher,
		registrationSvc.WithLogger(log),
		registrationSvc.WithMetrics(appMetrics),
	)
	if err != nil {
		return fmt.Errorf("build registration service: %w", err)
	}

	health := httpserver.NewHealth(log)
	if st.redis != nil {
		health.AddCheck("redis", st.redis.Health)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(httpserver.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(httpserver.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.StripSlashes)
	health.Register(r)

	r.Route(apiBase+"/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
			r.Use(limiter.RateLimit)
			r.Route("/registrations", registrationHandler.New(service, authenticator, log).Register)
		})
		if fakeHomeserver != nil {
			r.Mount("/matrix", fakeHomeserver.Router())
		}
	})

	api := httpserver.New(opts.listenAddr, r)
	var ops *http.Server
	if opts.metricsAddr != "" {
		ops = httpserver.NewMetrics(opts.metricsAddr, registry, health)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting API server", "addr", opts.listenAddr, "prefix", apiBase)
		if err := api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	if ops != nil {
		g.Go(func() error {
			log.Info("starting metrics server", "addr", opts.metricsAddr)
			if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		health.Drain()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), opts.shutdownTimeout)
		defer cancel()

		var errs []error
		if err := api.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("api shutdown: %w", err))
		}
		if err := dispatcher.Wait(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("background jobs: %w", err))
		}
		if ops != nil {
			if err := ops.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}

func buildStores(ctx context.Context, cfg config.Config, hasher *secrets.Hasher, log *slog.Logger) (*stores, error) {
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	if client == nil {
		log.Warn("redis not configured: registrations and rate-limit counters are kept in memory")
		mem, err := registrationStore.NewInMemoryStore(hasher, cfg.Registration.TTL, registrationStore.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return &stores{
			registrations: mem,
			reader:        mem,
			updater:       mem,
			counters:      backoff.NewInMemoryStore(),
		}, nil
	}

	rs, err := registrationStore.NewRedisStore(client.Client, hasher, cfg.Registration.TTL, registrationStore.WithLogger(log))
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &stores{
		registrations: rs,
		reader:        rs,
		updater:       rs,
		counters:      backoff.NewRedisStore(client.Client),
		redis:         client,
	}, nil
}

func buildRateLimiter(cfg config.Config, st *stores, registry prometheus.Registerer, log *slog.Logger) (*ratelimitMW.Middleware, error) {
	limiter, err := newRateLimitService(cfg.RateLimit, st.counters, st.redis != nil, registry, log)
	if err != nil {
		return nil, fmt.Errorf("build rate limiter: %w", err)
	}
	return ratelimitMW.New(limiter, cfg.RateLimit.Limit, log, ratelimitMW.WithDisabled(cfg.RateLimit.Disabled)), nil
}

// newRateLimitService counts in counters. With withFallback, repeated
// failures of counters move counting to memory until the breaker cooldown
// lets a trial call through.
func newRateLimitService(cfg config.RateLimit, counters ratelimitSvc.CounterStore, withFallback bool, registry prometheus.Registerer, log *slog.Logger) (*ratelimitSvc.Service, error) {
	opts := []ratelimitSvc.Option{
		ratelimitSvc.WithLogger(log),
		ratelimitSvc.WithMetrics(ratelimitMetrics.New(registry)),
		ratelimitSvc.WithMaxBackoff(cfg.MaxBackoff),
	}
	if withFallback {
		breaker := circuit.New("ratelimit",
			circuit.WithFailureThreshold(cfg.BreakerThreshold),
			circuit.WithCooldown(cfg.BreakerCooldown),
		)
		opts = append(opts, ratelimitSvc.WithFallback(backoff.NewInMemoryStore(), breaker))
	}
	return ratelimitSvc.New(counters, opts...)
}
