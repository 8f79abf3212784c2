package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"ets/internal/domain/attendance"
	"ets/internal/domain/audit"
	"ets/internal/domain/auth"
	"ets/internal/domain/employee"
	"ets/internal/domain/leave"
	"ets/internal/domain/notice"
	"ets/internal/domain/notifications"
	"ets/internal/domain/reports"
	"ets/internal/platform/awsclient"
	"ets/internal/platform/config"
	"ets/internal/platform/db"
	"ets/internal/platform/email"
	"ets/internal/platform/events"
	"ets/internal/platform/jobs"
	"ets/internal/platform/logging"
	"ets/internal/platform/metrics"
	"ets/internal/platform/ratelimit"
	"ets/internal/platform/telemetry"
	"ets/internal/platform/tokens"
	"ets/internal/transport/http/api"
	attendancehandler "ets/internal/transport/http/handlers/attendance"
	audithandler "ets/internal/transport/http/handlers/audit"
	authhandler "ets/internal/transport/http/handlers/auth"
	employeehandler "ets/internal/transport/http/handlers/employee"
	leavehandler "ets/internal/transport/http/handlers/leave"
	noticehandler "ets/internal/transport/http/handlers/notice"
	notificationshandler "ets/internal/transport/http/handlers/notifications"
	reportshandler "ets/internal/transport/http/handlers/reports"
	"ets/internal/transport/http/middleware"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector

	redis *tokens.RedisBlacklist
}

// Run loads configuration, builds the application and serves until SIGINT or SIGTERM.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logging.Setup(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(app.Router, cfg.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("env", cfg.Environment).Msg("ets server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// New connects the backing services and assembles the router. The caller
// owns the returned App and must Close it.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	lateAfter, err := cfg.LateThreshold()
	if err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	app := &App{Config: cfg, DB: pool, Metrics: metrics.New()}

	if cfg.RunMigrations {
		if err := db.Migrate(pool); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	var revoked tokens.Revoker
	var limits ratelimit.Store = ratelimit.NewMemory()
	memory := tokens.NewMemory()
	revoked = memory
	if cfg.RedisAddr != "" {
		rb, err := tokens.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		app.redis = rb
		revoked = rb
		limits = ratelimit.NewRedis(rb.Client())
	} else {
		log.Warn().Msg("REDIS_ADDR not set, token revocation and rate limits are kept in memory")
	}

	mailer := email.Noop()
	publisher := events.Noop()
	if cfg.EmailEnabled || cfg.EventsQueueURL != "" {
		awsCfg, err := awsclient.Load(ctx, cfg)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("aws config: %w", err)
		}
		if cfg.EmailEnabled {
			mailer = email.NewSES(ses.NewFromConfig(awsCfg))
		}
		if cfg.EventsQueueURL != "" {
			publisher = events.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.EventsQueueURL)
		}
	}

	employees := employee.NewService(employee.NewStore(pool), cfg.PasswordResetTTL)
	attendanceSvc := attendance.NewService(attendance.NewStore(pool), attendance.Policy{Location: loc, LateAfter: lateAfter})
	leaveSvc := leave.NewService(leave.NewStore(pool), loc)
	noticeSvc := notice.NewService(notice.NewStore(pool))
	notifySvc := notifications.New(notifications.NewStore(pool), mailer, cfg.EmailFrom)
	auditSvc := audit.New(pool)
	reportsSvc := reports.NewService(reports.NewStore(pool), loc)
	perms := auth.NewStaticPermissions()

	app.Jobs = jobs.New(pool)
	app.Jobs.Every(jobs.JobResetCleanup, cfg.CleanupInterval, func(ctx context.Context) (any, error) {
		purged, err := employees.PurgeExpiredResets(ctx)
		return map[string]int64{"purged": purged}, err
	})
	if app.redis == nil {
		app.Jobs.Every(jobs.JobTokenSweep, cfg.CleanupInterval, func(context.Context) (any, error) {
			return map[string]int{"swept": memory.Sweep()}, nil
		})
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(app.Metrics))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", app.handleReady)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
		r.Use(middleware.Auth(cfg.JWTSecret, revoked))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, middleware.WithStore(limits)))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute, middleware.WithStore(limits)))

		authhandler.NewHandler(employees, authhandler.Options{
			Secret:       cfg.JWTSecret,
			TTL:          cfg.JWTTTL,
			Revoker:      revoked,
			Mailer:       mailer,
			From:         cfg.EmailFrom,
			ResetURLBase: cfg.ResetURLBase,
			Jobs:         app.Jobs,
			Audit:        auditSvc,
			Metrics:      app.Metrics,
		}).RegisterRoutes(r)
		employeehandler.NewHandler(employees, perms, auditSvc).RegisterRoutes(r)
		attendancehandler.NewHandler(attendanceSvc, employees, perms, auditSvc, app.Jobs, publisher, app.Metrics).RegisterRoutes(r)
		leavehandler.NewHandler(leaveSvc, employees, perms, notifySvc, auditSvc, app.Jobs, publisher, app.Metrics).RegisterRoutes(r)
		noticehandler.NewHandler(noticeSvc, perms, auditSvc).RegisterRoutes(r)
		notificationshandler.NewHandler(notifySvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, perms).RegisterRoutes(r)
		reportshandler.NewHandler(reportsSvc, perms).RegisterRoutes(r)

		if cfg.MetricsEnabled {
			r.With(middleware.RequirePermission(auth.PermMetricsRead, perms)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
				api.Success(w, app.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
			})
		}
	})

	app.Router = router
	return app, nil
}

func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.DB.Ping(ctx); err != nil {
		http.Error(w, "db not ready", http.StatusServiceUnavailable)
		return
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx); err != nil {
			http.Error(w, "redis not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close failed")
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
