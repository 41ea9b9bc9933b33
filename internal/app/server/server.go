package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chancehr/internal/auth"
	"chancehr/internal/domain/attendance"
	"chancehr/internal/domain/audit"
	"chancehr/internal/domain/employee"
	"chancehr/internal/domain/holiday"
	"chancehr/internal/domain/payroll"
	"chancehr/internal/domain/severance"
	"chancehr/internal/domain/taxtable"
	"chancehr/internal/domain/worktime"
	"chancehr/internal/platform/config"
	cryptoutil "chancehr/internal/platform/crypto"
	"chancehr/internal/platform/db"
	"chancehr/internal/platform/jobs"
	"chancehr/internal/platform/logger"
	"chancehr/internal/platform/metrics"
	"chancehr/internal/platform/redis"
	"chancehr/internal/requestctx"
	attendancehandler "chancehr/internal/transport/http/handlers/attendance"
	audithandler "chancehr/internal/transport/http/handlers/audit"
	employeehandler "chancehr/internal/transport/http/handlers/employees"
	payrollhandler "chancehr/internal/transport/http/handlers/payroll"
	taxtablehandler "chancehr/internal/transport/http/handlers/taxtables"
	"chancehr/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Redis   *goredis.Client
	Log     *zap.Logger
	Metrics *metrics.Collector
	Jobs    *jobs.Service
	Router  http.Handler
}

// Run starts the API and blocks until SIGINT or SIGTERM.
func Run() error {
	cfg := config.Load()
	log, err := logger.New(logger.Config{
		ServiceName: "chancehr",
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
	})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// New connects the backing stores and assembles the router. Background jobs stop with ctx.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	rdb, err := redis.Connect(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	app := &App{Config: cfg, DB: pool, Redis: rdb, Log: log}
	if cfg.MetricsEnabled {
		app.Metrics = metrics.New()
	}
	if err := app.wire(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config
	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return fmt.Errorf("encryption key: %w", err)
	}
	calendar := holiday.Default()
	auditSvc := audit.New(a.DB)

	taxTables := taxtable.NewService(taxtable.NewStore(a.DB))
	if err := taxTables.LoadBuiltin(ctx); err != nil {
		return fmt.Errorf("tax tables: %w", err)
	}

	employees := employee.NewService(employee.NewStore(a.DB), crypto)
	attendanceStore := attendance.NewStore(a.DB)

	var tokenStore attendance.TokenStore = attendance.NewPostgresTokenStore(a.DB)
	recorderOpts := []attendance.Option{attendance.WithAudit(auditSvc), attendance.WithMetrics(a.Metrics)}
	if a.Redis != nil {
		tokenStore = attendance.NewRedisTokenStore(a.Redis)
		recorderOpts = append(recorderOpts, attendance.WithLocker(redis.NewLocker(a.Redis)))
	}
	qr := attendance.NewQRService(tokenStore, cfg.QRTokenTTL)
	recorder := attendance.NewRecorder(attendanceStore, employees, qr, calendar, attendance.Config{
		LocationMaxAge: cfg.LocationMaxAge,
		LateGrace:      cfg.LateGrace,
		DayLockTTL:     cfg.DayLockTTL,
	}, recorderOpts...)

	worktimeSvc := worktime.NewService(employees, attendanceStore, calendar)
	payrollSvc := payroll.NewService(payroll.NewStore(a.DB), employees, worktimeSvc, taxTables,
		payroll.WithAudit(auditSvc),
		payroll.WithMetrics(a.Metrics),
		payroll.WithArchive(payroll.NewArchive(cfg.SlipStorageDir, crypto)),
	)
	severanceSvc := severance.NewService(employees, payrollSvc)

	a.Jobs = jobs.New(a.DB)
	a.Jobs.Start(ctx)
	a.Jobs.ScheduleEvery(ctx, jobs.JobQRRotation, cfg.QRRotateInterval, func(ctx context.Context, workplaceID string) (any, error) {
		issued := map[string]time.Time{}
		for _, direction := range []string{attendance.DirectionIn, attendance.DirectionOut} {
			token, err := qr.Issue(ctx, workplaceID, direction)
			if err != nil {
				return issued, err
			}
			issued[direction] = token.ExpiresAt
		}
		return issued, nil
	})

	if err := a.seed(ctx); err != nil {
		return err
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(a.Log, a.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", a.handleReady)
	if a.Metrics != nil {
		router.Handle("/metrics", a.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		attendanceHandler := attendancehandler.NewHandler(recorder, qr, employees, auditSvc, cfg.Location())
		attendanceHandler.CheckRate = cfg.RateLimitPerMin
		attendanceHandler.RegisterRoutes(r)

		employeeHandler := employeehandler.NewHandler(employees, worktimeSvc, severanceSvc, payrollSvc, cfg.Location())
		employeeHandler.RegisterRoutes(r)

		payrollHandler := payrollhandler.NewHandler(payrollSvc, employees, a.Jobs)
		payrollHandler.RegisterRoutes(r)

		taxTableHandler := taxtablehandler.NewHandler(taxTables, auditSvc)
		taxTableHandler.RegisterRoutes(r)

		auditHandler := audithandler.NewHandler(auditSvc)
		auditHandler.RegisterRoutes(r)
	})

	a.Router = router
	return nil
}

func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.DB.Ping(ctx); err != nil {
		http.Error(w, "db not ready", http.StatusServiceUnavailable)
		return
	}
	if a.Redis != nil {
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			http.Error(w, "redis not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// seed creates the configured development workplace and logs an owner token for it.
func (a *App) seed(ctx context.Context) error {
	workplaceID, err := db.Seed(ctx, a.DB, a.Config)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if workplaceID == "" || a.Config.Environment == "production" {
		return nil
	}
	token, err := auth.GenerateToken(a.Config.JWTSecret, auth.Claims{
		UserID:      "seed-owner",
		WorkplaceID: workplaceID,
		Role:        requestctx.RoleOwner,
	}, 24*time.Hour)
	if err != nil {
		return fmt.Errorf("seed token: %w", err)
	}
	a.Log.Info("seeded development workplace", zap.String("workplace_id", workplaceID), zap.String("owner_token", token))
	return nil
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
