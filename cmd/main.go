package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	api "github.com/planopia/leave_service/internal/api/http"
	"github.com/planopia/leave_service/internal/config"
	"github.com/planopia/leave_service/internal/controllers"
	"github.com/planopia/leave_service/internal/database"
	"github.com/planopia/leave_service/internal/i18n"
	"github.com/planopia/leave_service/internal/notify"
	"github.com/planopia/leave_service/internal/repository"
	logging "github.com/planopia/leave_service/internal/utils"
)

const shutdownTimeout = 15 * time.Second

func main() {
	bootLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.GetConfig(bootLogger)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger, err := logging.SetupLogger(cfg.Log.File, cfg.LogLevel())
	if err != nil {
		log.Fatal("Failed to setup logger:", err)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := database.NewRedisConn(ctx, cfg, logger)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	db, err := database.NewConnect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to database", slog.Any("error", err))
		return
	}
	defer db.Close()

	translator, err := i18n.New()
	if err != nil {
		logger.Error("Failed to load translations", slog.Any("error", err))
		return
	}

	var sender notify.Sender = notify.LogSender{Logger: logger}
	if cfg.AMQP.Enabled {
		publisher := notify.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, logger)
		defer publisher.Close()
		sender = publisher
	}
	dispatcher := notify.NewDispatcher(sender, logger, prometheus.DefaultRegisterer)

	deps := &controllers.Dependens{
		Users:         repository.NewUserRepository(db),
		LeaveRequests: repository.NewLeaveRequestRepository(db),
		LeavePlans:    repository.NewLeavePlanRepository(db),
		Workdays:      repository.NewWorkdayRepository(db),
		Confirmations: repository.NewConfirmationRepository(db),
		AuditLogs:     repository.NewAuditLogRepository(db),
		Redis:         rdb,
		Notifier:      dispatcher,
		Translator:    translator,
		Metrics:       controllers.NewMetrics(prometheus.DefaultRegisterer),
		Logger:        logger,
		Config:        cfg,
	}

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	prometheus.MustRegister(httpRequestsTotal)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	api.NewServer(deps, translator).Routes(r)

	s := &http.Server{
		Handler:           r,
		Addr:              cfg.Server.Host,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	go func() {
		logger.Info("Server is starting", slog.String("address", cfg.Server.Host))
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down server", slog.Any("error", err))
	}

	dispatcher.Wait()
}
