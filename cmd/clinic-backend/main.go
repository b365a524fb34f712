package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avdonina/clinic-backend/internal/config"
	"github.com/avdonina/clinic-backend/internal/httpapi"
	"github.com/avdonina/clinic-backend/internal/mailer"
	"github.com/avdonina/clinic-backend/internal/realtime"
	"github.com/avdonina/clinic-backend/internal/service"
	"github.com/avdonina/clinic-backend/internal/storage"
	"github.com/avdonina/clinic-backend/internal/storage/mongo"
	"github.com/avdonina/clinic-backend/internal/storage/postgres"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting application", "env", cfg.Env)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	// Подключения к хранилищам c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	identities, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		rootCancel()
		os.Exit(1)
	}
	log.Info("postgres_connected")

	mongoCtx, mongoCancel := context.WithTimeout(rootCtx, 10*time.Second)
	docs, err := mongo.New(mongoCtx, cfg)
	mongoCancel()
	if err != nil {
		log.Error("mongo_connect_failed", slog.String("err", err.Error()))
		identities.Close()
		rootCancel()
		os.Exit(1)
	}
	log.Info("mongo_connected")

	// Доставка кодов: SMTP при настроенном хосте, иначе лог (local/dev).
	var mail mailer.Mailer
	if cfg.Mail.Host != "" {
		mail = mailer.NewSMTP(cfg.Mail)
	} else {
		log.Warn("mailer_log_mode")
		mail = mailer.NewLog(log)
	}

	// Сервис и realtime-шлюз.
	srvc := service.New(identities, docs, mail, cfg)
	gateway := realtime.NewGateway(srvc, realtime.NewHub(cfg.Realtime.SendBuffer))
	log.Info("service_initialized")

	// Служебный HTTP: liveness/readiness/metrics.
	var ready int32 // 0 — not ready; 1 — ready
	opsAddr := cfg.Ops.Addr()

	opsMux := http.NewServeMux()
	opsMux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	opsMux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	opsMux.Handle("/metrics", promhttp.Handler())

	opsSrv := &http.Server{
		Addr:              opsAddr,
		Handler:           opsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("ops_listen_start", "addr", opsAddr)
		if err := opsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ops_serve_failed", slog.String("err", err.Error()))
		}
	}()

	// Фоновая уборка просроченных одноразовых кодов.
	startOtpJanitor(rootCtx, docs, log, 30*time.Minute)

	// Основной HTTP API.
	apiAddr := cfg.HTTP.Addr()
	router := httpapi.NewRouter(
		httpapi.New(srvc, gateway, cfg.Chat),
		httpapi.Options{
			Logger:  log,
			Timeout: cfg.Timeouts.Service,
		},
	)

	apiSrv := &http.Server{
		Addr:              apiAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("http_listen_start", slog.String("addr", apiAddr))
	atomic.StoreInt32(&ready, 1)

	serveErrCh := make(chan error, 1)
	go func() {
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	// Ожидание сигнала завершения или фатальной ошибки сервера.
	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	// Graceful stop с таймаутом; SSE-соединения закрываются вместе с сервером.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_force_stop", slog.String("err", err.Error()))
		_ = apiSrv.Close()
	} else {
		log.Info("http_stopped")
	}

	_ = opsSrv.Shutdown(context.Background())

	// Явная очистка перед выходом.
	shutdownCancel()
	rootCancel()
	_ = docs.Close(context.Background())
	identities.Close()

	log.Info("service_stopped")
	os.Exit(0)
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}

// startOtpJanitor запускает фоновую задачу, которая периодически удаляет
// просроченные одноразовые коды. Корректность от неё не зависит: истечение
// кода сервис проверяет явно, уборка лишь сдерживает рост коллекции там, где
// TTL-индекс задерживается.
func startOtpJanitor(ctx context.Context, docs storage.OtpStorage, log *slog.Logger, period time.Duration) {
	if period <= 0 {
		return
	}

	go func() {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := docs.DeleteExpiredCodes(ctx, time.Now().UTC()); err != nil {
					log.Error("otp_janitor_failed", slog.String("err", err.Error()))
				}
			}
		}
	}()
}
