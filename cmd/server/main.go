package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"confreg/internal/directory"
	"confreg/internal/email"
	"confreg/internal/payment/dedupe"
	paymenthandler "confreg/internal/payment/handler"
	"confreg/internal/payment/paystack"
	"confreg/internal/platform/config"
	"confreg/internal/platform/database"
	"confreg/internal/platform/httpserver"
	"confreg/internal/platform/logger"
	"confreg/internal/platform/metrics"
	"confreg/internal/platform/middleware"
	registrationhandler "confreg/internal/registration/handler"
	"confreg/internal/registration/pricing"
	"confreg/internal/registration/service"
	"confreg/internal/registration/store/emaillog"
	registrationstore "confreg/internal/registration/store/registration"
	"confreg/internal/settings"
	settingshandler "confreg/internal/settings/handler"
)

// main wires dependencies and owns the process lifecycle. Business rules live
// in internal packages; nothing here should need a unit test.
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	var dedupeStore *dedupe.RedisStore
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}
		dedupeStore = dedupe.NewRedis(redis.NewClient(opts))
	}

	m := metrics.New()

	settingsService, err := settings.NewService(settings.NewPostgres(db), cfg.AppSecret, func(key string) string {
		switch key {
		case settings.KeyPaystackSecretKey:
			return cfg.PaystackSecretKey
		case settings.KeyPaystackPublicKey:
			return cfg.PaystackPublicKey
		}
		return ""
	})
	if err != nil {
		log.Error("failed to initialize settings", "error", err)
		os.Exit(1)
	}

	gateway := paystack.New(cfg.PaystackBaseURL, settingsService)

	emailLogs := emaillog.NewPostgres(db)
	sender := email.NewSender(
		email.NewSMTPMailer(email.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.MailFrom,
		}),
		emailLogs,
		email.NewTokenIssuer(cfg.AppSecret),
		log,
		email.WithMetrics(m),
	)

	fees := pricing.DefaultTable()
	fees.Deadline = cfg.RegistrationDeadline

	regService := service.New(
		registrationstore.NewPostgres(db),
		emailLogs,
		directory.NewPostgres(db),
		gateway,
		sender,
		log,
		service.WithMetrics(m),
		service.WithPricing(fees),
		service.WithReferencePrefix(cfg.ReferencePrefix),
		service.WithCallbackURL(cfg.FrontendURL+"/payment/callback"),
	)

	regHandler := registrationhandler.New(regService, log)
	payHandler := paymenthandler.New(regService, gateway, dedupeStore, log, m)
	setHandler := settingshandler.New(settingsService, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)

	regHandler.Register(router)
	payHandler.Register(router)
	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(cfg.AdminToken, log))
		regHandler.RegisterAdmin(r)
		payHandler.RegisterAdmin(r)
		setHandler.RegisterAdmin(r)
	})

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting confreg", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
