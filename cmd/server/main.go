package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/billing"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/config"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/db"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/handlers"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/logger"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/middleware"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/notify"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/schedule"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/session"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/store"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/store/memory"
	"github.com/Ibrahimango02/almahir-portal-sub003/internal/store/postgres"
)

type stores struct {
	sessions       store.SessionStore
	subscriptions  store.SubscriptionStore
	invoices       store.InvoiceStore
	reschedules    store.RescheduleStore
	unavailability store.UnavailabilityStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New(cfg.LogFormat, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, cleanup, err := buildStores(ctx, cfg, log)
	if err != nil {
		log.Error("failed to set up storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	sink := notify.NewLogSink(log)
	detector := schedule.NewDetector(st.sessions, st.unavailability)
	sessionSvc := session.NewService(st.sessions, st.reschedules, detector, sink, log)
	calculator := billing.NewCalculator(st.sessions, st.subscriptions, log)
	invoicer := billing.NewInvoicer(st.invoices, cfg.InvoiceDueDays, log)
	subscriptions := billing.NewSubscriptions(st.subscriptions)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer(log))
	r.Use(middleware.RequestLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Group(handlers.NewSessionsHandler(sessionSvc, detector, cfg.DefaultTimezone, log).Routes)
	r.Group(handlers.NewBillingHandler(calculator, invoicer, log).Routes)
	r.Group(handlers.NewSubscriptionsHandler(subscriptions, log).Routes)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", slog.String("error", err.Error()))
		}
	}()

	log.Info("server starting", slog.String("port", cfg.Port), slog.String("environment", cfg.Environment))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func buildStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (*stores, func(), error) {
	if cfg.UseMemoryStore {
		log.Info("using in-memory stores")
		return &stores{
			sessions:       memory.NewSessionStore(),
			subscriptions:  memory.NewSubscriptionStore(),
			invoices:       memory.NewInvoiceStore(),
			reschedules:    memory.NewRescheduleStore(),
			unavailability: memory.NewUnavailabilityStore(),
		}, func() {}, nil
	}

	conn, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(conn, log); err != nil {
		conn.Close()
		return nil, nil, err
	}
	log.Info("database connection established")

	return &stores{
		sessions:       postgres.NewSessionStore(conn),
		subscriptions:  postgres.NewSubscriptionStore(conn),
		invoices:       postgres.NewInvoiceStore(conn),
		reschedules:    postgres.NewRescheduleStore(conn),
		unavailability: postgres.NewUnavailabilityStore(conn),
	}, func() { conn.Close() }, nil
}
