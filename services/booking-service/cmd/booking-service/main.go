package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/config"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/slotbook/libs/otel"
	"github.com/md-rashed-zaman/slotbook/libs/runtime"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/registry"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/schedule"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// staticRegistryFromEnv seeds the fallback registry with the resources in
// STATIC_RESOURCES, all on the default Monday to Friday template. Used
// when no registry service is configured.
func staticRegistryFromEnv(logger *slog.Logger) *registry.Static {
	static := registry.NewStatic()
	raw := config.String("STATIC_RESOURCES", "")
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		static.Add(id, model.DefaultTemplate())
	}
	if ids := static.ResourceIDs(); len(ids) > 0 {
		logger.Info("static registry seeded", "resources", len(ids))
	}
	return static
}

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	repo := storage.NewBookingRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	regProvider, err := registry.NewRegistryProvider(logger, staticRegistryFromEnv(logger), config.String("REGISTRY_GRPC_ADDR", ""))
	if err != nil {
		logger.Error("registry provider init failed", "err", err)
		panic(err)
	}

	svc := schedule.NewService(regProvider)

	// The ledger is authoritative at runtime; the mirror only matters
	// here, at boot, to carry bookings across restarts.
	restored, err := repo.LoadAll(ctx)
	if err != nil {
		logger.Error("ledger hydration failed", "err", err)
		panic(err)
	}
	svc.Restore(restored)
	logger.Info("ledger hydrated", "bookings", svc.Count())

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	bookingHandler := handlers.NewBookingHandler(svc, repo, outboxRepo, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
		runtime.ReadyCheck{Name: "registry", Check: func(ctx context.Context) error {
			// A not-found answer still proves the provider is reachable.
			_, err := regProvider.Exists(ctx, "00000000-0000-0000-0000-000000000000")
			return err
		}},
	)
	mux.HandleFunc("/v1/bookings", bookingHandler.Collection)
	mux.HandleFunc("/v1/bookings/", bookingHandler.Item)
	mux.HandleFunc("/v1/slots", bookingHandler.Slots)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
