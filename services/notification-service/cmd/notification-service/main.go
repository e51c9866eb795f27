package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/config"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/slotbook/libs/otel"
	"github.com/md-rashed-zaman/slotbook/libs/runtime"
	"github.com/md-rashed-zaman/slotbook/services/notification-service/internal/consumer"
	"github.com/md-rashed-zaman/slotbook/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/slotbook/services/notification-service/internal/inbox"
	"github.com/md-rashed-zaman/slotbook/services/notification-service/internal/jobs"
	"github.com/md-rashed-zaman/slotbook/services/notification-service/internal/outbox"
	"github.com/md-rashed-zaman/slotbook/services/notification-service/internal/sms"
	"github.com/md-rashed-zaman/slotbook/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type bookingEvent struct {
	BookingID   int64  `json:"booking_id"`
	ResourceID  string `json:"resource_id"`
	Date        string `json:"date"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	Status      string `json:"status"`
}

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
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

	inboxRepo := inbox.NewRepository(pool)
	jobRepo := jobs.NewRepository()
	notificationsRepo := storage.NewRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	smtpHost := config.String("SMTP_HOST", "mailpit")
	smtpPort := config.String("SMTP_PORT", "1025")
	smtpFrom := config.String("SMTP_FROM", "no-reply@slotbook.local")
	emailSender := email.NewSMTPSender(smtpHost, smtpPort, smtpFrom)

	smsProvider := strings.ToLower(config.String("SMS_PROVIDER", "noop"))
	smsWebhookURL := config.String("SMS_WEBHOOK_URL", "")
	smsWebhookToken := config.String("SMS_WEBHOOK_TOKEN", "")
	var smsSender sms.Sender
	switch smsProvider {
	case "webhook":
		smsSender = sms.NewWebhookSender(smsWebhookURL, smsWebhookToken)
	case "noop":
		smsSender = sms.NewNoopSender()
	default:
		smsSender = sms.NewWebhookSender(smsWebhookURL, smsWebhookToken)
	}

	backoffSeconds, err := strconv.Atoi(config.String("NOTIFICATION_BACKOFF_SECONDS", "60"))
	if err != nil || backoffSeconds <= 0 {
		backoffSeconds = 60
	}
	jobWorker := jobs.NewWorker(pool, jobRepo, outboxRepo, notificationsRepo, emailSender, smsSender, logger, jobs.WorkerConfig{
		Interval:  2 * time.Second,
		BatchSize: 25,
		Backoff:   time.Duration(backoffSeconds) * time.Second,
	})
	go jobWorker.Run(ctx)

	notifyEmail := strings.TrimSpace(config.String("NOTIFY_EMAIL", "frontdesk@slotbook.local"))
	notifySMS := strings.TrimSpace(config.String("NOTIFY_SMS_TO", ""))

	consumerCfg := consumer.Config{
		Brokers: config.String("KAFKA_BROKERS", ""),
		GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
		Topics:  []string{jobs.TopicBookingCreated, jobs.TopicBookingCancelled},
	}
	eventConsumer := consumer.New(logger, inboxRepo, consumerCfg, func(ctx context.Context, msg kafka.Message) error {
		var payload bookingEvent
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid booking event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if payload.BookingID <= 0 || payload.ResourceID == "" || payload.Date == "" || payload.EndMinute <= payload.StartMinute {
			logger.Error("missing booking event fields", "topic", msg.Topic)
			return nil
		}

		var body string
		switch msg.Topic {
		case jobs.TopicBookingCreated:
			body = jobs.ConfirmationBody(payload.BookingID, payload.ResourceID, payload.Date, payload.StartMinute, payload.EndMinute)
		case jobs.TopicBookingCancelled:
			body = jobs.CancellationBody(payload.BookingID, payload.ResourceID, payload.Date, payload.StartMinute, payload.EndMinute)
		default:
			logger.Error("unexpected topic", "topic", msg.Topic)
			return nil
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := jobRepo.Insert(ctx, tx, jobs.Job{
			BookingID:  payload.BookingID,
			ResourceID: payload.ResourceID,
			EventType:  msg.Topic,
			Channel:    "email",
			Recipient:  notifyEmail,
			Body:       body,
		}); err != nil {
			return err
		}
		if notifySMS != "" {
			if err := jobRepo.Insert(ctx, tx, jobs.Job{
				BookingID:  payload.BookingID,
				ResourceID: payload.ResourceID,
				EventType:  msg.Topic,
				Channel:    "sms",
				Recipient:  notifySMS,
				Body:       body,
			}); err != nil {
				return err
			}
		}

		return tx.Commit(ctx)
	})
	go eventConsumer.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
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
