package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	otelx "github.com/md-rashed-zaman/slotbook/libs/otel"
	"github.com/md-rashed-zaman/slotbook/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/slotbook/services/notification-service/internal/outbox"
	"github.com/md-rashed-zaman/slotbook/services/notification-service/internal/sms"
	"github.com/md-rashed-zaman/slotbook/services/notification-service/internal/storage"
)

// Worker drains due notification jobs and performs the actual sends.
// Delivery is at least once: a batch whose transaction fails to commit
// leaves its jobs pending and they are sent again on a later tick.
type Worker struct {
	pool          *db.Pool
	repo          *Repository
	outbox        *outbox.Repository
	notifications *storage.Repository
	email         email.Sender
	sms           sms.Sender
	logger        *slog.Logger
	interval      time.Duration
	batchSize     int
	backoff       time.Duration
}

type WorkerConfig struct {
	Interval  time.Duration
	BatchSize int
	Backoff   time.Duration
}

func NewWorker(
	pool *db.Pool,
	repo *Repository,
	outboxRepo *outbox.Repository,
	notificationsRepo *storage.Repository,
	emailSender email.Sender,
	smsSender sms.Sender,
	logger *slog.Logger,
	cfg WorkerConfig,
) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 1 * time.Minute
	}
	return &Worker{
		pool:          pool,
		repo:          repo,
		outbox:        outboxRepo,
		notifications: notificationsRepo,
		email:         emailSender,
		sms:           smsSender,
		logger:        logger,
		interval:      cfg.Interval,
		batchSize:     cfg.BatchSize,
		backoff:       cfg.Backoff,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.processBatch(ctx); err != nil {
				w.logger.Error("notification batch failed", "err", err)
			}
		}
	}
}

func (w *Worker) processBatch(ctx context.Context) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	jobs, err := w.repo.FetchDue(ctx, tx, w.batchSize)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return tx.Commit(ctx)
	}

	var processed []int64
	for _, job := range jobs {
		jobCtx := otelx.ContextWithTraceContext(ctx, job.Traceparent, job.Tracestate)

		providerID, sendErr := w.deliver(jobCtx, job)
		if sendErr == nil {
			processed = append(processed, job.ID)
			if err := w.recordSent(jobCtx, tx, job, providerID); err != nil {
				return err
			}
			continue
		}

		w.logger.Error("notification send failed", "err", sendErr, "job_id", job.ID, "channel", job.Channel)
		attempts := job.Attempts + 1
		nextRunAt := time.Now().UTC().Add(w.backoff)
		if err := w.repo.MarkFailed(ctx, tx, job.ID, attempts, job.MaxAttempts, nextRunAt, sendErr.Error()); err != nil {
			return err
		}
		if attempts >= job.MaxAttempts {
			if err := w.recordFailed(jobCtx, tx, job, sendErr.Error()); err != nil {
				return err
			}
		}
	}

	if err := w.repo.MarkProcessed(ctx, tx, processed); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (w *Worker) deliver(ctx context.Context, job Job) (string, error) {
	switch strings.ToLower(job.Channel) {
	case "email":
		if err := w.email.Send(job.Recipient, SubjectFor(job.EventType), job.Body); err != nil {
			return "", err
		}
		return "smtp", nil
	case "sms":
		if err := w.sms.Send(ctx, job.Recipient, job.Body); err != nil {
			return "", err
		}
		return w.sms.ProviderID(), nil
	default:
		return "", errors.New("unsupported channel: " + job.Channel)
	}
}

func (w *Worker) recordSent(ctx context.Context, tx pgx.Tx, job Job, providerID string) error {
	if err := w.notifications.InsertTx(ctx, tx, storage.Notification{
		BookingID:  job.BookingID,
		ResourceID: job.ResourceID,
		EventType:  job.EventType,
		Channel:    job.Channel,
		Recipient:  job.Recipient,
		Body:       job.Body,
		Status:     "sent",
	}); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"booking_id":  job.BookingID,
		"resource_id": job.ResourceID,
		"event_type":  job.EventType,
		"channel":     job.Channel,
		"recipient":   job.Recipient,
		"provider_id": providerID,
		"sent_at":     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return w.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "notification",
		AggregateID:   strconv.FormatInt(job.BookingID, 10),
		EventType:     outbox.EventNotificationSent,
		Payload:       payload,
	})
}

func (w *Worker) recordFailed(ctx context.Context, tx pgx.Tx, job Job, reason string) error {
	if err := w.notifications.InsertTx(ctx, tx, storage.Notification{
		BookingID:  job.BookingID,
		ResourceID: job.ResourceID,
		EventType:  job.EventType,
		Channel:    job.Channel,
		Recipient:  job.Recipient,
		Body:       job.Body,
		Status:     "failed",
	}); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"booking_id":   job.BookingID,
		"resource_id":  job.ResourceID,
		"event_type":   job.EventType,
		"channel":      job.Channel,
		"recipient":    job.Recipient,
		"error_reason": reason,
		"failed_at":    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return w.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "notification",
		AggregateID:   strconv.FormatInt(job.BookingID, 10),
		EventType:     outbox.EventNotificationFailed,
		Payload:       payload,
	})
}
