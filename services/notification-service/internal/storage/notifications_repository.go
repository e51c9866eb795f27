package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/libs/db"
)

type Notification struct {
	BookingID  int64
	ResourceID string
	EventType  string
	Channel    string
	Recipient  string
	Body       string
	Status     string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertTx writes the send log inside the worker's batch transaction so
// the log row and the job status change commit together.
func (r *Repository) InsertTx(ctx context.Context, tx pgx.Tx, n Notification) error {
	_, err := tx.Exec(ctx, insertNotificationSQL,
		n.BookingID, n.ResourceID, n.EventType, n.Channel, n.Recipient, n.Body, n.Status)
	return err
}

const insertNotificationSQL = `
	INSERT INTO notifications (booking_id, resource_id, event_type, channel, recipient, body, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`
