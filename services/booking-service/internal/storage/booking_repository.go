package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

// BookingRepository is the durable mirror of the in-memory ledger. The
// engine stays authoritative at runtime; rows here exist so a restart can
// rehydrate the ledger and so outbox events commit atomically with the
// booking they describe.
type BookingRepository struct {
	pool *db.Pool
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// LoadAll returns every mirrored booking in id order, so rehydration
// reproduces the original insertion order and id sequence.
func (r *BookingRepository) LoadAll(ctx context.Context) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, resource_id, day, start_minute, end_minute, status, created_at, updated_at
		FROM bookings
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// InsertTx mirrors a freshly accepted booking. The id comes from the
// engine, not a sequence; the engine is the only writer.
func (r *BookingRepository) InsertTx(ctx context.Context, tx pgx.Tx, b model.Booking) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO bookings (id, resource_id, day, start_minute, end_minute, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, b.ID, b.ResourceID, dateToPg(b.Date), b.Interval.Start, b.Interval.End,
		b.Status.String(), b.CreatedAt, b.UpdatedAt)
	return err
}

// SetStatusTx mirrors a lifecycle transition.
func (r *BookingRepository) SetStatusTx(ctx context.Context, tx pgx.Tx, id int64, status model.Status, updatedAt time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE bookings
		SET status = $2, updated_at = $3
		WHERE id = $1
	`, id, status.String(), updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "23505" || pgErr.Code == "23P01")
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func scanBooking(rows pgx.Rows) (model.Booking, error) {
	var (
		b      model.Booking
		day    time.Time
		status string
	)
	if err := rows.Scan(
		&b.ID,
		&b.ResourceID,
		&day,
		&b.Interval.Start,
		&b.Interval.End,
		&status,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return model.Booking{}, err
	}
	b.Date = model.Date{Year: day.Year(), Month: int(day.Month()), Day: day.Day()}
	parsed, err := model.ParseStatus(status)
	if err != nil {
		return model.Booking{}, err
	}
	b.Status = parsed
	return b, nil
}

// dateToPg renders a calendar day for a pg DATE column. Midnight UTC keeps
// the stored day independent of server timezone.
func dateToPg(d model.Date) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}
