package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/slotbook/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

type Resource struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt time.Time
}

// DayHours is one weekday row of a resource's weekly template. Non-working
// days are stored with zeroed minutes.
type DayHours struct {
	Weekday     int
	IsWorking   bool
	StartMinute int
	EndMinute   int
}

// DefaultWeek is the template seeded for new resources: Monday through
// Friday, 09:00 to 17:00.
func DefaultWeek() [7]DayHours {
	var week [7]DayHours
	for wd := 0; wd <= 6; wd++ {
		week[wd] = DayHours{Weekday: wd}
		if wd >= 1 && wd <= 5 {
			week[wd].IsWorking = true
			week[wd].StartMinute = 540
			week[wd].EndMinute = 1020
		}
	}
	return week
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// CreateResourceTx inserts the resource and seeds its weekly hours in the
// caller's transaction, so the registry never exposes a resource without a
// template.
func (r *Repository) CreateResourceTx(ctx context.Context, tx pgx.Tx, name string) (Resource, error) {
	res := Resource{ID: uuid.NewString(), Name: name, Active: true}
	err := tx.QueryRow(ctx, `
		INSERT INTO resources (id, name, active)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, res.ID, res.Name, res.Active).Scan(&res.CreatedAt)
	if err != nil {
		return Resource{}, err
	}

	if err := r.upsertHours(ctx, tx, res.ID, DefaultWeek()); err != nil {
		return Resource{}, err
	}
	return res, nil
}

func (r *Repository) GetResource(ctx context.Context, id string) (Resource, error) {
	var res Resource
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, active, created_at
		FROM resources
		WHERE id = $1
	`, id).Scan(&res.ID, &res.Name, &res.Active, &res.CreatedAt)
	return res, err
}

func (r *Repository) ListResources(ctx context.Context, limit int) ([]Resource, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, active, created_at
		FROM resources
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Resource
	for rows.Next() {
		var res Resource
		if err := rows.Scan(&res.ID, &res.Name, &res.Active, &res.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// ListHours returns the resource's seven weekday rows in weekday order.
// pgx.ErrNoRows when the resource does not exist.
func (r *Repository) ListHours(ctx context.Context, resourceID string) ([7]DayHours, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM resources WHERE id = $1)
	`, resourceID).Scan(&exists); err != nil {
		return [7]DayHours{}, err
	}
	if !exists {
		return [7]DayHours{}, pgx.ErrNoRows
	}

	rows, err := r.pool.Query(ctx, `
		SELECT weekday, is_working, start_minute, end_minute
		FROM resource_hours
		WHERE resource_id = $1
		ORDER BY weekday ASC
	`, resourceID)
	if err != nil {
		return [7]DayHours{}, err
	}
	defer rows.Close()

	week := DefaultWeek()
	for rows.Next() {
		var dh DayHours
		if err := rows.Scan(&dh.Weekday, &dh.IsWorking, &dh.StartMinute, &dh.EndMinute); err != nil {
			return [7]DayHours{}, err
		}
		if dh.Weekday >= 0 && dh.Weekday <= 6 {
			week[dh.Weekday] = dh
		}
	}
	if rows.Err() != nil {
		return [7]DayHours{}, rows.Err()
	}
	return week, nil
}

// UpdateHoursTx replaces the resource's weekly template in the caller's
// transaction. pgx.ErrNoRows when the resource does not exist.
func (r *Repository) UpdateHoursTx(ctx context.Context, tx pgx.Tx, resourceID string, week [7]DayHours) error {
	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM resources WHERE id = $1)
	`, resourceID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}
	return r.upsertHours(ctx, tx, resourceID, week)
}

func (r *Repository) upsertHours(ctx context.Context, tx pgx.Tx, resourceID string, week [7]DayHours) error {
	for wd, dh := range week {
		startMin, endMin := dh.StartMinute, dh.EndMinute
		if !dh.IsWorking {
			startMin, endMin = 0, 0
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO resource_hours (resource_id, weekday, is_working, start_minute, end_minute)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (resource_id, weekday) DO UPDATE
			SET is_working = EXCLUDED.is_working,
				start_minute = EXCLUDED.start_minute,
				end_minute = EXCLUDED.end_minute
		`, resourceID, wd, dh.IsWorking, startMin, endMin); err != nil {
			return err
		}
	}
	return nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
