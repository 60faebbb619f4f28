package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/virajbhatt/cardintel/constants"
	"github.com/virajbhatt/cardintel/internal/entity"
)

// UsageRepository is the append-only usage ledger plus the two aggregate
// reads the rate limiter depends on. Appends are single inserts with no
// read-modify-write, so concurrent writers never lose records.
type UsageRepository interface {
	Append(ctx context.Context, rec *entity.UsageRecord) error
	MonthlyUnits(ctx context.Context, kind constants.ServiceKind, since time.Time) (int, error)
	HourlyAttempts(ctx context.Context, requesterID string, kind constants.ServiceKind, since time.Time) (count int, oldest time.Time, err error)
}

type usageRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewUsageRepository(pool *pgxpool.Pool, log *slog.Logger) UsageRepository {
	if log == nil {
		log = slog.Default()
	}
	return &usageRepo{pool: pool, log: log}
}

func (r *usageRepo) Append(ctx context.Context, rec *entity.UsageRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO usage_records (id, requester_id, service_kind, units_used, success, error_message, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`,
		rec.ID, rec.RequesterID, string(rec.ServiceKind), rec.UnitsUsed, rec.Success, rec.ErrorMessage, meta, rec.CreatedAt,
	)
	if err != nil {
		r.log.Error("usage_record append failed", "requester_id", rec.RequesterID, "service_kind", rec.ServiceKind, "error", err)
		return err
	}
	r.log.Info("usage_record appended",
		"record_id", rec.ID,
		"requester_id", rec.RequesterID,
		"service_kind", rec.ServiceKind,
		"units_used", rec.UnitsUsed,
		"success", rec.Success,
	)
	return nil
}

func (r *usageRepo) MonthlyUnits(ctx context.Context, kind constants.ServiceKind, since time.Time) (int, error) {
	var units int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(units_used), 0)
		 FROM usage_records
		 WHERE service_kind = $1 AND created_at >= $2`,
		string(kind), since,
	).Scan(&units)
	if err != nil {
		return 0, err
	}
	return units, nil
}

func (r *usageRepo) HourlyAttempts(ctx context.Context, requesterID string, kind constants.ServiceKind, since time.Time) (int, time.Time, error) {
	var count int
	var oldest *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(created_at)
		 FROM usage_records
		 WHERE requester_id = $1 AND service_kind = $2 AND created_at >= $3`,
		requesterID, string(kind), since,
	).Scan(&count, &oldest)
	if err != nil {
		return 0, time.Time{}, err
	}
	if oldest == nil {
		return count, time.Time{}, nil
	}
	return count, *oldest, nil
}
