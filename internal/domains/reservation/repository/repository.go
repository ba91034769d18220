package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"berth/infras/otel"
	"berth/infras/postgres"
	"berth/internal/domains/reservation/model"
	"berth/shared/constant"
	gDto "berth/shared/dto"
	"berth/shared/logger"
	gRepo "berth/shared/repository"
)

// ErrCapacityExceeded is returned when an insert would push the active
// reservation count past the slot's capacity.
var ErrCapacityExceeded = errors.New("slot capacity exceeded")

// upsertQuery is keyed by provider_reservation_id. Absent fields in the new
// payload keep the stored values, and raw payloads are merged so earlier
// provenance survives partial webhook deliveries.
const upsertQuery = `
INSERT INTO reservations (
	id, slot_id, registrant_id, provider_reservation_id,
	attendee_name, attendee_email, slot_start, slot_end,
	status, raw, created_at, modified_at, created_by, modified_by
) VALUES (
	:id, :slot_id, :registrant_id, :provider_reservation_id,
	:attendee_name, :attendee_email, :slot_start, :slot_end,
	:status, :raw, :created_at, :modified_at, :created_by, :modified_by
)
ON CONFLICT (provider_reservation_id) DO UPDATE SET
	slot_id        = COALESCE(NULLIF(EXCLUDED.slot_id, ''), reservations.slot_id),
	registrant_id  = COALESCE(EXCLUDED.registrant_id, reservations.registrant_id),
	attendee_name  = COALESCE(NULLIF(EXCLUDED.attendee_name, ''), reservations.attendee_name),
	attendee_email = COALESCE(NULLIF(EXCLUDED.attendee_email, ''), reservations.attendee_email),
	slot_start     = COALESCE(EXCLUDED.slot_start, reservations.slot_start),
	slot_end       = COALESCE(EXCLUDED.slot_end, reservations.slot_end),
	status         = COALESCE(NULLIF(EXCLUDED.status, ''), reservations.status),
	raw            = reservations.raw || EXCLUDED.raw,
	modified_at    = EXCLUDED.modified_at,
	modified_by    = EXCLUDED.modified_by
RETURNING id, slot_id, registrant_id, provider_reservation_id,
	attendee_name, attendee_email, slot_start, slot_end,
	status, raw, created_at, modified_at, created_by, modified_by`

const countActiveQuery = `
SELECT COUNT(id) FROM reservations
WHERE slot_id = ? AND status IN (?) AND (slot_start IS NULL OR slot_start >= ?)`

const perSlotUsageQuery = `
SELECT slot_id, COUNT(id) AS booked_count FROM reservations
WHERE slot_id IN (?) AND status IN (?) AND (slot_start IS NULL OR slot_start >= ?)
GROUP BY slot_id`

type Reservation interface {
	Upsert(ctx context.Context, mod model.Reservation) (model.Reservation, error)
	UpsertWithCapacity(ctx context.Context, mod model.Reservation, capacity *int, now time.Time) (model.Reservation, error)
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Reservation, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Reservation, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	CountActiveBySlot(ctx context.Context, slotID string, now time.Time) (int, error)
	PerSlotUsage(ctx context.Context, slotIDs []string, now time.Time) (map[string]int, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Reservation]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Reservation {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Reservation](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func (repo *repositoryImpl) upsert(ctx context.Context, ext sqlx.ExtContext, mod model.Reservation) (model.Reservation, error) {
	rows, err := sqlx.NamedQueryContext(ctx, ext, upsertQuery, mod)
	if err != nil {
		logger.ErrorWithStack(err)

		return model.Reservation{}, fmt.Errorf("failed to upsert data (%s): %w", model.EntityName, err)
	}
	defer rows.Close()

	var result model.Reservation

	if rows.Next() {
		if err := rows.StructScan(&result); err != nil {
			logger.ErrorWithStack(err)

			return model.Reservation{}, fmt.Errorf("failed to scan upserted data (%s): %w", model.EntityName, err)
		}
	}

	if err := rows.Err(); err != nil {
		logger.ErrorWithStack(err)

		return model.Reservation{}, fmt.Errorf("failed to upsert data (%s): %w", model.EntityName, err)
	}

	return result, nil
}

func (repo *repositoryImpl) Upsert(ctx context.Context, mod model.Reservation) (res model.Reservation, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.Upsert")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelQueryAttributeKey, upsertQuery)

	return repo.upsert(ctx, repo.db.Write, mod)
}

// UpsertWithCapacity re-validates capacity atomically with the write. The
// advisory lock serializes writers on the same slot so two concurrent
// promotions cannot both pass the count check and over-book the last seat.
// A nil capacity skips the guard entirely.
func (repo *repositoryImpl) UpsertWithCapacity(ctx context.Context, mod model.Reservation, capacity *int, now time.Time) (res model.Reservation, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.UpsertWithCapacity")
	defer scope.End()
	defer scope.TraceIfError(err)

	tx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)

		return res, fmt.Errorf("failed to begin transaction (%s): %w", model.EntityName, err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if capacity != nil {
		if _, err = tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", mod.SlotID); err != nil {
			logger.ErrorWithStack(err)

			return res, fmt.Errorf("failed to lock slot (%s): %w", model.EntityName, err)
		}

		// An existing row for this provider id already holds its seat, so it
		// is excluded from the count.
		query, args, inErr := sqlx.In(
			countActiveQuery+" AND provider_reservation_id <> ?",
			mod.SlotID, model.ActiveStatuses, now, mod.ProviderReservationID,
		)
		if inErr != nil {
			err = inErr
			logger.ErrorWithStack(err)

			return res, fmt.Errorf("failed to build capacity query (%s): %w", model.EntityName, err)
		}

		var active int
		if err = tx.GetContext(ctx, &active, tx.Rebind(query), args...); err != nil {
			logger.ErrorWithStack(err)

			return res, fmt.Errorf("failed to count active reservations (%s): %w", model.EntityName, err)
		}

		if active >= *capacity {
			err = ErrCapacityExceeded

			return res, err
		}
	}

	res, err = repo.upsert(ctx, tx, mod)
	if err != nil {
		return res, err
	}

	if err = tx.Commit(); err != nil {
		logger.ErrorWithStack(err)

		return res, fmt.Errorf("failed to commit transaction (%s): %w", model.EntityName, err)
	}

	return res, nil
}

func (repo *repositoryImpl) CountActiveBySlot(ctx context.Context, slotID string, now time.Time) (count int, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.CountActiveBySlot")
	defer scope.End()
	defer scope.TraceIfError(err)

	query, args, err := sqlx.In(countActiveQuery, slotID, model.ActiveStatuses, now)
	if err != nil {
		logger.ErrorWithStack(err)

		return 0, fmt.Errorf("failed to build count query (%s): %w", model.EntityName, err)
	}

	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	if err = repo.db.Read.GetContext(ctx, &count, repo.db.Read.Rebind(query), args...); err != nil {
		logger.ErrorWithStack(err)

		return 0, fmt.Errorf("failed to count active reservations (%s): %w", model.EntityName, err)
	}

	return count, nil
}

// PerSlotUsage omits slots with zero active reservations; callers treat a
// missing key as zero.
func (repo *repositoryImpl) PerSlotUsage(ctx context.Context, slotIDs []string, now time.Time) (usage map[string]int, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.PerSlotUsage")
	defer scope.End()
	defer scope.TraceIfError(err)

	usage = map[string]int{}

	if len(slotIDs) == 0 {
		return usage, nil
	}

	query, args, err := sqlx.In(perSlotUsageQuery, slotIDs, model.ActiveStatuses, now)
	if err != nil {
		logger.ErrorWithStack(err)

		return usage, fmt.Errorf("failed to build usage query (%s): %w", model.EntityName, err)
	}

	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	rows := []struct {
		SlotID      string `db:"slot_id"`
		BookedCount int    `db:"booked_count"`
	}{}

	if err = repo.db.Read.SelectContext(ctx, &rows, repo.db.Read.Rebind(query), args...); err != nil {
		logger.ErrorWithStack(err)

		return usage, fmt.Errorf("failed to get slot usage (%s): %w", model.EntityName, err)
	}

	for _, row := range rows {
		usage[row.SlotID] = row.BookedCount
	}

	return usage, nil
}
