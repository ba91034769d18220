package repository_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	otelMocks "berth/infras/otel/mocks"
	"berth/infras/postgres"
	"berth/internal/domains/reservation/model"
	"berth/internal/domains/reservation/repository"
	sharedModel "berth/shared/model"
)

// Mirrors migrations/postgres/000002_create_reservations.up.sql so the suite
// can run against a throwaway database without the migration CLI.
const createReservationsTable = `
CREATE TABLE IF NOT EXISTS reservations (
    id VARCHAR(64) PRIMARY KEY,
    slot_id VARCHAR(64) NOT NULL,
    registrant_id VARCHAR(64),
    provider_reservation_id VARCHAR(128) NOT NULL,
    attendee_name VARCHAR(100) NOT NULL DEFAULT '',
    attendee_email VARCHAR(100) NOT NULL DEFAULT '',
    slot_start TIMESTAMPTZ,
    slot_end TIMESTAMPTZ,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    raw JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_by VARCHAR(64),
    modified_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    modified_by VARCHAR(64),
    CONSTRAINT uq_reservations_provider_reservation_id UNIQUE (provider_reservation_id)
)`

func newTestRepository(t *testing.T) (repository.Reservation, *sqlx.DB) {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set, skipping postgres integration tests")
	}

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	_, err = db.Exec(createReservationsTable)
	require.NoError(t, err)

	_, err = db.Exec("DELETE FROM reservations")
	require.NoError(t, err)

	conn := &postgres.Connection{Read: db, Write: db}

	return repository.New(conn, otelMocks.NewOtel()), db
}

func seatRow(slotID, providerID string, status model.Status) model.Reservation {
	now := time.Now().UTC()

	return model.Reservation{
		ID:                    uuid.NewString(),
		SlotID:                slotID,
		ProviderReservationID: providerID,
		AttendeeName:          "Jo",
		AttendeeEmail:         "jo@example.org",
		Status:                status,
		Raw:                   model.RawPayload{},
		Metadata: sharedModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  "test",
			ModifiedBy: "test",
		},
	}
}

func countRows(t *testing.T, db *sqlx.DB, slotID string) int {
	t.Helper()

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(id) FROM reservations WHERE slot_id = $1", slotID))

	return count
}

func TestReservationRepository_Upsert(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()

	t.Run("conflict refreshes mutable fields and merges raw", func(t *testing.T) {
		start := time.Date(2025, 10, 22, 9, 0, 0, 0, time.UTC)

		first := seatRow("slot-upsert", "uid-1", model.StatusPending)
		first.SlotStart = &start
		first.Raw = model.RawPayload{"source": "api", "uid": "uid-1"}

		stored, err := repo.Upsert(ctx, first)
		require.NoError(t, err)

		// A later partial delivery for the same provider id: no attendee
		// fields, no slot start, a new status and fresh raw keys.
		second := seatRow("slot-upsert", "uid-1", model.StatusAccepted)
		second.AttendeeName = ""
		second.AttendeeEmail = ""
		second.Raw = model.RawPayload{"checksum": "abc"}

		merged, err := repo.Upsert(ctx, second)
		require.NoError(t, err)

		assert.Equal(t, stored.ID, merged.ID)
		assert.Equal(t, "Jo", merged.AttendeeName)
		assert.Equal(t, "jo@example.org", merged.AttendeeEmail)
		assert.Equal(t, model.StatusAccepted, merged.Status)
		require.NotNil(t, merged.SlotStart)
		assert.Equal(t, start, merged.SlotStart.UTC())

		assert.Equal(t, "api", merged.Raw["source"])
		assert.Equal(t, "uid-1", merged.Raw["uid"])
		assert.Equal(t, "abc", merged.Raw["checksum"])

		assert.Equal(t, 1, countRows(t, db, "slot-upsert"))
	})
}

func TestReservationRepository_UpsertWithCapacity(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	one := 1

	t.Run("rejects when the slot is full", func(t *testing.T) {
		_, err := repo.Upsert(ctx, seatRow("slot-full", "uid-full-1", model.StatusAccepted))
		require.NoError(t, err)

		_, err = repo.UpsertWithCapacity(ctx, seatRow("slot-full", "uid-full-2", model.StatusAccepted), &one, now)

		require.ErrorIs(t, err, repository.ErrCapacityExceeded)
		assert.Equal(t, 1, countRows(t, db, "slot-full"))
	})

	t.Run("existing row does not count against itself", func(t *testing.T) {
		_, err := repo.Upsert(ctx, seatRow("slot-self", "uid-self", model.StatusAccepted))
		require.NoError(t, err)

		update := seatRow("slot-self", "uid-self", model.StatusAccepted)

		_, err = repo.UpsertWithCapacity(ctx, update, &one, now)

		require.NoError(t, err)
		assert.Equal(t, 1, countRows(t, db, "slot-self"))
	})

	t.Run("pending rows hold no seat", func(t *testing.T) {
		_, err := repo.Upsert(ctx, seatRow("slot-pending", "uid-pending", model.StatusPending))
		require.NoError(t, err)

		_, err = repo.UpsertWithCapacity(ctx, seatRow("slot-pending", "uid-pending-2", model.StatusAccepted), &one, now)

		require.NoError(t, err)
		assert.Equal(t, 2, countRows(t, db, "slot-pending"))
	})

	t.Run("nil capacity skips the guard", func(t *testing.T) {
		_, err := repo.Upsert(ctx, seatRow("slot-unbounded", "uid-unbounded-1", model.StatusAccepted))
		require.NoError(t, err)

		_, err = repo.UpsertWithCapacity(ctx, seatRow("slot-unbounded", "uid-unbounded-2", model.StatusAccepted), nil, now)

		require.NoError(t, err)
		assert.Equal(t, 2, countRows(t, db, "slot-unbounded"))
	})

	t.Run("concurrent writers on one remaining seat", func(t *testing.T) {
		var wg sync.WaitGroup

		errs := make([]error, 2)

		for i := range errs {
			wg.Add(1)

			go func() {
				defer wg.Done()

				row := seatRow("slot-race", uuid.NewString(), model.StatusAccepted)
				_, errs[i] = repo.UpsertWithCapacity(ctx, row, &one, now)
			}()
		}

		wg.Wait()

		var won, lost int

		for _, err := range errs {
			switch {
			case err == nil:
				won++
			case assert.ErrorIs(t, err, repository.ErrCapacityExceeded):
				lost++
			}
		}

		assert.Equal(t, 1, won)
		assert.Equal(t, 1, lost)
		assert.Equal(t, 1, countRows(t, db, "slot-race"))
	})
}

func TestReservationRepository_Counts(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	past := now.Add(-time.Hour)

	accepted := seatRow("slot-count", "uid-count-1", model.StatusAccepted)
	pending := seatRow("slot-count", "uid-count-2", model.StatusPending)
	cancelled := seatRow("slot-count", "uid-count-3", model.StatusCancelled)
	stale := seatRow("slot-count", "uid-count-4", model.StatusAccepted)
	stale.SlotStart = &past

	for _, row := range []model.Reservation{accepted, pending, cancelled, stale} {
		_, err := repo.Upsert(ctx, row)
		require.NoError(t, err)
	}

	other := seatRow("slot-count-other", "uid-count-5", model.StatusAccepted)
	_, err := repo.Upsert(ctx, other)
	require.NoError(t, err)

	t.Run("count active excludes inactive and elapsed rows", func(t *testing.T) {
		count, err := repo.CountActiveBySlot(ctx, "slot-count", now)

		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("per slot usage groups by slot and omits empty slots", func(t *testing.T) {
		usage, err := repo.PerSlotUsage(ctx, []string{"slot-count", "slot-count-other", "slot-empty"}, now)

		require.NoError(t, err)
		assert.Equal(t, map[string]int{"slot-count": 1, "slot-count-other": 1}, usage)
	})

	require.Equal(t, 5, countRows(t, db, "slot-count")+countRows(t, db, "slot-count-other"))
}
