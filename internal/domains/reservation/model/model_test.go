package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"berth/internal/domains/reservation/model"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want model.Status
		ok   bool
	}{
		{"pending", model.StatusPending, true},
		{"REQUESTED", model.StatusPending, true},
		{"accepted", model.StatusAccepted, true},
		{"Confirmed", model.StatusAccepted, true},
		{"BOOKED", model.StatusAccepted, true},
		{"declined", model.StatusRejected, true},
		{"canceled", model.StatusCancelled, true},
		{" cancelled ", model.StatusCancelled, true},
		{"no_show", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, ok := model.ParseStatus(tc.raw)

			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, model.StatusPending.CanTransition(model.StatusAccepted))
	assert.True(t, model.StatusPending.CanTransition(model.StatusRejected))
	assert.True(t, model.StatusAccepted.CanTransition(model.StatusCancelled))

	assert.False(t, model.StatusPending.CanTransition(model.StatusCancelled))
	assert.False(t, model.StatusAccepted.CanTransition(model.StatusPending))
	assert.False(t, model.StatusRejected.CanTransition(model.StatusAccepted))
	assert.False(t, model.StatusCancelled.CanTransition(model.StatusAccepted))
}

func TestIsActive(t *testing.T) {
	assert.False(t, model.StatusPending.IsActive())
	assert.True(t, model.StatusAccepted.IsActive())
	assert.False(t, model.StatusRejected.IsActive())
	assert.False(t, model.StatusCancelled.IsActive())
}

func TestSummarize(t *testing.T) {
	t.Run("free seats from capacity", func(t *testing.T) {
		capacity := 10

		summary := model.Summarize(&capacity, 4)

		require.NotNil(t, summary.FreeSeats)
		assert.Equal(t, 6, *summary.FreeSeats)
		assert.Equal(t, 4, summary.BookedCount)
	})

	t.Run("nil capacity means unlimited", func(t *testing.T) {
		summary := model.Summarize(nil, 4)

		assert.Nil(t, summary.Capacity)
		assert.Nil(t, summary.FreeSeats)
		assert.Equal(t, 4, summary.BookedCount)
	})

	t.Run("over-booked slot clamps to zero", func(t *testing.T) {
		capacity := 3

		summary := model.Summarize(&capacity, 5)

		require.NotNil(t, summary.FreeSeats)
		assert.Zero(t, *summary.FreeSeats)
	})
}

func TestRawPayloadScanValue(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		payload := model.RawPayload{"uid": "uid-999", "source": "webhook"}

		value, err := payload.Value()
		require.NoError(t, err)

		var scanned model.RawPayload
		require.NoError(t, scanned.Scan(value))

		assert.Equal(t, payload, scanned)
	})

	t.Run("nil column scans to empty map", func(t *testing.T) {
		var scanned model.RawPayload

		require.NoError(t, scanned.Scan(nil))
		assert.NotNil(t, scanned)
		assert.Empty(t, scanned)
	})
}
