package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDay(t *testing.T) {
	t.Parallel()

	in := time.Date(2026, 3, 10, 17, 45, 12, 999, time.FixedZone("CET", 3600))
	require.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), Day(in))

	// Normalization happens in UTC, so a late local evening may land on the
	// next UTC day.
	late := time.Date(2026, 3, 10, 23, 30, 0, 0, time.FixedZone("CET", -3600))
	require.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), Day(late))
}

func TestDaysBetween(t *testing.T) {
	t.Parallel()

	checkIn := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 3, 13, 11, 0, 0, 0, time.UTC)

	days := DaysBetween(checkIn, checkOut)
	require.Equal(t, []time.Time{
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
	}, days)
	require.Equal(t, 3, Nights(checkIn, checkOut))

	require.Nil(t, DaysBetween(checkOut, checkIn))
	require.Nil(t, DaysBetween(checkIn, checkIn))

	// Month boundary.
	require.Len(t, DaysBetween(
		time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	), 3)
}

func TestReservationEffectiveStatus(t *testing.T) {
	t.Parallel()

	res := Reservation{
		Status:   ReservationStatusActive,
		CheckIn:  time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC),
	}

	require.Equal(t, ReservationStatusActive, res.EffectiveStatus(time.Date(2026, 3, 12, 23, 0, 0, 0, time.UTC)))
	require.Equal(t, ReservationStatusCompleted, res.EffectiveStatus(time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)))

	cancelled := res
	cancelled.Status = ReservationStatusCancelled
	require.Equal(t, ReservationStatusCancelled, cancelled.EffectiveStatus(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))

	require.False(t, res.Covers(time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)))
	require.True(t, res.Covers(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)))
	require.True(t, res.Covers(time.Date(2026, 3, 12, 23, 59, 0, 0, time.UTC)))
	require.False(t, res.Covers(time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)))
}
