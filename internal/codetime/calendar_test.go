package codetime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivities_PadsYear(t *testing.T) {
	svc, _, store := newTestService(t, date(2025, time.August, 1, 12, 0, 0))
	putDay(t, store, "2025-07-04", 240)

	cal, err := svc.Activities(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, []CalendarDay{
		{Date: "2025-01-01", Count: 0, Level: 0},
		{Date: "2025-07-04", Count: 240, Level: 3},
		{Date: "2025-12-31", Count: 0, Level: 0},
	}, cal.Data)
	assert.Equal(t, 2025, cal.FirstYear)
}

func TestActivities_NoPaddingWhenBoundsPresent(t *testing.T) {
	svc, _, store := newTestService(t, date(2025, time.August, 1, 12, 0, 0))
	putDay(t, store, "2024-01-01", 59)
	putDay(t, store, "2024-06-01", 600)
	putDay(t, store, "2024-12-31", 61)

	cal, err := svc.Activities(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, cal.Data, 3)
	assert.Equal(t, CalendarDay{Date: "2024-01-01", Count: 59, Level: 1}, cal.Data[0])
	assert.Equal(t, 6, cal.Data[1].Level)
	assert.Equal(t, CalendarDay{Date: "2024-12-31", Count: 61, Level: 2}, cal.Data[2])
}

func TestActivities_OnlyRequestedYear(t *testing.T) {
	svc, _, store := newTestService(t, date(2025, time.August, 1, 12, 0, 0))
	putDay(t, store, "2022-03-01", 10)
	putDay(t, store, "2024-12-31", 10)
	putDay(t, store, "2025-01-01", 10)
	putDay(t, store, "2026-01-01", 10)

	cal, err := svc.Activities(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, cal.Data, 2)
	assert.Equal(t, "2025-01-01", cal.Data[0].Date)
	assert.Equal(t, 10, cal.Data[0].Count)
	assert.Equal(t, "2025-12-31", cal.Data[1].Date)
	assert.Equal(t, 2022, cal.FirstYear, "first year comes from the whole history")
}

func TestActivities_EmptyYearIsNotAnError(t *testing.T) {
	svc, _, store := newTestService(t, date(2025, time.August, 1, 12, 0, 0))
	putDay(t, store, "2023-05-05", 10)

	cal, err := svc.Activities(context.Background(), 2019)
	require.NoError(t, err)
	assert.NotNil(t, cal.Data)
	assert.Empty(t, cal.Data)
	assert.Equal(t, 2023, cal.FirstYear)
}

func TestActivities_EmptyStoreFallsBackToRequestedYear(t *testing.T) {
	svc, _, _ := newTestService(t, date(2025, time.August, 1, 12, 0, 0))

	cal, err := svc.Activities(context.Background(), 2019)
	require.NoError(t, err)
	assert.Empty(t, cal.Data)
	assert.Equal(t, 2019, cal.FirstYear)
}

func TestActivities_DefaultsToCurrentYear(t *testing.T) {
	svc, _, store := newTestService(t, date(2025, time.August, 1, 12, 0, 0))
	putDay(t, store, "2025-03-03", 10)

	cal, err := svc.Activities(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, cal.Data, 3)
	assert.Equal(t, "2025-01-01", cal.Data[0].Date)
	assert.Equal(t, "2025-03-03", cal.Data[1].Date)
}
