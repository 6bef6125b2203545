package codetime

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/codetime/internal/storage"
)

func heartbeat(project string) Heartbeat {
	return Heartbeat{Project: project, RelativeFile: "internal/api/router.go", Language: "go"}
}

func assertWellFormed(t *testing.T, e *storage.DailyEntry) {
	t.Helper()
	assert.Equal(t, e.TotalMinutes, e.HourlySum(), "hourly must sum to total")
	assert.Equal(t, e.TotalMinutes, e.Projects.Sum(), "projects must sum to total")
	assert.Equal(t, e.TotalMinutes, e.Languages.Sum(), "languages must sum to total")
	assert.Equal(t, e.TotalMinutes, e.RelativeFiles.Sum(), "files must sum to total")
}

func TestMinuteMillis(t *testing.T) {
	at := date(2025, time.March, 10, 14, 37, 25).Add(123 * time.Millisecond)
	assert.Equal(t, date(2025, time.March, 10, 14, 37, 0).UnixMilli(), minuteMillis(at))
	assert.Equal(t, int64(0), minuteMillis(time.UnixMilli(59_999)))
	assert.Equal(t, int64(-60_000), minuteMillis(time.UnixMilli(-1)))
}

func TestRecord_CreatesDay(t *testing.T) {
	now := date(2025, time.March, 10, 14, 37, 25)
	svc, _, store := newTestService(t, now)
	ctx := context.Background()

	ack, err := svc.Record(ctx, heartbeat("codetime"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, ack.Outcome)
	assert.Equal(t, "2025-03-10", ack.Day)
	assert.Equal(t, date(2025, time.March, 10, 14, 37, 0).UnixMilli(), ack.Timestamp)
	assert.Equal(t, 1, ack.TotalMinutes)

	e, err := store.Get(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 1, e.Projects.Get("codetime"))
	assert.Equal(t, 1, e.Languages.Get("go"))
	assert.Equal(t, 1, e.RelativeFiles.Get("internal/api/router.go"))
	assert.Equal(t, map[int]int{14: 1}, e.Hourly)
	assert.Equal(t, ack.Timestamp, e.LastTimestamp)
	assertWellFormed(t, e)
}

func TestRecord_SameMinuteIsIdempotent(t *testing.T) {
	svc, clock, store := newTestService(t, date(2025, time.March, 10, 14, 37, 5))
	ctx := context.Background()

	_, err := svc.Record(ctx, heartbeat("codetime"))
	require.NoError(t, err)

	clock.Advance(40 * time.Second)
	ack, err := svc.Record(ctx, heartbeat("other"))
	require.NoError(t, err, "a duplicate minute is a success, not an error")
	assert.Equal(t, OutcomeDuplicate, ack.Outcome)
	assert.Equal(t, 1, ack.TotalMinutes)

	e, err := store.Get(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 1, e.TotalMinutes)
	assert.Equal(t, 0, e.Projects.Get("other"))
}

func TestRecord_DistinctMinutesIncrement(t *testing.T) {
	svc, clock, store := newTestService(t, date(2025, time.March, 10, 9, 58, 0))
	ctx := context.Background()

	var outcomes []Outcome
	for i := 0; i < 3; i++ {
		ack, err := svc.Record(ctx, heartbeat("codetime"))
		require.NoError(t, err)
		outcomes = append(outcomes, ack.Outcome)
		clock.Advance(time.Minute)
	}
	assert.Equal(t, []Outcome{OutcomeCreated, OutcomeIncremented, OutcomeIncremented}, outcomes)

	e, err := store.Get(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 3, e.Projects.Get("codetime"))
	assert.Equal(t, 3, e.TotalMinutes)
	assert.Equal(t, map[int]int{9: 2, 10: 1}, e.Hourly)
	assertWellFormed(t, e)
}

func TestRecord_GapCountsOneMinute(t *testing.T) {
	svc, clock, store := newTestService(t, date(2025, time.March, 10, 9, 0, 0))
	ctx := context.Background()

	_, err := svc.Record(ctx, heartbeat("codetime"))
	require.NoError(t, err)
	clock.Advance(10 * time.Minute)
	_, err = svc.Record(ctx, heartbeat("codetime"))
	require.NoError(t, err)

	e, err := store.Get(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 2, e.TotalMinutes)
}

func TestRecord_MixedDimensionsStayConsistent(t *testing.T) {
	svc, clock, store := newTestService(t, date(2025, time.March, 10, 22, 50, 0))
	ctx := context.Background()

	hbs := []Heartbeat{
		{Project: "api", RelativeFile: "a.go", Language: "go"},
		{Project: "web", RelativeFile: "b.ts", Language: "typescript"},
		{Project: "api", RelativeFile: "a_test.go", Language: "go"},
		{Project: "web", RelativeFile: "b.ts", Language: "typescript"},
	}
	for _, hb := range hbs {
		_, err := svc.Record(ctx, hb)
		require.NoError(t, err)
		clock.Advance(5 * time.Minute)
	}

	e, err := store.Get(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "web"}, e.Projects.Keys())
	assert.Equal(t, []string{"a.go", "b.ts", "a_test.go"}, e.RelativeFiles.Keys())
	assert.Equal(t, map[int]int{22: 2, 23: 2}, e.Hourly)
	assertWellFormed(t, e)
}

func TestRecord_NewDayStartsNewEntry(t *testing.T) {
	svc, clock, store := newTestService(t, date(2025, time.March, 10, 23, 59, 30))
	ctx := context.Background()

	_, err := svc.Record(ctx, heartbeat("codetime"))
	require.NoError(t, err)
	clock.Advance(time.Minute)
	ack, err := svc.Record(ctx, heartbeat("codetime"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, ack.Outcome)
	assert.Equal(t, "2025-03-11", ack.Day)

	all, err := store.Range(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRecord_UsesConfiguredLocation(t *testing.T) {
	tokyo := time.FixedZone("UTC+9", 9*60*60)
	svc, _, store := newTestService(t, date(2025, time.March, 10, 20, 30, 0), WithLocation(tokyo))
	ctx := context.Background()

	ack, err := svc.Record(ctx, heartbeat("codetime"))
	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", ack.Day)

	e, err := store.Get(ctx, "2025-03-11")
	require.NoError(t, err)
	assert.Equal(t, map[int]int{5: 1}, e.Hourly)
}

func TestRecord_RejectsUnusableFields(t *testing.T) {
	tests := []struct {
		name string
		hb   Heartbeat
		want string
	}{
		{"missing project", Heartbeat{RelativeFile: "a.go", Language: "go"}, "project is required"},
		{"blank language", Heartbeat{Project: "p", RelativeFile: "a.go", Language: "   "}, "language is required"},
		{"missing file", Heartbeat{Project: "p", Language: "go"}, "relativeFile is required"},
		{"placeholder file", Heartbeat{Project: "p", RelativeFile: "undefined", Language: "go"}, `relativeFile "undefined"`},
		{"placeholder any case", Heartbeat{Project: "NULL", RelativeFile: "a.go", Language: "go"}, `project "NULL"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, store := newTestService(t, date(2025, time.March, 10, 9, 0, 0))
			ctx := context.Background()

			_, err := svc.Record(ctx, tt.hb)
			require.ErrorIs(t, err, ErrInvalidArgument)
			assert.Contains(t, err.Error(), tt.want)

			all, err := store.Range(ctx, "", "")
			require.NoError(t, err)
			assert.Empty(t, all, "rejected heartbeats must not be stored")
		})
	}
}

func TestRecord_CustomRejectedValues(t *testing.T) {
	svc, _, _ := newTestService(t, date(2025, time.March, 10, 9, 0, 0), WithRejectedValues([]string{"scratch"}))
	ctx := context.Background()

	_, err := svc.Record(ctx, heartbeat("Scratch"))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Record(ctx, heartbeat("undefined"))
	assert.NoError(t, err, "defaults are replaced, not extended")
}

func TestRecord_TrimsValues(t *testing.T) {
	svc, _, store := newTestService(t, date(2025, time.March, 10, 9, 0, 0))
	ctx := context.Background()

	_, err := svc.Record(ctx, Heartbeat{Project: "  codetime ", RelativeFile: "a.go", Language: "go\n"})
	require.NoError(t, err)

	e, err := store.Get(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, []string{"codetime"}, e.Projects.Keys())
	assert.Equal(t, []string{"go"}, e.Languages.Keys())
}

func TestRecord_ConcurrentSameMinute(t *testing.T) {
	svc, _, store := newTestService(t, date(2025, time.March, 10, 9, 0, 0))
	ctx := context.Background()

	const editors = 16
	var created, duplicate atomic.Int32
	var g errgroup.Group
	for i := 0; i < editors; i++ {
		g.Go(func() error {
			ack, err := svc.Record(ctx, heartbeat("codetime"))
			if err != nil {
				return err
			}
			switch ack.Outcome {
			case OutcomeCreated:
				created.Add(1)
			case OutcomeDuplicate:
				duplicate.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(editors-1), duplicate.Load())

	e, err := store.Get(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 1, e.TotalMinutes)
}

func TestRecord_ConcurrentDaysAreIndependent(t *testing.T) {
	svc, _, store := newTestService(t, date(2025, time.March, 10, 9, 0, 0))
	ctx := context.Background()

	putDay(t, store, "2025-03-09", 5)

	var g errgroup.Group
	g.Go(func() error {
		_, err := svc.Record(ctx, heartbeat("codetime"))
		return err
	})
	g.Go(func() error {
		return store.Mutate(ctx, "2025-03-09", func(e *storage.DailyEntry, found bool) (bool, error) {
			e.Projects.Inc("codetime")
			e.Languages.Inc("go")
			e.RelativeFiles.Inc("main.go")
			e.Hourly[9]++
			e.TotalMinutes++
			return true, nil
		})
	})
	require.NoError(t, g.Wait())

	yesterday, err := store.Get(ctx, "2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, 6, yesterday.TotalMinutes)
	assertWellFormed(t, yesterday)

	today, err := store.Get(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 1, today.TotalMinutes)
}
