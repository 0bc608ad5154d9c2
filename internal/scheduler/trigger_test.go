package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var wib = time.FixedZone("WIB", 7*3600)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, wib)
}

func TestDailyNextAfter(t *testing.T) {
	t.Parallel()

	tr := Trigger{Kind: KindDaily, At: TimeOfDay{Hour: 2}}
	require.Equal(t, at(2025, 5, 16, 2, 0), tr.NextAfter(at(2025, 5, 16, 1, 0)))
	require.Equal(t, at(2025, 5, 17, 2, 0), tr.NextAfter(at(2025, 5, 16, 3, 0)))
	require.Equal(t, at(2025, 5, 17, 2, 0), tr.NextAfter(at(2025, 5, 16, 2, 0)))
}

func TestWeeklyNextAfter(t *testing.T) {
	t.Parallel()

	tr := Trigger{Kind: KindWeekly, Weekday: time.Monday, At: TimeOfDay{Hour: 8}}
	// 2025-05-16 is a Friday.
	require.Equal(t, at(2025, 5, 19, 8, 0), tr.NextAfter(at(2025, 5, 16, 10, 0)))
	require.Equal(t, at(2025, 5, 19, 8, 0), tr.NextAfter(at(2025, 5, 19, 7, 59)))
	require.Equal(t, at(2025, 5, 26, 8, 0), tr.NextAfter(at(2025, 5, 19, 8, 0)))
	require.Equal(t, at(2025, 5, 26, 8, 0), tr.NextAfter(at(2025, 5, 20, 0, 0)))
}

func TestIntervalNextAfter(t *testing.T) {
	t.Parallel()

	tr := Trigger{Kind: KindInterval, Every: 6 * time.Hour}
	require.Equal(t, at(2025, 5, 16, 16, 30), tr.NextAfter(at(2025, 5, 16, 10, 30)))
}

func TestDue(t *testing.T) {
	t.Parallel()

	tr := Trigger{Next: at(2025, 5, 16, 2, 0)}
	require.False(t, tr.Due(at(2025, 5, 16, 1, 59)))
	require.True(t, tr.Due(at(2025, 5, 16, 2, 0)))
	require.True(t, tr.Due(at(2025, 5, 16, 9, 0)))
	require.False(t, Trigger{}.Due(at(2025, 5, 16, 9, 0)))
}

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	got, err := ParseTimeOfDay(" 08:30 ")
	require.NoError(t, err)
	require.Equal(t, TimeOfDay{Hour: 8, Minute: 30}, got)
	require.Equal(t, "08:30", got.String())

	_, err = ParseTimeOfDay("25:00")
	require.Error(t, err)
}

func TestParseWeekday(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]time.Weekday{
		"monday": time.Monday,
		"Mon":    time.Monday,
		"SUNDAY": time.Sunday,
		"fri":    time.Friday,
	} {
		got, err := ParseWeekday(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseWeekday("senin")
	require.Error(t, err)
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	require.Equal(t, "every day at 02:00", Trigger{Kind: KindDaily, At: TimeOfDay{Hour: 2}}.Describe())
	require.Equal(t, "every Monday at 08:00",
		Trigger{Kind: KindWeekly, Weekday: time.Monday, At: TimeOfDay{Hour: 8}}.Describe())
	require.Equal(t, "every 6h0m0s", Trigger{Kind: KindInterval, Every: 6 * time.Hour}.Describe())
}
