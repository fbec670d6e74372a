package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stamped struct {
	name string
	at   time.Time
}

func ts(s stamped) time.Time { return s.at }

// A fixed mid-month reference keeps day arithmetic predictable.
var now = time.Date(2025, time.June, 15, 14, 30, 0, 0, time.UTC)

func labels[T any](buckets []Bucket[T]) []string {
	out := make([]string, len(buckets))
	for i, b := range buckets {
		out[i] = b.Label
	}
	return out
}

func TestGroup_Labels(t *testing.T) {
	tests := []struct {
		name     string
		at       time.Time
		expected string
	}{
		{"exactly now", now, LabelToday},
		{"earlier today", now.Add(-5 * time.Hour), LabelToday},
		{
			// 25 hours before now but only one calendar day back.
			"25 hours ago on previous calendar day",
			time.Date(2025, time.June, 14, 13, 30, 0, 0, time.UTC),
			LabelYesterday,
		},
		{"three days ago", now.AddDate(0, 0, -3), LabelPrevWeek},
		{"seven days ago", now.AddDate(0, 0, -7), LabelPrevWeek},
		{"earlier this month", time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC), LabelThisMonth},
		{"two months ago", time.Date(2025, time.April, 20, 8, 0, 0, 0, time.UTC), "April 2025"},
		{"fourteen months ago", time.Date(2024, time.April, 2, 8, 0, 0, 0, time.UTC), "April 2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buckets := Group([]stamped{{at: tt.at}}, ts, now)
			require.Len(t, buckets, 1)
			assert.Equal(t, tt.expected, buckets[0].Label)
		})
	}
}

func TestGroup_EmissionOrder(t *testing.T) {
	items := []stamped{
		{"old", time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)},
		{"this month", time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)},
		{"today", now},
		{"less old", time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)},
		{"yesterday", now.AddDate(0, 0, -1)},
		{"last week", now.AddDate(0, 0, -5)},
	}

	buckets := Group(items, ts, now)

	assert.Equal(t, []string{
		LabelToday,
		LabelYesterday,
		LabelPrevWeek,
		LabelThisMonth,
		"January 2025",
		"March 2024",
	}, labels(buckets))
}

func TestGroup_StableWithinBucket(t *testing.T) {
	items := []stamped{
		{"first", now.Add(-1 * time.Hour)},
		{"second", now.Add(-30 * time.Minute)},
		{"third", now.Add(-2 * time.Hour)},
	}

	buckets := Group(items, ts, now)
	require.Len(t, buckets, 1)

	names := make([]string, len(buckets[0].Items))
	for i, item := range buckets[0].Items {
		names[i] = item.name
	}
	assert.Equal(t, []string{"first", "second", "third"}, names)
}

func TestGroup_OmitsEmptyBuckets(t *testing.T) {
	buckets := Group([]stamped{{at: now}}, ts, now)
	assert.Equal(t, []string{LabelToday}, labels(buckets))
}

func TestGroup_NoItems(t *testing.T) {
	assert.Empty(t, Group(nil, ts, now))
}
