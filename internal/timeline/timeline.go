// Package timeline groups timestamped records into named display buckets
// relative to a reference time.
package timeline

import (
	"fmt"
	"sort"
	"time"
)

// Fixed bucket labels, in emission order.
const (
	LabelToday      = "Today"
	LabelYesterday  = "Yesterday"
	LabelPrevWeek   = "Previous 7 days"
	LabelThisMonth  = "This Month"
)

// Bucket is a labeled, ordered group of items.
type Bucket[T any] struct {
	Label string
	Items []T
}

// monthKey orders dynamic month/year buckets.
type monthKey struct {
	year  int
	month time.Month
}

// Group buckets items by their timestamp relative to now. Labels are chosen
// by precedence, first match wins:
//
//  1. Same calendar day as now: "Today"
//  2. Exactly one calendar day before: "Yesterday" (calendar difference,
//     not 24h rounding)
//  3. Within seven elapsed days: "Previous 7 days"
//  4. Same calendar month and year as now: "This Month"
//  5. Otherwise: "<Month name> <Year>" of the item's timestamp
//
// Items keep their original relative order inside each bucket. Only
// non-empty buckets are emitted; fixed labels come first in precedence
// order, then month/year buckets newest-first.
func Group[T any](items []T, at func(T) time.Time, now time.Time) []Bucket[T] {
	var (
		today, yesterday, prevWeek, thisMonth []T

		monthly      = make(map[monthKey][]T)
		monthlyOrder []monthKey
	)

	for _, item := range items {
		ts := at(item)

		switch {
		case sameDay(ts, now):
			today = append(today, item)
		case calendarDaysBetween(ts, now) == 1:
			yesterday = append(yesterday, item)
		case daysBetweenInRange(ts, now, 7):
			prevWeek = append(prevWeek, item)
		case ts.Month() == now.Month() && ts.Year() == now.Year():
			thisMonth = append(thisMonth, item)
		default:
			key := monthKey{year: ts.Year(), month: ts.Month()}
			if _, seen := monthly[key]; !seen {
				monthlyOrder = append(monthlyOrder, key)
			}
			monthly[key] = append(monthly[key], item)
		}
	}

	buckets := make([]Bucket[T], 0, 4+len(monthlyOrder))
	for _, b := range []Bucket[T]{
		{Label: LabelToday, Items: today},
		{Label: LabelYesterday, Items: yesterday},
		{Label: LabelPrevWeek, Items: prevWeek},
		{Label: LabelThisMonth, Items: thisMonth},
	} {
		if len(b.Items) > 0 {
			buckets = append(buckets, b)
		}
	}

	// Dynamic buckets newest-first.
	sort.Slice(monthlyOrder, func(i, j int) bool {
		a, b := monthlyOrder[i], monthlyOrder[j]
		if a.year != b.year {
			return a.year > b.year
		}
		return a.month > b.month
	})

	for _, key := range monthlyOrder {
		buckets = append(buckets, Bucket[T]{
			Label: fmt.Sprintf("%s %d", key.month.String(), key.year),
			Items: monthly[key],
		})
	}

	return buckets
}

// sameDay reports whether two times fall on the same calendar day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// calendarDaysBetween returns the number of calendar-day boundaries between
// ts and now. A timestamp late yesterday is 1 day away even if fewer than 24
// hours have elapsed.
func calendarDaysBetween(ts, now time.Time) int {
	tsDay := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return int(nowDay.Sub(tsDay) / (24 * time.Hour))
}

// daysBetweenInRange reports whether ts is between 2 and limit calendar days
// before now. Same-day and one-day-old items are claimed by earlier buckets.
func daysBetweenInRange(ts, now time.Time, limit int) bool {
	d := calendarDaysBetween(ts, now)
	return d >= 2 && d <= limit
}
