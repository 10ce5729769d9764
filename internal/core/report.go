package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateRange selects the time window of a sales report. Cutoffs are computed
// from the given "now" at evaluation time: today is the local-midnight
// boundary, week and month are rolling 7×24h / 30×24h windows (not
// calendar-aligned).
type DateRange string

const (
	RangeToday DateRange = "today"
	RangeWeek  DateRange = "week"
	RangeMonth DateRange = "month"
	RangeAll   DateRange = "all"
)

// ParseDateRange validates s against the closed range set.
func ParseDateRange(s string) (DateRange, error) {
	r := DateRange(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RangeToday, RangeWeek, RangeMonth, RangeAll:
		return r, nil
	}
	return "", fmt.Errorf("unknown date range %q", s)
}

// PaymentFilter narrows a report to one payment method, or passes everything.
type PaymentFilter string

// FilterAll passes every sale regardless of payment method.
const FilterAll PaymentFilter = "all"

// ParsePaymentFilter validates s as "all" or one of the payment methods.
func ParsePaymentFilter(s string) (PaymentFilter, error) {
	f := PaymentFilter(strings.ToLower(strings.TrimSpace(s)))
	if f == FilterAll {
		return f, nil
	}
	if _, err := ParsePaymentMethod(string(f)); err != nil {
		return "", fmt.Errorf("unknown payment filter %q", s)
	}
	return f, nil
}

// ChartPoint is one bucket of the report's chart series.
type ChartPoint struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// Report is the aggregate view of a filtered slice of the sale history.
// TotalReceived and TotalPending partition the filtered sales: pending
// totals never overlap with received ones.
type Report struct {
	Filtered      []Sale          `json:"filtered_sales"`
	TotalReceived decimal.Decimal `json:"total_received"`
	TotalPending  decimal.Decimal `json:"total_pending"`
	Count         int             `json:"sales_count"`
	Series        []ChartPoint    `json:"chart_series"`
}

// Shop opening window used for the hourly (today) chart series.
const (
	chartOpenHour  = 8
	chartCloseHour = 21
)

// BuildReport is a pure function of (sales, range, filter, now). It never
// mutates its inputs; the instant "now" is injected so callers and tests
// control the wall clock.
func BuildReport(sales []Sale, r DateRange, f PaymentFilter, now time.Time) Report {
	cutoff, bounded := rangeCutoff(r, now)

	var filtered []Sale
	for _, s := range sales {
		if bounded && s.Timestamp.Before(cutoff) {
			continue
		}
		if f != FilterAll && s.PaymentMethod != PaymentMethod(f) {
			continue
		}
		filtered = append(filtered, s)
	}

	rep := Report{
		Filtered:      filtered,
		TotalReceived: decimal.Zero,
		TotalPending:  decimal.Zero,
		Count:         len(filtered),
	}
	for _, s := range filtered {
		if s.PaymentMethod == PaymentPending {
			rep.TotalPending = rep.TotalPending.Add(s.Total)
		} else {
			rep.TotalReceived = rep.TotalReceived.Add(s.Total)
		}
	}
	rep.Series = buildSeries(filtered, r, now)
	return rep
}

func rangeCutoff(r DateRange, now time.Time) (time.Time, bool) {
	switch r {
	case RangeToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case RangeWeek:
		return now.Add(-7 * 24 * time.Hour), true
	case RangeMonth:
		return now.Add(-30 * 24 * time.Hour), true
	}
	return time.Time{}, false
}

func buildSeries(sales []Sale, r DateRange, now time.Time) []ChartPoint {
	switch r {
	case RangeToday:
		return hourlySeries(sales, now.Location())
	case RangeWeek:
		return dailySeries(sales, now, 7)
	case RangeMonth:
		return dailySeries(sales, now, 30)
	}
	return lazyDailySeries(sales, now.Location())
}

// hourlySeries buckets sale totals by local hour across the fixed opening
// window. Hours with no sales stay at zero instead of being omitted.
func hourlySeries(sales []Sale, loc *time.Location) []ChartPoint {
	points := make([]ChartPoint, 0, chartCloseHour-chartOpenHour+1)
	for h := chartOpenHour; h <= chartCloseHour; h++ {
		points = append(points, ChartPoint{Label: fmt.Sprintf("%02dh", h), Value: decimal.Zero})
	}
	for _, s := range sales {
		h := s.Timestamp.In(loc).Hour()
		if h < chartOpenHour || h > chartCloseHour {
			continue
		}
		i := h - chartOpenHour
		points[i].Value = points[i].Value.Add(s.Total)
	}
	return points
}

// dailySeries pre-seeds one zero bucket per calendar day across the last
// `days` days (oldest first) and accumulates sale totals into them.
func dailySeries(sales []Sale, now time.Time, days int) []ChartPoint {
	points := make([]ChartPoint, 0, days)
	index := make(map[string]int, days)
	for i := days - 1; i >= 0; i-- {
		label := now.AddDate(0, 0, -i).Format("02/01")
		index[label] = len(points)
		points = append(points, ChartPoint{Label: label, Value: decimal.Zero})
	}
	for _, s := range sales {
		label := s.Timestamp.In(now.Location()).Format("02/01")
		if i, ok := index[label]; ok {
			points[i].Value = points[i].Value.Add(s.Total)
		}
	}
	return points
}

// lazyDailySeries buckets the all-time range per distinct day actually seen,
// with no pre-seeding and no gap-filling. Buckets are ordered
// chronologically by day.
func lazyDailySeries(sales []Sale, loc *time.Location) []ChartPoint {
	type bucket struct {
		day   time.Time
		total decimal.Decimal
	}
	index := make(map[string]int)
	var buckets []bucket
	for _, s := range sales {
		t := s.Timestamp.In(loc)
		key := t.Format("2006-01-02")
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			y, m, d := t.Date()
			buckets = append(buckets, bucket{day: time.Date(y, m, d, 0, 0, 0, 0, loc), total: decimal.Zero})
		}
		buckets[i].total = buckets[i].total.Add(s.Total)
	}
	sort.Slice(buckets, func(a, b int) bool { return buckets[a].day.Before(buckets[b].day) })

	points := make([]ChartPoint, len(buckets))
	for i, b := range buckets {
		points[i] = ChartPoint{Label: b.day.Format("02/01"), Value: b.total}
	}
	return points
}

// LowStockThreshold is the per-product stock count below which a product is
// flagged for replenishment.
const LowStockThreshold = 5

// lowStockAlertMin is how many low-stock products it takes to raise the
// aggregate alert. A count-of-counts threshold, not a non-zero check.
const lowStockAlertMin = 5

// LowStockCount returns how many products sit below the low-stock threshold.
func LowStockCount(products []Product) int {
	n := 0
	for _, p := range products {
		if p.Stock < LowStockThreshold {
			n++
		}
	}
	return n
}

// LowStockProducts returns the products below the low-stock threshold.
func LowStockProducts(products []Product) []Product {
	var out []Product
	for _, p := range products {
		if p.Stock < LowStockThreshold {
			out = append(out, p)
		}
	}
	return out
}

// LowStockAlert reports whether the aggregate low-stock alert is active.
func LowStockAlert(products []Product) bool {
	return LowStockCount(products) >= lowStockAlertMin
}
