// Package report turns per-day outcome subtotals and raw incomes into the
// aligned series shown on the report page.
package report

import (
	"slices"

	"moneygr/internal/core"
)

// Granularity is the period unit used to bucket a series.
type Granularity int

const (
	Daily Granularity = iota
	Monthly
)

// maxDailyEntries is the largest number of daily entries still shown day by day.
const maxDailyEntries = 31

func (g Granularity) String() string {
	if g == Monthly {
		return "monthly"
	}
	return "daily"
}

// GranularityFor picks Daily for spans of up to 31 distinct days, Monthly otherwise.
func GranularityFor(daily []core.SummaryByDate) Granularity {
	if len(daily) <= maxDailyEntries {
		return Daily
	}
	return Monthly
}

// Series holds the two aligned series, most recent period first.
type Series struct {
	Granularity Granularity
	Outcomes    []core.SummaryByDate
	Incomes     []core.IncomeSummary
}

// Summarize aligns incomes to the outcome series.
//
// daily must be date ascending with unique dates, as returned by
// ReportByDate. Income keys are exactly the outcome keys: an income whose
// period has no outcome entry is dropped and contributes to no bucket.
// Neither input is modified.
func Summarize(daily []core.SummaryByDate, incomes []core.Income, g Granularity) Series {
	var outcomes []core.SummaryByDate
	if g == Monthly {
		outcomes = SummarizeByMonth(daily)
	} else {
		outcomes = append(make([]core.SummaryByDate, 0, len(daily)), daily...)
		slices.Reverse(outcomes)
	}
	return Series{
		Granularity: g,
		Outcomes:    outcomes,
		Incomes:     summarizeIncome(incomes, outcomes, g),
	}
}

// SummarizeByMonth collapses daily subtotals into one entry per calendar
// month keyed by its first day, sorted newest month first.
func SummarizeByMonth(daily []core.SummaryByDate) []core.SummaryByDate {
	index := make(map[string]int)
	months := make([]core.SummaryByDate, 0)
	for _, d := range daily {
		key := d.OutcomeDate.FirstOfMonth()
		k := key.String()
		i, ok := index[k]
		if !ok {
			i = len(months)
			index[k] = i
			months = append(months, core.SummaryByDate{OutcomeDate: key})
		}
		months[i].SubTotal += d.SubTotal
	}
	slices.SortFunc(months, func(a, b core.SummaryByDate) int {
		return b.OutcomeDate.Compare(a.OutcomeDate.Time)
	})
	return months
}

// incomeBuckets is an ordered list of accumulators plus a key to position index.
type incomeBuckets struct {
	order []core.IncomeSummary
	index map[string]int
}

func newIncomeBuckets(outcomes []core.SummaryByDate) *incomeBuckets {
	b := &incomeBuckets{
		order: make([]core.IncomeSummary, 0, len(outcomes)),
		index: make(map[string]int, len(outcomes)),
	}
	for _, o := range outcomes {
		k := o.OutcomeDate.String()
		if _, dup := b.index[k]; dup {
			continue
		}
		b.index[k] = len(b.order)
		b.order = append(b.order, core.IncomeSummary{IncomeDate: o.OutcomeDate})
	}
	return b
}

// add reports whether key matched a seeded bucket.
func (b *incomeBuckets) add(key core.Date, amount int) bool {
	i, ok := b.index[key.String()]
	if !ok {
		return false
	}
	b.order[i].SubTotal += int64(amount)
	return true
}

func summarizeIncome(incomes []core.Income, outcomes []core.SummaryByDate, g Granularity) []core.IncomeSummary {
	buckets := newIncomeBuckets(outcomes)
	for _, in := range incomes {
		buckets.add(periodKey(in.Date, g), in.Amount)
	}
	return buckets.order
}

func periodKey(d core.Date, g Granularity) core.Date {
	if g == Monthly {
		return d.FirstOfMonth()
	}
	return d
}
