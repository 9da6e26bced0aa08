package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"moneygr/internal/core"
	"moneygr/internal/inout"
)

// Report is everything the report page and chart need for one date range.
type Report struct {
	Range            core.DateRange
	Stack            bool
	Series           Series
	ByParentCategory []core.SummaryByParentCategory

	OutcomeTotal int64
	IncomeTotal  int64
	Net          int64

	OutcomeGraphData  string
	IncomeGraphData   string
	CategoryGraphData string
}

// ErrEncode marks a chart series that could not be serialized.
var ErrEncode = errors.New("chart data encoding failed")

// marshal is swapped in tests to exercise the serialization failure path.
var marshal = json.Marshal

// Build summarizes the fetched data and serializes the chart series.
//
// OutcomeTotal is the sum of the daily subtotals. IncomeTotal sums every
// fetched income, including those the aligned series drops.
func Build(rng core.DateRange, stack bool, daily []core.SummaryByDate, byParent []core.SummaryByParentCategory, incomes []core.Income) (*Report, error) {
	if byParent == nil {
		byParent = []core.SummaryByParentCategory{}
	}
	r := &Report{
		Range:            rng,
		Stack:            stack,
		Series:           Summarize(daily, incomes, GranularityFor(daily)),
		ByParentCategory: byParent,
	}
	for _, d := range daily {
		r.OutcomeTotal += d.SubTotal
	}
	for _, in := range incomes {
		r.IncomeTotal += int64(in.Amount)
	}
	r.Net = r.IncomeTotal - r.OutcomeTotal

	var err error
	if r.OutcomeGraphData, err = toJSON(r.Series.Outcomes); err != nil {
		return nil, fmt.Errorf("encode outcome series: %w", err)
	}
	if r.IncomeGraphData, err = toJSON(r.Series.Incomes); err != nil {
		return nil, fmt.Errorf("encode income series: %w", err)
	}
	if r.CategoryGraphData, err = toJSON(byParent); err != nil {
		return nil, fmt.Errorf("encode category series: %w", err)
	}
	return r, nil
}

func toJSON(v any) (string, error) {
	b, err := marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return string(b), nil
}

// Service fetches report inputs from the query services.
type Service struct {
	outcomes inout.OutcomeQueryService
	incomes  inout.IncomeQueryService
}

func NewService(outcomes inout.OutcomeQueryService, incomes inout.IncomeQueryService) *Service {
	return &Service{outcomes: outcomes, incomes: incomes}
}

// Generate fetches the three inputs concurrently and builds the report. The
// first fetch error cancels the others and is returned.
func (s *Service) Generate(ctx context.Context, rng core.DateRange, stack bool) (*Report, error) {
	var (
		daily    []core.SummaryByDate
		byParent []core.SummaryByParentCategory
		incomes  []core.Income
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		daily, err = s.outcomes.ReportByDate(gctx, rng.From, rng.To)
		if err != nil {
			return fmt.Errorf("report by date: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		byParent, err = s.outcomes.ReportByParentCategory(gctx, rng.From, rng.To)
		if err != nil {
			return fmt.Errorf("report by parent category: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		incomes, err = s.incomes.FindByIncomeDate(gctx, rng.From, rng.To)
		if err != nil {
			return fmt.Errorf("find incomes: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Build(rng, stack, daily, byParent, incomes)
}
