package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneygr/internal/core"
)

type fakeOutcomes struct {
	daily    []core.SummaryByDate
	byParent []core.SummaryByParentCategory
	err      error
	gotFrom  core.Date
	gotTo    core.Date
}

func (f *fakeOutcomes) FindByOutcomeDate(context.Context, core.Date, core.Date) ([]core.Outcome, error) {
	return nil, nil
}

func (f *fakeOutcomes) FindByOutcomeNameContaining(context.Context, string) ([]core.Outcome, error) {
	return nil, nil
}

func (f *fakeOutcomes) FindByParentCategoryID(context.Context, int, core.Date, core.Date) ([]core.Outcome, error) {
	return nil, nil
}

func (f *fakeOutcomes) ReportByDate(_ context.Context, from, to core.Date) ([]core.SummaryByDate, error) {
	f.gotFrom, f.gotTo = from, to
	return f.daily, f.err
}

func (f *fakeOutcomes) ReportByParentCategory(context.Context, core.Date, core.Date) ([]core.SummaryByParentCategory, error) {
	return f.byParent, nil
}

type fakeIncomes struct {
	items []core.Income
	err   error
}

func (f *fakeIncomes) FindByIncomeDate(context.Context, core.Date, core.Date) ([]core.Income, error) {
	return f.items, f.err
}

func TestBuildTotals(t *testing.T) {
	daily := []core.SummaryByDate{
		{OutcomeDate: day(2024, 1, 1), SubTotal: 500},
		{OutcomeDate: day(2024, 1, 2), SubTotal: 300},
	}
	incomes := []core.Income{
		{Date: day(2024, 1, 1), Amount: 1000},
		{Date: day(2024, 1, 5), Amount: 2000},
	}
	rng := core.MonthOf(day(2024, 1, 1))

	r, err := Build(rng, true, daily, nil, incomes)
	require.NoError(t, err)

	assert.Equal(t, int64(800), r.OutcomeTotal)
	// the dropped 2024-01-05 income still counts toward the total
	assert.Equal(t, int64(3000), r.IncomeTotal)
	assert.Equal(t, int64(2200), r.Net)
	assert.True(t, r.Stack)
	assert.JSONEq(t, `[{"outcomeDate":"2024-01-02","subTotal":300},{"outcomeDate":"2024-01-01","subTotal":500}]`, r.OutcomeGraphData)
	assert.JSONEq(t, `[{"incomeDate":"2024-01-02","subTotal":0},{"incomeDate":"2024-01-01","subTotal":1000}]`, r.IncomeGraphData)
	assert.Equal(t, `[]`, r.CategoryGraphData)
}

func TestBuildPropagatesSerializationFailure(t *testing.T) {
	orig := marshal
	t.Cleanup(func() { marshal = orig })
	marshal = func(any) ([]byte, error) { return nil, errors.New("boom") }

	_, err := Build(core.MonthOf(day(2024, 1, 1)), false, nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode outcome series")
	assert.ErrorIs(t, err, ErrEncode)
}

func TestServiceGenerate(t *testing.T) {
	outcomes := &fakeOutcomes{
		daily:    []core.SummaryByDate{{OutcomeDate: day(2024, 2, 3), SubTotal: 40}},
		byParent: []core.SummaryByParentCategory{{ParentCategoryName: "Food", SubTotal: 40}},
	}
	incomes := &fakeIncomes{items: []core.Income{{Date: day(2024, 2, 3), Amount: 90}}}
	rng := core.MonthOf(day(2024, 2, 10))

	r, err := NewService(outcomes, incomes).Generate(context.Background(), rng, false)
	require.NoError(t, err)

	assert.Equal(t, "2024-02-01", outcomes.gotFrom.String())
	assert.Equal(t, "2024-02-29", outcomes.gotTo.String())
	assert.Equal(t, int64(50), r.Net)
	assert.Equal(t, Daily, r.Series.Granularity)
	assert.JSONEq(t, `[{"parentCategoryName":"Food","subTotal":40}]`, r.CategoryGraphData)
}

func TestServiceGenerateFailsOnUpstreamError(t *testing.T) {
	upstream := errors.New("income service down")
	svc := NewService(&fakeOutcomes{}, &fakeIncomes{err: upstream})

	_, err := svc.Generate(context.Background(), core.MonthOf(day(2024, 2, 1)), false)
	require.ErrorIs(t, err, upstream)
}
