package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneygr/internal/core"
	"moneygr/internal/report"
)

func TestParseRange(t *testing.T) {
	rng, err := parseRange("2024-02-10", "")
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2024, 2, 29), rng.To)

	rng, err = parseRange("2024-02-10", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2024, 3, 1), rng.To)

	_, err = parseRange("02/10/2024", "")
	assert.ErrorIs(t, err, core.ErrMalformedDate)
}

func TestPrintReport(t *testing.T) {
	rep, err := report.Build(
		core.MonthOf(core.NewDate(2024, 1, 1)), false,
		[]core.SummaryByDate{{OutcomeDate: core.NewDate(2024, 1, 2), SubTotal: 1500}},
		[]core.SummaryByParentCategory{{ParentCategoryName: "Food", SubTotal: 1500}},
		[]core.Income{{Date: core.NewDate(2024, 1, 2), Amount: 4000}},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printReport(&buf, rep))
	out := buf.String()
	assert.Contains(t, out, "2024-01-02")
	assert.Contains(t, out, "1,500")
	assert.Contains(t, out, "4,000")
	assert.Contains(t, out, "2,500")
	assert.Contains(t, out, "Food")
}
