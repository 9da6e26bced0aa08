// Package inout declares the ports the web layer and the worker use to reach
// the outcome and income data services.
package inout

import (
	"context"

	"moneygr/internal/core"
)

// Ports for outbound adapters.
type (
	OutcomeQueryService interface {
		FindByOutcomeDate(ctx context.Context, from, to core.Date) ([]core.Outcome, error)
		FindByOutcomeNameContaining(ctx context.Context, keyword string) ([]core.Outcome, error)
		FindByParentCategoryID(ctx context.Context, parentCategoryID int, from, to core.Date) ([]core.Outcome, error)
		// ReportByDate returns one entry per day with outcomes, date ascending.
		ReportByDate(ctx context.Context, from, to core.Date) ([]core.SummaryByDate, error)
		ReportByParentCategory(ctx context.Context, from, to core.Date) ([]core.SummaryByParentCategory, error)
	}

	IncomeQueryService interface {
		FindByIncomeDate(ctx context.Context, from, to core.Date) ([]core.Income, error)
	}

	// LookupSource provides the category and member tables used for display.
	LookupSource interface {
		ParentCategories(ctx context.Context) ([]core.ParentCategory, error)
		IncomeCategories(ctx context.Context) ([]core.Category, error)
		Members(ctx context.Context) ([]core.Member, error)
	}

	OutcomeWriter interface {
		SaveOutcome(ctx context.Context, o core.Outcome) (int64, error)
	}

	IncomeWriter interface {
		SaveIncome(ctx context.Context, i core.Income) (int64, error)
	}

	// Store is implemented by backends that can both answer queries and
	// persist records.
	Store interface {
		OutcomeQueryService
		IncomeQueryService
		LookupSource
		OutcomeWriter
		IncomeWriter
	}
)
