package services

import (
	"context"
	"fmt"

	"moneygr/internal/core"
	"moneygr/internal/inout"
	"moneygr/internal/log"
	"moneygr/internal/lookup"
)

type IncomeRow struct {
	core.Income
	CategoryName string
	MemberName   string
}

type IncomeListing struct {
	Rows   []IncomeRow
	Total  int64
	Range  core.DateRange
	Tables *lookup.Tables
}

// IncomeService answers income listings and registers new incomes.
type IncomeService struct {
	query     inout.IncomeQueryService
	submitter *Submitter[core.Income]
	logger    *log.Logger
}

func NewIncomeService(query inout.IncomeQueryService, submitter *Submitter[core.Income], logger *log.Logger) *IncomeService {
	if logger == nil {
		logger = log.Discard()
	}
	return &IncomeService{query: query, submitter: submitter, logger: logger.WithComponent(log.ComponentIncome)}
}

func (s *IncomeService) ListByDate(ctx context.Context, tables *lookup.Tables, rng core.DateRange) (*IncomeListing, error) {
	incomes, err := s.query.FindByIncomeDate(ctx, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("find incomes by date: %w", err)
	}
	l := &IncomeListing{Rows: make([]IncomeRow, 0, len(incomes)), Range: rng, Tables: tables}
	for _, in := range incomes {
		l.Rows = append(l.Rows, IncomeRow{
			Income:       in,
			CategoryName: tables.IncomeCategoryName(in.CategoryID),
			MemberName:   tables.MemberName(in.IncomeBy),
		})
		l.Total += int64(in.Amount)
	}
	return l, nil
}

// Register validates i, fills the receiving member from user when empty and
// hands it to the submitter.
func (s *IncomeService) Register(ctx context.Context, i core.Income, user string) (core.Income, *Task, error) {
	if i.IncomeBy == "" {
		i.IncomeBy = user
	}
	if err := i.Validate(); err != nil {
		s.logger.DebugContext(ctx, "Rejected income", log.FieldError, err, log.FieldRecordName, i.Name)
		return i, nil, err
	}
	return i, s.submitter.Submit(ctx, i), nil
}
