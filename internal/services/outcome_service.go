package services

import (
	"context"
	"fmt"

	"moneygr/internal/core"
	"moneygr/internal/inout"
	"moneygr/internal/log"
	"moneygr/internal/lookup"
)

// OutcomeRow is an outcome with its display names resolved.
type OutcomeRow struct {
	core.Outcome
	CategoryName       string
	ParentCategoryName string
	MemberName         string
	Total              int64
}

// OutcomeListing is one page of outcomes plus what the entry form needs.
type OutcomeListing struct {
	Rows    []OutcomeRow
	Total   int64
	Range   core.DateRange
	Keyword string
	// Parent is set when the listing is filtered by parent category.
	Parent *core.ParentCategory
	Tables *lookup.Tables
}

// OutcomeService answers outcome listings and registers new outcomes.
type OutcomeService struct {
	query     inout.OutcomeQueryService
	submitter *Submitter[core.Outcome]
	logger    *log.Logger
}

func NewOutcomeService(query inout.OutcomeQueryService, submitter *Submitter[core.Outcome], logger *log.Logger) *OutcomeService {
	if logger == nil {
		logger = log.Discard()
	}
	return &OutcomeService{query: query, submitter: submitter, logger: logger.WithComponent(log.ComponentOutcome)}
}

// ListByDate lists outcomes in rng, inclusive.
func (s *OutcomeService) ListByDate(ctx context.Context, tables *lookup.Tables, rng core.DateRange) (*OutcomeListing, error) {
	outcomes, err := s.query.FindByOutcomeDate(ctx, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("find outcomes by date: %w", err)
	}
	l := buildOutcomeListing(tables, outcomes)
	l.Range = rng
	return l, nil
}

// Search lists outcomes whose name contains keyword, ignoring dates.
func (s *OutcomeService) Search(ctx context.Context, tables *lookup.Tables, keyword string) (*OutcomeListing, error) {
	outcomes, err := s.query.FindByOutcomeNameContaining(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("search outcomes: %w", err)
	}
	l := buildOutcomeListing(tables, outcomes)
	l.Keyword = keyword
	return l, nil
}

// ListByParentCategory lists outcomes in rng under the parent category at
// the given 1-based position of the ordered parent list.
func (s *OutcomeService) ListByParentCategory(ctx context.Context, tables *lookup.Tables, position int, rng core.DateRange) (*OutcomeListing, error) {
	parent, err := tables.ParentAt(position)
	if err != nil {
		return nil, err
	}
	outcomes, err := s.query.FindByParentCategoryID(ctx, position, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("find outcomes by parent category: %w", err)
	}
	l := buildOutcomeListing(tables, outcomes)
	l.Range = rng
	l.Parent = &parent
	return l, nil
}

// Register validates o, fills the paying member from user when empty and
// hands it to the submitter. The returned outcome is the one submitted.
func (s *OutcomeService) Register(ctx context.Context, o core.Outcome, user string) (core.Outcome, *Task, error) {
	if o.OutcomeBy == "" {
		o.OutcomeBy = user
	}
	if err := o.Validate(); err != nil {
		s.logger.DebugContext(ctx, "Rejected outcome", log.FieldError, err, log.FieldRecordName, o.Name)
		return o, nil, err
	}
	return o, s.submitter.Submit(ctx, o), nil
}

func buildOutcomeListing(tables *lookup.Tables, outcomes []core.Outcome) *OutcomeListing {
	l := &OutcomeListing{Rows: make([]OutcomeRow, 0, len(outcomes)), Tables: tables}
	for _, o := range outcomes {
		parentID := o.ParentCategoryID
		if parentID == 0 {
			parentID = tables.ParentOf(o.CategoryID)
		}
		row := OutcomeRow{
			Outcome:            o,
			CategoryName:       tables.CategoryName(o.CategoryID),
			ParentCategoryName: tables.ParentName(parentID),
			MemberName:         tables.MemberName(o.OutcomeBy),
			Total:              o.LineTotal(),
		}
		l.Total += row.Total
		l.Rows = append(l.Rows, row)
	}
	return l
}
