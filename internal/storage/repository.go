// Package storage persists outcomes, incomes and lookup tables in SQLite and
// serves the query ports on top of them.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"moneygr/internal/core"
	"moneygr/internal/log"

	_ "modernc.org/sqlite"
)

// ErrDuplicateMessage is returned when a message id was already stored.
var ErrDuplicateMessage = errors.New("message already processed")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
}

// DSN enables foreign keys, WAL and a busy timeout so the web process and the
// worker can share one database file.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}
	return NewWithDB(db, logger), nil
}

// NewWithDB wraps an already migrated database.
func NewWithDB(db *sql.DB, logger *log.Logger) *SQLiteRepository {
	if logger == nil {
		logger = log.Discard()
	}
	return &SQLiteRepository{db: db, queries: New(db), logger: logger.WithComponent(log.ComponentStorage)}
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping is used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) FindByOutcomeDate(ctx context.Context, from, to core.Date) ([]core.Outcome, error) {
	rows, err := r.queries.ListOutcomesByDate(ctx, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list outcomes by date: %w", err)
	}
	return toOutcomes(rows)
}

func (r *SQLiteRepository) FindByOutcomeNameContaining(ctx context.Context, keyword string) ([]core.Outcome, error) {
	rows, err := r.queries.ListOutcomesByNameContaining(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("search outcomes: %w", err)
	}
	return toOutcomes(rows)
}

func (r *SQLiteRepository) FindByParentCategoryID(ctx context.Context, parentCategoryID int, from, to core.Date) ([]core.Outcome, error) {
	rows, err := r.queries.ListOutcomesByParentCategory(ctx, int64(parentCategoryID), from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list outcomes by parent category: %w", err)
	}
	return toOutcomes(rows)
}

func (r *SQLiteRepository) ReportByDate(ctx context.Context, from, to core.Date) ([]core.SummaryByDate, error) {
	rows, err := r.queries.ReportOutcomesByDate(ctx, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("report outcomes by date: %w", err)
	}
	out := make([]core.SummaryByDate, 0, len(rows))
	for _, row := range rows {
		d, err := core.ParseDate(row.Day)
		if err != nil {
			return nil, fmt.Errorf("report outcomes by date: %w", err)
		}
		out = append(out, core.SummaryByDate{OutcomeDate: d, SubTotal: row.SubTotal})
	}
	return out, nil
}

func (r *SQLiteRepository) ReportByParentCategory(ctx context.Context, from, to core.Date) ([]core.SummaryByParentCategory, error) {
	rows, err := r.queries.ReportOutcomesByParentCategory(ctx, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("report outcomes by parent category: %w", err)
	}
	out := make([]core.SummaryByParentCategory, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.SummaryByParentCategory{ParentCategoryName: row.Name, SubTotal: row.SubTotal})
	}
	return out, nil
}

func (r *SQLiteRepository) FindByIncomeDate(ctx context.Context, from, to core.Date) ([]core.Income, error) {
	rows, err := r.queries.ListIncomesByDate(ctx, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list incomes by date: %w", err)
	}
	out := make([]core.Income, 0, len(rows))
	for _, row := range rows {
		d, err := core.ParseDate(row.IncomeDate)
		if err != nil {
			return nil, fmt.Errorf("income %d: %w", row.ID, err)
		}
		out = append(out, core.Income{
			ID:         row.ID,
			Date:       d,
			Name:       row.IncomeName,
			Amount:     int(row.Amount),
			CategoryID: int(row.CategoryID),
			IncomeBy:   row.IncomeBy,
		})
	}
	return out, nil
}

// ParentCategories groups category rows under their parents in display order.
func (r *SQLiteRepository) ParentCategories(ctx context.Context) ([]core.ParentCategory, error) {
	rows, err := r.queries.ListOutcomeCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list outcome categories: %w", err)
	}
	var parents []core.ParentCategory
	for _, row := range rows {
		if n := len(parents); n == 0 || parents[n-1].ID != int(row.ParentCategoryID) {
			parents = append(parents, core.ParentCategory{ID: int(row.ParentCategoryID), Name: row.ParentName})
		}
		if row.ID != 0 {
			p := &parents[len(parents)-1]
			p.Categories = append(p.Categories, core.Category{ID: int(row.ID), Name: row.Name})
		}
	}
	return parents, nil
}

func (r *SQLiteRepository) IncomeCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListIncomeCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list income categories: %w", err)
	}
	out := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Category{ID: int(row.ID), Name: row.Name})
	}
	return out, nil
}

func (r *SQLiteRepository) Members(ctx context.Context) ([]core.Member, error) {
	rows, err := r.queries.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	out := make([]core.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Member{ID: row[0], Name: row[1]})
	}
	return out, nil
}

// EnsureMember registers a member if unknown and refreshes its display name.
func (r *SQLiteRepository) EnsureMember(ctx context.Context, m core.Member) error {
	if m.Name == "" {
		m.Name = m.ID
	}
	if err := r.queries.UpsertMember(ctx, m.ID, m.Name); err != nil {
		return fmt.Errorf("upsert member %s: %w", m.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) SaveOutcome(ctx context.Context, o core.Outcome) (int64, error) {
	return r.saveOutcome(ctx, r.queries, o)
}

func (r *SQLiteRepository) SaveIncome(ctx context.Context, i core.Income) (int64, error) {
	return r.saveIncome(ctx, r.queries, i)
}

// SaveOutcomeOnce stores o unless messageID was already processed, in which
// case ErrDuplicateMessage is returned and nothing is written.
func (r *SQLiteRepository) SaveOutcomeOnce(ctx context.Context, messageID string, o core.Outcome) (int64, error) {
	var id int64
	err := r.once(ctx, messageID, func(q *Queries) error {
		var err error
		id, err = r.saveOutcome(ctx, q, o)
		return err
	})
	return id, err
}

// SaveIncomeOnce is the income counterpart of SaveOutcomeOnce.
func (r *SQLiteRepository) SaveIncomeOnce(ctx context.Context, messageID string, i core.Income) (int64, error) {
	var id int64
	err := r.once(ctx, messageID, func(q *Queries) error {
		var err error
		id, err = r.saveIncome(ctx, q, i)
		return err
	})
	return id, err
}

func (r *SQLiteRepository) once(ctx context.Context, messageID string, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	fresh, err := q.MarkMessageProcessed(ctx, messageID)
	if err != nil {
		return fmt.Errorf("mark message processed: %w", err)
	}
	if !fresh {
		return ErrDuplicateMessage
	}
	if err := fn(q); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) saveOutcome(ctx context.Context, q *Queries, o core.Outcome) (int64, error) {
	if err := o.Validate(); err != nil {
		return 0, err
	}
	parent := int64(o.ParentCategoryID)
	if parent == 0 {
		p, err := q.ParentOfCategory(ctx, int64(o.CategoryID))
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("resolve parent category: %w", err)
		}
		parent = p
	}
	id, err := q.InsertOutcome(ctx, OutcomeRow{
		OutcomeDate:      o.Date.String(),
		OutcomeName:      o.Name,
		Amount:           int64(o.Amount),
		Quantity:         int64(o.Quantity),
		CategoryID:       int64(o.CategoryID),
		ParentCategoryID: parent,
		OutcomeBy:        o.OutcomeBy,
		CreditCard:       o.CreditCard,
	})
	if err != nil {
		return 0, fmt.Errorf("insert outcome: %w", err)
	}
	r.logger.InfoContext(ctx, "Outcome saved",
		log.FieldRecordID, id,
		log.FieldRecordName, o.Name,
		log.FieldRecordDate, o.Date.String(),
		log.FieldAmount, o.LineTotal())
	return id, nil
}

func (r *SQLiteRepository) saveIncome(ctx context.Context, q *Queries, i core.Income) (int64, error) {
	if err := i.Validate(); err != nil {
		return 0, err
	}
	id, err := q.InsertIncome(ctx, IncomeRow{
		IncomeDate: i.Date.String(),
		IncomeName: i.Name,
		Amount:     int64(i.Amount),
		CategoryID: int64(i.CategoryID),
		IncomeBy:   i.IncomeBy,
	})
	if err != nil {
		return 0, fmt.Errorf("insert income: %w", err)
	}
	r.logger.InfoContext(ctx, "Income saved",
		log.FieldRecordID, id,
		log.FieldRecordName, i.Name,
		log.FieldRecordDate, i.Date.String(),
		log.FieldAmount, i.Amount)
	return id, nil
}

func toOutcomes(rows []OutcomeRow) ([]core.Outcome, error) {
	out := make([]core.Outcome, 0, len(rows))
	for _, row := range rows {
		d, err := core.ParseDate(row.OutcomeDate)
		if err != nil {
			return nil, fmt.Errorf("outcome %d: %w", row.ID, err)
		}
		out = append(out, core.Outcome{
			ID:               row.ID,
			Date:             d,
			Name:             row.OutcomeName,
			Amount:           int(row.Amount),
			Quantity:         int(row.Quantity),
			CategoryID:       int(row.CategoryID),
			ParentCategoryID: int(row.ParentCategoryID),
			OutcomeBy:        row.OutcomeBy,
			CreditCard:       row.CreditCard,
		})
	}
	return out, nil
}
