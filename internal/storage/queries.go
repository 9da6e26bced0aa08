package storage

import (
	"context"
	"database/sql"
	"strings"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// OutcomeRow mirrors the outcomes table.
type OutcomeRow struct {
	ID               int64
	OutcomeDate      string
	OutcomeName      string
	Amount           int64
	Quantity         int64
	CategoryID       int64
	ParentCategoryID int64
	OutcomeBy        string
	CreditCard       bool
}

type IncomeRow struct {
	ID         int64
	IncomeDate string
	IncomeName string
	Amount     int64
	CategoryID int64
	IncomeBy   string
}

type DateTotalRow struct {
	Day      string
	SubTotal int64
}

type ParentTotalRow struct {
	Name     string
	SubTotal int64
}

type CategoryRow struct {
	ID               int64
	ParentCategoryID int64
	ParentName       string
	Name             string
}

const outcomeColumns = `id, outcome_date, outcome_name, amount, quantity, category_id, parent_category_id, outcome_by, credit_card`

const listOutcomesByDate = `SELECT ` + outcomeColumns + `
FROM outcomes
WHERE outcome_date BETWEEN ? AND ?
ORDER BY outcome_date, id`

func (q *Queries) ListOutcomesByDate(ctx context.Context, from, to string) ([]OutcomeRow, error) {
	return q.queryOutcomes(ctx, listOutcomesByDate, from, to)
}

const listOutcomesByName = `SELECT ` + outcomeColumns + `
FROM outcomes
WHERE outcome_name LIKE ? ESCAPE '\'
ORDER BY outcome_date DESC, id`

func (q *Queries) ListOutcomesByNameContaining(ctx context.Context, keyword string) ([]OutcomeRow, error) {
	return q.queryOutcomes(ctx, listOutcomesByName, "%"+escapeLike(keyword)+"%")
}

const listOutcomesByParent = `SELECT ` + outcomeColumns + `
FROM outcomes
WHERE parent_category_id = ? AND outcome_date BETWEEN ? AND ?
ORDER BY outcome_date, id`

func (q *Queries) ListOutcomesByParentCategory(ctx context.Context, parentID int64, from, to string) ([]OutcomeRow, error) {
	return q.queryOutcomes(ctx, listOutcomesByParent, parentID, from, to)
}

func (q *Queries) queryOutcomes(ctx context.Context, query string, args ...any) ([]OutcomeRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OutcomeRow
	for rows.Next() {
		var i OutcomeRow
		if err := rows.Scan(
			&i.ID,
			&i.OutcomeDate,
			&i.OutcomeName,
			&i.Amount,
			&i.Quantity,
			&i.CategoryID,
			&i.ParentCategoryID,
			&i.OutcomeBy,
			&i.CreditCard,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const reportOutcomesByDate = `SELECT outcome_date, SUM(amount * quantity)
FROM outcomes
WHERE outcome_date BETWEEN ? AND ?
GROUP BY outcome_date
ORDER BY outcome_date`

func (q *Queries) ReportOutcomesByDate(ctx context.Context, from, to string) ([]DateTotalRow, error) {
	rows, err := q.db.QueryContext(ctx, reportOutcomesByDate, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DateTotalRow
	for rows.Next() {
		var i DateTotalRow
		if err := rows.Scan(&i.Day, &i.SubTotal); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const reportOutcomesByParent = `SELECT p.name, SUM(o.amount * o.quantity)
FROM outcomes o
JOIN parent_categories p ON p.id = o.parent_category_id
WHERE o.outcome_date BETWEEN ? AND ?
GROUP BY p.id, p.name
ORDER BY p.position, p.id`

func (q *Queries) ReportOutcomesByParentCategory(ctx context.Context, from, to string) ([]ParentTotalRow, error) {
	rows, err := q.db.QueryContext(ctx, reportOutcomesByParent, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ParentTotalRow
	for rows.Next() {
		var i ParentTotalRow
		if err := rows.Scan(&i.Name, &i.SubTotal); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listIncomesByDate = `SELECT id, income_date, income_name, amount, category_id, income_by
FROM incomes
WHERE income_date BETWEEN ? AND ?
ORDER BY income_date, id`

func (q *Queries) ListIncomesByDate(ctx context.Context, from, to string) ([]IncomeRow, error) {
	rows, err := q.db.QueryContext(ctx, listIncomesByDate, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []IncomeRow
	for rows.Next() {
		var i IncomeRow
		if err := rows.Scan(&i.ID, &i.IncomeDate, &i.IncomeName, &i.Amount, &i.CategoryID, &i.IncomeBy); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listOutcomeCategories = `SELECT c.id, p.id, p.name, c.name
FROM parent_categories p
LEFT JOIN categories c ON c.parent_category_id = p.id
ORDER BY p.position, p.id, c.id`

// ListOutcomeCategories returns one row per category, parents in display
// order. A parent without children yields one row with a zero category id.
func (q *Queries) ListOutcomeCategories(ctx context.Context) ([]CategoryRow, error) {
	rows, err := q.db.QueryContext(ctx, listOutcomeCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryRow
	for rows.Next() {
		var (
			i    CategoryRow
			id   sql.NullInt64
			name sql.NullString
		)
		if err := rows.Scan(&id, &i.ParentCategoryID, &i.ParentName, &name); err != nil {
			return nil, err
		}
		i.ID = id.Int64
		i.Name = name.String
		items = append(items, i)
	}
	return items, rows.Err()
}

const listIncomeCategories = `SELECT id, name FROM income_categories ORDER BY id`

func (q *Queries) ListIncomeCategories(ctx context.Context) ([]CategoryRow, error) {
	rows, err := q.db.QueryContext(ctx, listIncomeCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryRow
	for rows.Next() {
		var i CategoryRow
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listMembers = `SELECT id, name FROM members ORDER BY name`

func (q *Queries) ListMembers(ctx context.Context) ([][2]string, error) {
	rows, err := q.db.QueryContext(ctx, listMembers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items [][2]string
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		items = append(items, [2]string{id, name})
	}
	return items, rows.Err()
}

const upsertMember = `INSERT INTO members (id, name) VALUES (?, ?)
ON CONFLICT (id) DO UPDATE SET name = excluded.name`

func (q *Queries) UpsertMember(ctx context.Context, id, name string) error {
	_, err := q.db.ExecContext(ctx, upsertMember, id, name)
	return err
}

const insertOutcome = `INSERT INTO outcomes (outcome_date, outcome_name, amount, quantity, category_id, parent_category_id, outcome_by, credit_card)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertOutcome(ctx context.Context, arg OutcomeRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertOutcome,
		arg.OutcomeDate,
		arg.OutcomeName,
		arg.Amount,
		arg.Quantity,
		arg.CategoryID,
		arg.ParentCategoryID,
		arg.OutcomeBy,
		arg.CreditCard,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const insertIncome = `INSERT INTO incomes (income_date, income_name, amount, category_id, income_by)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) InsertIncome(ctx context.Context, arg IncomeRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertIncome,
		arg.IncomeDate,
		arg.IncomeName,
		arg.Amount,
		arg.CategoryID,
		arg.IncomeBy,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const parentOfCategory = `SELECT parent_category_id FROM categories WHERE id = ?`

func (q *Queries) ParentOfCategory(ctx context.Context, categoryID int64) (int64, error) {
	var parent int64
	err := q.db.QueryRowContext(ctx, parentOfCategory, categoryID).Scan(&parent)
	return parent, err
}

const markMessageProcessed = `INSERT OR IGNORE INTO processed_messages (message_id) VALUES (?)`

// MarkMessageProcessed reports false when the message id was already recorded.
func (q *Queries) MarkMessageProcessed(ctx context.Context, messageID string) (bool, error) {
	res, err := q.db.ExecContext(ctx, markMessageProcessed, messageID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
