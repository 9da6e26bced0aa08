package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneygr/internal/core"
)

func newMockRepo(t *testing.T) (*SQLiteRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db, nil), mock
}

func TestReportByDateWrapsQueryError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT outcome_date, SUM(amount * quantity)")).
		WithArgs("2024-01-01", "2024-01-31").
		WillReturnError(errors.New("disk I/O error"))

	_, err := repo.ReportByDate(context.Background(), core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report outcomes by date")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIncomeDateRejectsMalformedStoredDate(t *testing.T) {
	repo, mock := newMockRepo(t)
	rows := sqlmock.NewRows([]string{"id", "income_date", "income_name", "amount", "category_id", "income_by"}).
		AddRow(int64(9), "25/01/2024", "salary", int64(1), int64(1), "u1")
	mock.ExpectQuery(regexp.QuoteMeta("FROM incomes")).WillReturnRows(rows)

	_, err := repo.FindByIncomeDate(context.Background(), core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31))
	require.ErrorIs(t, err, core.ErrMalformedDate)
}

func TestSaveOutcomeOnceDuplicateRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT OR IGNORE INTO processed_messages")).
		WithArgs("msg-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	o := core.Outcome{Date: core.NewDate(2024, 1, 1), Name: "tea", Amount: 1, Quantity: 1, CategoryID: 1, ParentCategoryID: 1}
	_, err := repo.SaveOutcomeOnce(context.Background(), "msg-1", o)
	require.ErrorIs(t, err, ErrDuplicateMessage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveOutcomeOnceInsertFailureRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT OR IGNORE INTO processed_messages")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO outcomes")).
		WithArgs("2024-01-01", "tea", int64(1), int64(1), int64(1), int64(1), "u1", false).
		WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	o := core.Outcome{Date: core.NewDate(2024, 1, 1), Name: "tea", Amount: 1, Quantity: 1, CategoryID: 1, ParentCategoryID: 1, OutcomeBy: "u1"}
	_, err := repo.SaveOutcomeOnce(context.Background(), "msg-1", o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert outcome")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveOutcomeResolvesMissingParent(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT parent_category_id FROM categories")).
		WithArgs(int64(6)).
		WillReturnRows(sqlmock.NewRows([]string{"parent_category_id"}).AddRow(int64(3)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO outcomes")).
		WithArgs("2024-01-01", "rent", int64(900), int64(1), int64(6), int64(3), "u1", true).
		WillReturnResult(sqlmock.NewResult(42, 1))

	o := core.Outcome{Date: core.NewDate(2024, 1, 1), Name: "rent", Amount: 900, Quantity: 1, CategoryID: 6, OutcomeBy: "u1", CreditCard: true}
	id, err := repo.SaveOutcome(context.Background(), o)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}
