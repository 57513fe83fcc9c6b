package due

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func TestCreateDueReturnsGeneratedFields(t *testing.T) {
	repo, mock := newMockRepo(t)
	createdAt := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO dues")).
		WithArgs(int64(42), int64(1), int64(1), int64(2), 250.0, 250.0, 0.0, "groceries", "Payment due to asha", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(9, createdAt))

	created, err := repo.CreateDue(context.Background(), &Due{
		RoomID: 42, CreatedBy: 1, DueTo: 1, DueFrom: 2,
		TotalAmount: 250, DueAmount: 250, PaidAmount: 0,
		Remarks: "groceries", Status: "Payment due to asha", IsDue: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID)
	assert.Equal(t, createdAt, created.CreatedAt)
	assert.Equal(t, 250.0, created.DueAmount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettlementLocksRoomAndCommits(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM connections WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO flags")).
		WithArgs(int64(42), "🎊 asha has cleared all dues!").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Settlement(context.Background(), 42, func(tx SettlementTx) error {
		return tx.CreateFlag(context.Background(), 42, "🎊 asha has cleared all dues!")
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettlementRollsBackOnError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectRollback()

	failure := errors.New("mid-run failure")
	err := repo.Settlement(context.Background(), 42, func(tx SettlementTx) error {
		return failure
	})
	assert.ErrorIs(t, err, failure)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettlementFailsWhenRoomMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.Settlement(context.Background(), 42, func(tx SettlementTx) error {
		t.Fatal("settlement body must not run without the lock")
		return nil
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListCandidatesFilter(t *testing.T) {
	repo, mock := newMockRepo(t)
	base := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectQuery(regexp.QuoteMeta("is_due = true AND due_amount <= $4")).
		WithArgs(int64(42), int64(9), int64(1), 200.0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "room_id", "created_by", "due_to", "due_from",
			"total_amount", "due_amount", "paid_amount", "remarks", "status", "is_due", "created_at",
		}).
			AddRow(5, 42, 2, 2, 1, 100.0, 100.0, 0.0, "", "Payment due", true, base).
			AddRow(6, 42, 2, 2, 1, 150.0, 150.0, 0.0, "", "Payment due", true, base.Add(time.Minute)))
	mock.ExpectCommit()

	var got []*Due
	err := repo.Settlement(context.Background(), 42, func(tx SettlementTx) error {
		candidates, err := tx.ListCandidates(context.Background(), 42, 9, 1, 200)
		got = candidates
		return err
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(5), got[0].ID)
	assert.Equal(t, int64(6), got[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDueNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM dues")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "room_id", "created_by", "due_to", "due_from",
			"total_amount", "due_amount", "paid_amount", "remarks", "status", "is_due", "created_at",
		}))

	d, err := repo.GetDue(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, d)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOutstandingTotalsOmitsZeroBalances(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("HAVING SUM(d.due_amount) <> 0")).
		WithArgs(int64(42), int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"due_from", "username", "total_due"}).
			AddRow(2, "bikram", 150.0))

	totals, err := repo.OutstandingTotals(context.Background(), 42, 1, 2)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, int64(2), totals[0].UserID)
	assert.Equal(t, 150.0, totals[0].TotalDue)
	require.NoError(t, mock.ExpectationsWereMet())
}
