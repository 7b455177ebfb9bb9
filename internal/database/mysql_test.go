package database

import (
	"context"
	"database/sql"
	"guestlist/entity"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	querySelectGuest = "SELECT id, first_name, last_name, email, instagram, status, is_used, used_at, created_at FROM guests WHERE id = ?"
	queryMarkUsed    = "UPDATE guests SET is_used = 1, used_at = ? WHERE id = ? AND status = ? AND is_used = 0"
	queryStatus      = "UPDATE guests SET status = ? WHERE id = ? AND status = ?"
)

func setupMySql(t *testing.T) (*MySql, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return newMySql(db, ""), mock
}

func guestColumnsList() []string {
	return []string{"id", "first_name", "last_name", "email", "instagram", "status", "is_used", "used_at", "created_at"}
}

func TestMySql_CreateGuest(t *testing.T) {
	store, mock := setupMySql(t)
	created := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectPrepare("INSERT INTO guests (id, first_name, last_name, email, instagram, status, is_used, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)").
		ExpectExec().
		WithArgs("g-1", "Ada", "Lovelace", "ada@example.com", "@ada", "PENDING", false, created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.CreateGuest(context.Background(), &entity.Guest{
		Id:        "g-1",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Instagram: "@ada",
		Status:    entity.StatusPending,
		CreatedAt: created,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySql_GetGuest(t *testing.T) {
	store, mock := setupMySql(t)
	created := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	used := created.Add(time.Hour)

	rows := sqlmock.NewRows(guestColumnsList()).
		AddRow("g-1", "Ada", "Lovelace", "ada@example.com", "", "APPROVED", true, used, created)
	mock.ExpectPrepare(querySelectGuest).ExpectQuery().WithArgs("g-1").WillReturnRows(rows)

	guest, err := store.GetGuest(context.Background(), "g-1")

	require.NoError(t, err)
	require.NotNil(t, guest)
	assert.Equal(t, entity.StatusApproved, guest.Status)
	assert.True(t, guest.IsUsed)
	require.NotNil(t, guest.UsedAt)
	assert.True(t, used.Equal(*guest.UsedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySql_GetGuest_NotFound(t *testing.T) {
	store, mock := setupMySql(t)

	mock.ExpectPrepare(querySelectGuest).ExpectQuery().WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(guestColumnsList()))

	guest, err := store.GetGuest(context.Background(), "missing")

	assert.NoError(t, err)
	assert.Nil(t, guest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySql_MarkGuestUsed(t *testing.T) {
	store, mock := setupMySql(t)
	now := time.Now()

	prep := mock.ExpectPrepare(queryMarkUsed)
	prep.ExpectExec().WithArgs(now, "g-1", "APPROVED").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(now, "g-1", "APPROVED").WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := store.MarkGuestUsed(context.Background(), "g-1", now)
	require.NoError(t, err)
	second, err := store.MarkGuestUsed(context.Background(), "g-1", now)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySql_SetGuestStatus(t *testing.T) {
	store, mock := setupMySql(t)

	mock.ExpectPrepare(queryStatus).ExpectExec().
		WithArgs("REJECTED", "g-2", "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))

	changed, err := store.SetGuestStatus(context.Background(), "g-2", entity.StatusRejected)

	assert.NoError(t, err)
	assert.True(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySql_ListGuests(t *testing.T) {
	store, mock := setupMySql(t)
	created := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(guestColumnsList()).
		AddRow("g-2", "Grace", "Hopper", "grace@example.com", "", "PENDING", false, nil, created.Add(time.Minute)).
		AddRow("g-1", "Ada", "Lovelace", "ada@example.com", "", "REJECTED", false, nil, created)
	mock.ExpectPrepare("SELECT id, first_name, last_name, email, instagram, status, is_used, used_at, created_at FROM guests ORDER BY created_at DESC").
		ExpectQuery().WillReturnRows(rows)

	guests, err := store.ListGuests(context.Background())

	require.NoError(t, err)
	require.Len(t, guests, 2)
	assert.Equal(t, "g-2", guests[0].Id)
	assert.Nil(t, guests[0].UsedAt)
	assert.Equal(t, entity.StatusRejected, guests[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySql_DeleteAllGuests(t *testing.T) {
	store, mock := setupMySql(t)

	mock.ExpectExec("DELETE FROM guests").WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.DeleteAllGuests(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySql_ExecErrorIsWrapped(t *testing.T) {
	store, mock := setupMySql(t)

	mock.ExpectPrepare(queryMarkUsed).ExpectExec().WillReturnError(sql.ErrConnDone)

	_, err := store.MarkGuestUsed(context.Background(), "g-1", time.Now())

	assert.ErrorIs(t, err, sql.ErrConnDone)
}
