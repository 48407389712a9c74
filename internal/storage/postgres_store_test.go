package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db, "default"), mock
}

func TestPostgresStore_Get_Found(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery("SELECT value FROM client_state").
		WithArgs("default", KeyToken).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("tok"))

	v, ok, err := s.Get(context.Background(), KeyToken)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery("SELECT value FROM client_state").
		WithArgs("default", KeyCart).
		WillReturnError(sql.ErrNoRows)

	_, ok, err := s.Get(context.Background(), KeyCart)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgresStore_SetMany_Transaction(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO client_state").
		WithArgs("default", KeyToken, "tok", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.SetMany(context.Background(), map[string]string{KeyToken: "tok"})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetMany_RollsBackOnError(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO client_state").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.SetMany(context.Background(), map[string]string{KeyTheme: "dark"})

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Remove(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec("DELETE FROM client_state").
		WithArgs("default", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := s.Remove(context.Background(), KeyToken, KeyUsername)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS client_state").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
