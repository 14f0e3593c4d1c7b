package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/civic-report-api/internal/models"
)

var adminColumnNames = []string{"id", "username", "email", "password_hash", "role", "active", "created_at", "last_login"}

func TestAdminFindByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM admins WHERE username = $1 LIMIT 1")).
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows(adminColumnNames).AddRow(int64(1), "admin", "admin@civic.local", "hash", "admin", true, now, nil))

	admin, err := repo.FindByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(1), admin.ID)
	assert.Nil(t, admin.LastLogin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminFindByUsernameMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM admins WHERE username = $1")).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAdminCreateFirstInsertsWhenEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("LOCK TABLE admins IN SHARE ROW EXCLUSIVE MODE")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM admins")).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO admins (username, email, password_hash, role, active, created_at)")).
		WithArgs("admin", "admin@civic.local", "hash", "admin", true, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()

	admin := &models.Admin{Username: "admin", Email: "admin@civic.local", PasswordHash: "hash", Role: "admin", Active: true}
	require.NoError(t, repo.CreateFirst(context.Background(), admin))
	assert.Equal(t, int64(1), admin.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminCreateFirstRejectsSecondBootstrap(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("LOCK TABLE admins")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM admins")).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.CreateFirst(context.Background(), &models.Admin{Username: "second", Email: "s@civic.local", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrAdminsExist)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminUpdateLastLogin(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	ts := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE admins SET last_login = $2 WHERE id = $1")).
		WithArgs(int64(1), ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateLastLogin(context.Background(), 1, ts))
	assert.NoError(t, mock.ExpectationsWereMet())
}
