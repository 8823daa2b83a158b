package repository_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	repository "github.com/aaravmahajanofficial/juicebar-storefront/internal/repositories"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostgresStore(t *testing.T) (*repository.PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	t.Cleanup(func() {
		db.Close()
	})

	return repository.NewPostgresStore(db, "jb"), mock
}

var (
	selectOneSQL  = regexp.QuoteMeta(`SELECT value FROM kv_store WHERE key = $1`)
	selectManySQL = regexp.QuoteMeta(`SELECT key, value FROM kv_store WHERE key = ANY($1)`)
	upsertSQL     = regexp.QuoteMeta(`INSERT INTO kv_store (key, value, updated_at)`)
	deleteSQL     = regexp.QuoteMeta(`DELETE FROM kv_store WHERE key = ANY($1)`)
)

func TestPostgresStoreGet(t *testing.T) {
	ctx := t.Context()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		store, mock := setupPostgresStore(t)
		mock.ExpectQuery(selectOneSQL).
			WithArgs("jb:accessToken").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("a1"))

		// Act
		val, found, err := store.Get(ctx, repository.KeyAccessToken)

		// Assert
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "a1", val)
		require.NoError(t, mock.ExpectationsWereMet(), "SQL mock expectations were not met")
	})

	t.Run("Success - Not Found", func(t *testing.T) {
		store, mock := setupPostgresStore(t)
		mock.ExpectQuery(selectOneSQL).WithArgs("jb:accessToken").WillReturnRows(sqlmock.NewRows([]string{"value"}))

		_, found, err := store.Get(ctx, repository.KeyAccessToken)

		require.NoError(t, err)
		assert.False(t, found)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Database Error", func(t *testing.T) {
		store, mock := setupPostgresStore(t)
		mock.ExpectQuery(selectOneSQL).WithArgs("jb:user").WillReturnError(errors.New("connection reset"))

		_, _, err := store.Get(ctx, repository.KeyUser)

		assert.ErrorContains(t, err, "connection reset")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStoreSetAndRemove(t *testing.T) {
	ctx := t.Context()

	t.Run("Set upserts", func(t *testing.T) {
		store, mock := setupPostgresStore(t)
		mock.ExpectExec(upsertSQL).
			WithArgs("jb:selectedBranch", `{"id":"1"}`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.Set(ctx, repository.KeySelectedBranch, `{"id":"1"}`)

		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Remove deletes by array", func(t *testing.T) {
		store, mock := setupPostgresStore(t)
		mock.ExpectExec(deleteSQL).
			WithArgs(pq.Array([]string{"jb:selectedBranch"})).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.Remove(ctx, repository.KeySelectedBranch)

		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStoreBundles(t *testing.T) {
	ctx := t.Context()

	t.Run("MultiGet", func(t *testing.T) {
		// Arrange
		store, mock := setupPostgresStore(t)
		mock.ExpectQuery(selectManySQL).
			WithArgs(pq.Array([]string{"jb:accessToken", "jb:refreshToken", "jb:user"})).
			WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
				AddRow("jb:accessToken", "a1").
				AddRow("jb:user", `{"id":"7"}`))

		// Act
		vals, err := store.MultiGet(ctx, []string{repository.KeyAccessToken, repository.KeyRefreshToken, repository.KeyUser})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			repository.KeyAccessToken: "a1",
			repository.KeyUser:        `{"id":"7"}`,
		}, vals)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MultiSet commits one transaction", func(t *testing.T) {
		store, mock := setupPostgresStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(upsertSQL).WithArgs("jb:accessToken", "a1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(upsertSQL).WithArgs("jb:refreshToken", "r1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.MultiSet(ctx, map[string]string{
			repository.KeyRefreshToken: "r1",
			repository.KeyAccessToken:  "a1",
		})

		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - MultiSet rolls back", func(t *testing.T) {
		store, mock := setupPostgresStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(upsertSQL).WithArgs("jb:accessToken", "a1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(upsertSQL).WithArgs("jb:refreshToken", "r1").WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := store.MultiSet(ctx, map[string]string{
			repository.KeyRefreshToken: "r1",
			repository.KeyAccessToken:  "a1",
		})

		assert.ErrorContains(t, err, "disk full")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EnsureSchema", func(t *testing.T) {
		store, mock := setupPostgresStore(t)
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS kv_store")).WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, store.EnsureSchema(ctx))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
