package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{
	"email", "display_name", "photo_url", "auth_method", "created_at", "last_login", "updated_at",
}

func newUserStore(t *testing.T) (*PostgresUserStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresUserStore(db, nil), mock
}

func TestPostgresUserStore_Upsert(t *testing.T) {
	now := time.Date(2025, time.May, 1, 10, 0, 0, 0, time.UTC)
	earlier := now.Add(-48 * time.Hour)
	user := &domain.User{
		Email:       "a@x.com",
		DisplayName: "Ann",
		PhotoURL:    "https://img/a.png",
		AuthMethod:  domain.AuthMethodGoogle,
		CreatedAt:   now,
		LastLogin:   now,
	}

	t.Run("creates new user", func(t *testing.T) {
		s, mock := newUserStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("a@x.com", "Ann", "https://img/a.png", "google", now).
			WillReturnRows(sqlmock.NewRows(append(userRowColumns, "inserted")).
				AddRow("a@x.com", "Ann", "https://img/a.png", "google", now, now, nil, true))
		mock.ExpectCommit()

		got, created, err := s.Upsert(context.Background(), user)

		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, domain.AuthMethodGoogle, got.AuthMethod)
		assert.Nil(t, got.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("switches auth method", func(t *testing.T) {
		s, mock := newUserStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO users").
			WillReturnRows(sqlmock.NewRows(append(userRowColumns, "inserted")).
				AddRow("a@x.com", "Ann", "", "google", earlier, now, now, false))
		mock.ExpectCommit()

		got, created, err := s.Upsert(context.Background(), user)

		require.NoError(t, err)
		assert.False(t, created)
		require.NotNil(t, got.UpdatedAt)
		assert.Equal(t, now, *got.UpdatedAt)
		assert.Equal(t, earlier, got.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unchanged user is read back", func(t *testing.T) {
		s, mock := newUserStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO users").
			WillReturnRows(sqlmock.NewRows(append(userRowColumns, "inserted")))
		mock.ExpectQuery("SELECT email, display_name").
			WithArgs("a@x.com").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow("a@x.com", "Ann", "", "google", earlier, earlier, nil))
		mock.ExpectCommit()

		got, created, err := s.Upsert(context.Background(), user)

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, earlier, got.LastLogin)
		assert.Nil(t, got.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database failure rolls back", func(t *testing.T) {
		s, mock := newUserStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO users").WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		got, _, err := s.Upsert(context.Background(), user)

		assert.Nil(t, got)
		assert.True(t, store.IsStoreError(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresUserStore_RecordLogin(t *testing.T) {
	now := time.Date(2025, time.May, 2, 8, 0, 0, 0, time.UTC)

	t.Run("updates last login", func(t *testing.T) {
		s, mock := newUserStore(t)
		mock.ExpectQuery("UPDATE users SET last_login").
			WithArgs("a@x.com", now).
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow("a@x.com", "Ann", "", "email", now.Add(-time.Hour), now, nil))

		got, err := s.RecordLogin(context.Background(), "a@x.com", now)

		require.NoError(t, err)
		assert.Equal(t, now, got.LastLogin)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user", func(t *testing.T) {
		s, mock := newUserStore(t)
		mock.ExpectQuery("UPDATE users SET last_login").WillReturnError(sql.ErrNoRows)

		got, err := s.RecordLogin(context.Background(), "ghost@x.com", now)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

func TestPostgresUserStore_GetByEmail(t *testing.T) {
	now := time.Date(2025, time.May, 2, 8, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		s, mock := newUserStore(t)
		mock.ExpectQuery("SELECT email, display_name").
			WithArgs("a@x.com").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow("a@x.com", "Ann", "p", "github", now, now, now))

		got, err := s.GetByEmail(context.Background(), "a@x.com")

		require.NoError(t, err)
		assert.Equal(t, domain.AuthMethodGitHub, got.AuthMethod)
		require.NotNil(t, got.UpdatedAt)
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newUserStore(t)
		mock.ExpectQuery("SELECT email, display_name").WillReturnError(sql.ErrNoRows)

		_, err := s.GetByEmail(context.Background(), "ghost@x.com")

		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("connection error", func(t *testing.T) {
		s, mock := newUserStore(t)
		mock.ExpectQuery("SELECT email, display_name").WillReturnError(errors.New("dial tcp: refused"))

		_, err := s.GetByEmail(context.Background(), "a@x.com")

		assert.True(t, store.IsStoreError(err))
		assert.False(t, store.IsNotFoundError(err))
	})
}
