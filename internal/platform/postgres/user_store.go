package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/phrazzld/taskmaster-api/internal/store"
)

const userColumns = `email, display_name, photo_url, auth_method, created_at, last_login, updated_at`

// upsertUserQuery inserts a new user or, when the stored auth method differs,
// switches it and stamps updated_at/last_login. An unchanged existing user
// yields no row. xmax = 0 identifies a freshly inserted tuple.
const upsertUserQuery = `
	INSERT INTO users (email, display_name, photo_url, auth_method, created_at, last_login)
	VALUES ($1, $2, $3, $4, $5, $5)
	ON CONFLICT (email) DO UPDATE
	SET auth_method = EXCLUDED.auth_method,
	    updated_at  = EXCLUDED.last_login,
	    last_login  = EXCLUDED.last_login
	WHERE users.auth_method IS DISTINCT FROM EXCLUDED.auth_method
	RETURNING ` + userColumns + `, (xmax = 0) AS inserted
`

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// If logger is nil, the default logger is used.
func NewPostgresUserStore(db *sql.DB, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, extra ...any) (*domain.User, error) {
	var (
		user       domain.User
		authMethod string
		updatedAt  sql.NullTime
	)
	dest := append([]any{
		&user.Email,
		&user.DisplayName,
		&user.PhotoURL,
		&authMethod,
		&user.CreatedAt,
		&user.LastLogin,
		&updatedAt,
	}, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	user.AuthMethod = domain.AuthMethod(authMethod)
	if updatedAt.Valid {
		t := updatedAt.Time
		user.UpdatedAt = &t
	}
	return &user, nil
}

// Upsert implements store.UserStore.Upsert.
func (s *PostgresUserStore) Upsert(ctx context.Context, user *domain.User) (*domain.User, bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		current *domain.User
		created bool
	)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, upsertUserQuery,
			user.Email,
			user.DisplayName,
			user.PhotoURL,
			string(user.AuthMethod),
			user.LastLogin,
		)

		var inserted bool
		u, err := scanUser(row, &inserted)
		switch {
		case err == nil:
			current, created = u, inserted
			return nil
		case errors.Is(err, sql.ErrNoRows):
			// Existing user with the same auth method: nothing was written
			current, err = s.getByEmail(ctx, tx, user.Email)
			return err
		default:
			return MapError(err, "user", "upsert")
		}
	})
	if err != nil {
		log.Error("failed to upsert user", "error", err)
		return nil, false, err
	}

	log.Debug("user upserted", "created", created, "auth_method", string(current.AuthMethod))
	return current, created, nil
}

// RecordLogin implements store.UserStore.RecordLogin.
func (s *PostgresUserStore) RecordLogin(ctx context.Context, email string, at time.Time) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE users SET last_login = $2 WHERE email = $1 RETURNING ` + userColumns

	user, err := scanUser(s.db.QueryRowContext(ctx, query, email, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found for login")
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to record login", "error", err)
		return nil, MapError(err, "user", "record_login")
	}

	return user, nil
}

// GetByEmail implements store.UserStore.GetByEmail.
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getByEmail(ctx, s.db, email)
}

func (s *PostgresUserStore) getByEmail(ctx context.Context, db store.DBTX, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get user by email", "error", err)
		return nil, MapError(err, "user", "get")
	}
	return user, nil
}
