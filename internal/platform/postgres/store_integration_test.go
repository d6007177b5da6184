//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/platform/postgres"
	"github.com/phrazzld/taskmaster-api/internal/store"
	"github.com/phrazzld/taskmaster-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_TaskListStore(t *testing.T) {
	db := testdb.OpenPostgres(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		s := postgres.NewPostgresTaskListStore(tx, nil)
		now := time.Now().UTC()

		res, err := s.Append(ctx, "a@x.com", domain.Task{"id": "1", "title": "A"}, now)
		require.NoError(t, err)
		assert.Equal(t, store.WriteResult{Size: 1, Created: true, Revision: 1}, res)

		_, err = s.Append(ctx, "a@x.com", domain.Task{"id": "2"}, now)
		require.NoError(t, err)
		_, err = s.Append(ctx, "a@x.com", domain.Task{"id": "1", "title": "dup"}, now)
		require.NoError(t, err)

		upd, err := s.UpdateTask(ctx, "a@x.com", "1", domain.Task{"id": "1", "title": "B"}, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), upd.Matched)
		assert.Equal(t, int64(4), upd.Revision)

		rm, err := s.RemoveTask(ctx, "a@x.com", "1", now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rm.Matched)

		list, err := s.Get(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, []domain.Task{{"id": "2"}, {"id": "1", "title": "dup"}}, list.Tasks,
			"only the first matching task is updated and then removed")
		assert.Equal(t, int64(5), list.Revision)

		none, err := s.RemoveTask(ctx, "a@x.com", "missing", now)
		require.NoError(t, err)
		assert.Zero(t, none.Matched)

		_, err = s.Get(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, store.ErrTaskListNotFound)
	})
}

func TestIntegration_ConcurrentAppends(t *testing.T) {
	db := testdb.OpenPostgres(t)
	s := postgres.NewPostgresTaskListStore(db, nil)
	ctx := context.Background()

	const writers = 25
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := s.Append(ctx, "a@x.com", domain.Task{"id": fmt.Sprint(i)}, time.Now().UTC())
			if !assert.NoError(t, err) {
				return
			}
			if res.Created {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	list, err := s.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, list.Tasks, writers)
	assert.Equal(t, int64(writers), list.Revision)
	assert.Equal(t, 1, created)
}

func TestIntegration_UserStore(t *testing.T) {
	db := testdb.OpenPostgres(t)
	s := postgres.NewPostgresUserStore(db, nil)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	user, err := domain.NewUser("a@x.com", "Ann", "", domain.AuthMethodEmail, now)
	require.NoError(t, err)

	got, created, err := s.Upsert(ctx, user)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Nil(t, got.UpdatedAt)

	got, created, err = s.Upsert(ctx, user)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, got.UpdatedAt)

	switched := *user
	switched.AuthMethod = domain.AuthMethodGoogle
	switched.LastLogin = now.Add(time.Minute)
	got, created, err = s.Upsert(ctx, &switched)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, domain.AuthMethodGoogle, got.AuthMethod)
	require.NotNil(t, got.UpdatedAt)

	_, err = s.RecordLogin(ctx, "ghost@x.com", now)
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	_, err = s.GetByEmail(ctx, "A@x.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound, "emails are case-sensitive")
}
