package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/taskmaster-api/internal/domain"
	"github.com/phrazzld/taskmaster-api/internal/mocks"
	"github.com/phrazzld/taskmaster-api/internal/platform/memory"
	"github.com/phrazzld/taskmaster-api/internal/service"
	"github.com/phrazzld/taskmaster-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserService_Upsert(t *testing.T) {
	ctx := context.Background()
	svc := service.NewUserService(memory.NewUserStore(), nil)

	user, created, err := svc.Upsert(ctx, "a@x.com", "Ann", "https://img", domain.AuthMethodEmail)
	require.NoError(t, err)
	assert.True(t, created)
	assert.WithinDuration(t, time.Now(), user.CreatedAt, 2*time.Second)
	assert.Equal(t, user.CreatedAt, user.LastLogin)

	again, created, err := svc.Upsert(ctx, "a@x.com", "Ann", "https://img", domain.AuthMethodEmail)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.LastLogin, again.LastLogin)
	assert.Nil(t, again.UpdatedAt)

	switched, created, err := svc.Upsert(ctx, "a@x.com", "Ann", "https://img", domain.AuthMethodApple)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, domain.AuthMethodApple, switched.AuthMethod)
	assert.Equal(t, user.CreatedAt, switched.CreatedAt)
	require.NotNil(t, switched.UpdatedAt)
	assert.Equal(t, *switched.UpdatedAt, switched.LastLogin)
}

func TestUserService_UpsertValidation(t *testing.T) {
	users := &mocks.TestifyMockUserStore{}
	svc := service.NewUserService(users, nil)

	_, _, err := svc.Upsert(context.Background(), "", "", "", domain.AuthMethodEmail)
	assert.ErrorIs(t, err, domain.ErrEmptyEmail)

	_, _, err = svc.Upsert(context.Background(), "a@x.com", "", "", domain.AuthMethod("myspace"))
	assert.ErrorIs(t, err, domain.ErrInvalidAuthMethod)

	users.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestUserService_UpsertStoreFailure(t *testing.T) {
	users := &mocks.TestifyMockUserStore{}
	users.On("Upsert", mock.Anything, mock.AnythingOfType("*domain.User")).
		Return(nil, false, store.NewStoreError("user", "upsert", "database error", errors.New("down")))
	svc := service.NewUserService(users, nil)

	_, _, err := svc.Upsert(context.Background(), "a@x.com", "", "", domain.AuthMethodGoogle)
	assert.True(t, store.IsStoreError(err))
	users.AssertExpectations(t)
}

func TestUserService_RecordLogin(t *testing.T) {
	ctx := context.Background()
	svc := service.NewUserService(memory.NewUserStore(), nil)

	_, err := svc.RecordLogin(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	user, _, err := svc.Upsert(ctx, "a@x.com", "", "", domain.AuthMethodEmail)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	got, err := svc.RecordLogin(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, got.LastLogin.After(user.LastLogin))
	assert.Equal(t, user.CreatedAt, got.CreatedAt)
}

func TestUserService_Get(t *testing.T) {
	ctx := context.Background()
	svc := service.NewUserService(memory.NewUserStore(), nil)

	_, err := svc.Get(ctx, "a@x.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	_, _, err = svc.Upsert(ctx, "a@x.com", "Ann", "", domain.AuthMethodGitHub)
	require.NoError(t, err)

	got, err := svc.Get(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.DisplayName)

	_, err = svc.Get(ctx, "")
	assert.ErrorIs(t, err, domain.ErrEmptyEmail)
}
