package service

import (
	"context"
	"testing"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("ok with role", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewUserService(users, new(MockTitleCache))
		u := &models.User{Username: "mod", Email: "mod@example.com", Role: models.RoleModerator}
		users.On("FindByUsername", ctx, "mod").Return(nil, gorm.ErrRecordNotFound)
		users.On("FindByEmail", ctx, "mod@example.com").Return(nil, gorm.ErrRecordNotFound)
		users.On("Create", ctx, u).Return(nil)

		require.NoError(t, svc.Create(ctx, u))
	})

	t.Run("username taken", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewUserService(users, new(MockTitleCache))
		users.On("FindByUsername", ctx, "mod").Return(&models.User{ID: "other"}, nil)

		err := svc.Create(ctx, &models.User{Username: "mod", Email: "mod@example.com"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "username")
	})

	t.Run("bad role", func(t *testing.T) {
		svc := NewUserService(new(MockUserRepository), new(MockTitleCache))
		err := svc.Create(ctx, &models.User{Username: "x", Email: "x@example.com", Role: "god"})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestUserUpdate_SelfCannotChangeRole(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	svc := NewUserService(users, new(MockTitleCache))

	me := &models.User{ID: "u1", Username: "reader", Email: "reader@example.com", Role: models.RoleUser}
	users.On("FindByUsername", ctx, "reader").Return(me, nil)
	users.On("FindByEmail", ctx, "reader@example.com").Return(me, nil)
	users.On("Update", ctx, me).Return(nil)

	role := "admin"
	bio := "hello"
	got, err := svc.Update(ctx, "reader", dto.UpdateUserDTO{Role: &role, Bio: &bio}, false)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, got.Role)
	assert.Equal(t, "hello", got.Bio)
}

func TestUserUpdate_AdminChangesRole(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	svc := NewUserService(users, new(MockTitleCache))

	u := &models.User{ID: "u1", Username: "reader", Email: "reader@example.com", Role: models.RoleUser}
	users.On("FindByUsername", ctx, "reader").Return(u, nil)
	users.On("FindByEmail", ctx, "reader@example.com").Return(u, nil)
	users.On("Update", ctx, mock.Anything).Return(nil)

	role := "moderator"
	got, err := svc.Update(ctx, "reader", dto.UpdateUserDTO{Role: &role}, true)
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, got.Role)
}

func TestUserGetAndDelete_NotFound(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	svc := NewUserService(users, new(MockTitleCache))

	users.On("FindByUsername", ctx, "ghost").Return(nil, gorm.ErrRecordNotFound)
	users.On("Delete", ctx, "ghost").Return(gorm.ErrRecordNotFound)

	_, err := svc.Get(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "ghost"), ErrNotFound)
}

func TestUserDelete_FlushesTitleCache(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	titles := new(MockTitleCache)
	svc := NewUserService(users, titles)

	users.On("Delete", ctx, "reader").Return(nil)
	titles.On("InvalidateAll", ctx).Return(nil)

	require.NoError(t, svc.Delete(ctx, "reader"))
	titles.AssertExpectations(t)
}
