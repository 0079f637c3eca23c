package services

import (
	"context"
	"testing"
	"time"

	"blogapi/models"
	"blogapi/repository"
	"blogapi/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService() (*UserService, *utils.TokenIssuer) {
	tokens := utils.NewTokenIssuer("test-secret", time.Hour)
	return NewUserService(repository.NewMemoryStore().Users(), tokens), tokens
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	svc, tokens := newUserService()
	ctx := context.Background()

	reg, err := svc.Register(ctx, &models.RegisterRequest{
		Email: " Ann@Example.com ", Password: "hunter22", FullName: "Ann Author",
	})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", reg.User.Email)
	assert.Len(t, reg.User.ID, 24)

	userID, err := tokens.Validate(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, userID)

	login, err := svc.Login(ctx, &models.LoginRequest{Email: "ANN@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	me, err := svc.GetUserByID(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann Author", me.FullName)
}

func TestUserService_RegisterDuplicate(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()
	req := &models.RegisterRequest{Email: "ann@example.com", Password: "hunter22", FullName: "Ann"}

	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserService_LoginFailures(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()
	_, err := svc.Register(ctx, &models.RegisterRequest{Email: "ann@example.com", Password: "hunter22", FullName: "Ann"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &models.LoginRequest{Email: "ann@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &models.LoginRequest{Email: "bob@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
