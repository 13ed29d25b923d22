package service

import (
	"testing"
	"time"

	"pylearn_backend/internal/config"
	"pylearn_backend/internal/model"
	"pylearn_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(env *testEnv) *AuthService {
	cfg := &config.Config{}
	cfg.JWT.Secret = "unit-test-secret-unit-test-secret"
	cfg.JWT.ExpireTime = time.Hour
	return NewAuthService(env.users, cfg)
}

func TestRegisterHashesPasswordAndRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)

	user := &model.User{Name: "dana", Email: "dana@example.com", Password: "s3cret-pass"}
	require.NoError(t, auth.Register(user))
	assert.Equal(t, model.Student, user.Role)
	assert.Equal(t, 1, user.Level)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("s3cret-pass")))

	again := &model.User{Name: "dana again", Email: "dana@example.com", Password: "other-pass"}
	assert.ErrorIs(t, auth.Register(again), util.ErrEmailRegistered)
}

func TestLoginIssuesTokenAndStampsLastLogin(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)

	user := &model.User{Name: "erin", Email: "erin@example.com", Password: "s3cret-pass"}
	require.NoError(t, auth.Register(user))

	// A user who never logged in has no last-login timestamp.
	stored, err := env.users.FindByID(user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LastLogin)

	token, logged, err := auth.Login("erin@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, logged.ID)

	claims, err := util.ParseJWT(token, "unit-test-secret-unit-test-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	stored, err = env.users.FindByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	assert.WithinDuration(t, time.Now(), *stored.LastLogin, time.Minute)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)

	user := &model.User{Name: "frank", Email: "frank@example.com", Password: "s3cret-pass"}
	require.NoError(t, auth.Register(user))

	_, _, err := auth.Login("frank@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = auth.Login("nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user.Disabled = true
	require.NoError(t, env.users.Save(user))
	_, _, err = auth.Login("frank@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
