package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ksndmc/flow-api/internal/models"
	appErrors "github.com/ksndmc/flow-api/pkg/errors"
)

type mockAuthRepo struct {
	users map[string]*models.User
}

func (m *mockAuthRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func newAuthService(t *testing.T) (*AuthService, *models.User) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           "1",
		Name:         "Admin",
		Email:        "admin@ksndmcflow.com",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		EmployeeType: models.EmployeeRegular,
		Position:     "Administrator",
	}
	repo := &mockAuthRepo{users: map[string]*models.User{user.ID: user}}
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "flow-api-test",
	})
	return svc, user
}

func TestLoginSuccess(t *testing.T) {
	svc, user := newAuthService(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@ksndmcflow.com",
		Password: "admin123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@ksndmcflow.com",
		Password: "nope",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	assert.Equal(t, invalidCredentialsMessage, appErr.Message)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ghost@ksndmcflow.com",
		Password: "admin123",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	assert.Equal(t, invalidCredentialsMessage, appErr.Message)
}

func TestValidateToken(t *testing.T) {
	svc, user := newAuthService(t)

	token, _, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, user.Email, claims.Email)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	svc, user := newAuthService(t)

	token, _, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token + "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
