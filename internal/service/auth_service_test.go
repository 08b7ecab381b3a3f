package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/arenafit/schedule-api/internal/models"
	"github.com/arenafit/schedule-api/pkg/config"
	appErrors "github.com/arenafit/schedule-api/pkg/errors"
)

type memUserRepo struct {
	users map[string]*models.User
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (m *memUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "u-new"
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *memUserRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	if user, ok := m.users[id]; ok {
		user.LastLogin = &at
	}
	return nil
}

func newAuthFixture(t *testing.T) (*memUserRepo, *AuthService) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &memUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "planner@arenafit.com", PasswordHash: string(hash), FullName: "Planner", Role: models.RolePlanner, Active: true},
	}}
	svc := NewAuthService(repo, config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "schedule-api"}, nil, nil)
	return repo, svc
}

func TestLoginIssuesValidToken(t *testing.T) {
	repo, svc := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "planner@arenafit.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.NotNil(t, repo.users["u1"].LastLogin)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RolePlanner, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	_, svc := newAuthFixture(t)
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "planner@arenafit.com", Password: "wrong"})
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestLoginUnknownEmail(t *testing.T) {
	_, svc := newAuthFixture(t)
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@arenafit.com", Password: "whatever"})
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestLoginDisabledAccount(t *testing.T) {
	repo, svc := newAuthFixture(t)
	repo.users["u1"].Active = false
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "planner@arenafit.com", Password: "correct horse"})
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, svc := newAuthFixture(t)
	_, err := svc.Register(context.Background(), RegisterUserRequest{
		Email:    "planner@arenafit.com",
		Password: "another pass",
		FullName: "Dup",
		Role:     models.RoleViewer,
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, svc := newAuthFixture(t)
	_, err := svc.ValidateToken("not.a.token")
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}
