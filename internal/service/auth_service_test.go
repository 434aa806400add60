package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/uniport-dev/uni-portal-api/internal/models"
	appErrors "github.com/uniport-dev/uni-portal-api/pkg/errors"
)

type authRepoStub struct {
	users         map[string]*models.User
	byEmail       map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	created       []*models.User
	revoked       []string
}

func newAuthRepoStub() *authRepoStub {
	return &authRepoStub{
		users:         make(map[string]*models.User),
		byEmail:       make(map[string]*models.User),
		refreshTokens: make(map[string]*models.RefreshToken),
	}
}

func (s *authRepoStub) addUser(u models.User) {
	s.users[u.ID] = &u
	s.byEmail[u.Email] = &u
}

func (s *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) Create(ctx context.Context, user *models.User) error {
	s.created = append(s.created, user)
	s.addUser(*user)
	return nil
}

func (s *authRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (s *authRepoStub) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if u, ok := s.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (s *authRepoStub) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	s.revoked = append(s.revoked, userID)
	return nil
}

func (s *authRepoStub) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	s.refreshTokens[token.Token] = token
	return nil
}

func (s *authRepoStub) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := s.refreshTokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, t := range s.refreshTokens {
		if t.ID == id {
			t.Revoked = true
		}
	}
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *authRepoStub) {
	repo := newAuthRepoStub()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo.addUser(models.User{
		ID:           "u1",
		Email:        "admin@uni.test",
		PasswordHash: string(hash),
		FullName:     "Admin",
		Role:         models.RoleAdmin,
		Active:       true,
	})
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "uni-portal-api",
	})
	return svc, repo
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	svc, _ := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@uni.test", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "u1", res.User.ID)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@uni.test", Password: "nope12"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@uni.test", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	svc, repo := newAuthFixture(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	repo.addUser(models.User{ID: "u2", Email: "gone@uni.test", PasswordHash: string(hash), Active: false})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "gone@uni.test", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	svc, repo := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@uni.test", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: res.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, refreshed.RefreshToken)

	old := repo.refreshTokens[res.RefreshToken]
	assert.True(t, old.Revoked, "used refresh token is revoked on rotation")
}

func TestAuthServiceRefreshExpiredToken(t *testing.T) {
	svc, repo := newAuthFixture(t)
	repo.refreshTokens["stale"] = &models.RefreshToken{
		ID:        "rt1",
		UserID:    "u1",
		Token:     "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "admin@uni.test",
		Password: "secret123",
		FullName: "Clone",
		Role:     models.RoleAdmin,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterCreatesActiveUser(t *testing.T) {
	svc, repo := newAuthFixture(t)

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "teacher@uni.test",
		Password: "secret123",
		FullName: "New Teacher",
		Role:     models.RoleTeacher,
	})
	require.NoError(t, err)
	assert.True(t, user.Active)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	require.Len(t, repo.created, 1)
}

func TestAuthServiceChangePasswordRevokesSessions(t *testing.T) {
	svc, repo := newAuthFixture(t)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		OldPassword: "secret123",
		NewPassword: "fresh-secret",
	})
	require.NoError(t, err)
	assert.Contains(t, repo.revoked, "u1")

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "admin@uni.test", Password: "fresh-secret"})
	require.NoError(t, err)
}

func TestAuthServiceLogoutForeignToken(t *testing.T) {
	svc, repo := newAuthFixture(t)
	repo.refreshTokens["other"] = &models.RefreshToken{
		ID:        "rt2",
		UserID:    "someone-else",
		Token:     "other",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}

	err := svc.Logout(context.Background(), "other", "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
