package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/drrm-training-api/internal/models"
	appErrors "github.com/noah-isme/drrm-training-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail      *models.User
	findByEmailErr   error
	lastLoginUpdated bool
	requestedEmail   string
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.requestedEmail = email
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func newAuthUser(t *testing.T, active bool) *models.User {
	t.Helper()
	password, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: "123", Email: "trainer@drrm.example.ph", FullName: "Juan Dela Cruz", PasswordHash: string(password), Active: active, Role: models.RoleTrainer}
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: newAuthUser(t, true)}
	audit := &auditLoggerStub{}
	svc := NewAuthService(repo, audit, validator.New(), zap.NewNop(), AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "drrm-training-api"})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: " Trainer@DRRM.example.ph ", Password: "password", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, models.RoleTrainer, res.User.Role)
	assert.Equal(t, "trainer@drrm.example.ph", repo.requestedEmail)
	assert.True(t, repo.lastLoginUpdated)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionLogin, audit.logs[0].Action)
	assert.Equal(t, "10.0.0.1", audit.logs[0].IPAddress)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "123", claims.UserID)
	assert.Equal(t, models.RoleTrainer, claims.Role)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: newAuthUser(t, false)}
	svc := NewAuthService(repo, nil, validator.New(), zap.NewNop(), AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "trainer@drrm.example.ph", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginFailureIsAudited(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: newAuthUser(t, true)}
	audit := &auditLoggerStub{}
	svc := NewAuthService(repo, audit, nil, nil, AuthConfig{AccessTokenSecret: "secret"})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "trainer@drrm.example.ph", Password: "wrong", IP: "10.0.0.9"})
	require.Error(t, err)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionLoginFailed, audit.logs[0].Action)
	assert.Nil(t, audit.logs[0].UserID)
	assert.JSONEq(t, `{"email":"trainer@drrm.example.ph","status":"INVALID_CREDENTIALS"}`, string(audit.logs[0].NewValues))
	assert.False(t, repo.lastLoginUpdated)
}

func TestAuthServiceLoginRejectsBadCredentials(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{userByEmail: newAuthUser(t, true)}, nil, nil, nil, AuthConfig{AccessTokenSecret: "secret"})
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "trainer@drrm.example.ph", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	svc = NewAuthService(&mockAuthRepo{findByEmailErr: sql.ErrNoRows}, nil, nil, nil, AuthConfig{AccessTokenSecret: "secret"})
	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ghost@drrm.example.ph", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsForeignTokens(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, nil, nil, nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "drrm-training-api"})
	user := &models.User{ID: "u1", Email: "admin@drrm.example.ph", Role: models.RoleAdmin}

	token, err := svc.generateAccessToken(user, time.Now())
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	require.NoError(t, err)

	other := NewAuthService(&mockAuthRepo{}, nil, nil, nil, AuthConfig{AccessTokenSecret: "other", AccessTokenExpiry: time.Hour, Issuer: "drrm-training-api"})
	_, err = other.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	expired, err := svc.generateAccessToken(user, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	require.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &models.JWTClaims{UserID: "u1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(unsigned)
	require.Error(t, err)
}
