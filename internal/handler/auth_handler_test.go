package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drrm-training-api/internal/middleware"
	"github.com/noah-isme/drrm-training-api/internal/models"
	appErrors "github.com/noah-isme/drrm-training-api/pkg/errors"
)

type authServiceStub struct {
	req models.LoginRequest
}

func (s *authServiceStub) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	s.req = req
	if req.Password != "secret" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &models.LoginResponse{AccessToken: "token", TokenType: "Bearer"}, nil
}

func TestAuthHandlerLogin(t *testing.T) {
	svc := &authServiceStub{}
	handler := NewAuthHandler(svc)
	c, w := newJSONContext(t, http.MethodPost, "/auth/login", []byte(`{"email":"admin@drrm.local","password":"secret"}`))
	c.Request.Header.Set("User-Agent", "portal-test")

	handler.Login(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "portal-test", svc.req.UserAgent)
	assert.Contains(t, string(decodeEnvelope(t, w)["data"]), `"access_token":"token"`)
}

func TestAuthHandlerLoginRejected(t *testing.T) {
	handler := NewAuthHandler(&authServiceStub{})
	c, w := newJSONContext(t, http.MethodPost, "/auth/login", []byte(`{"email":"admin@drrm.local","password":"nope"}`))

	handler.Login(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	handler := NewAuthHandler(&authServiceStub{})
	c, w := newJSONContext(t, http.MethodGet, "/auth/me", nil)
	handler.Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newJSONContext(t, http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Email: "a@b.c", Role: models.RoleTrainer})
	handler.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w)["data"]), `"role":"TRAINER"`)
}
