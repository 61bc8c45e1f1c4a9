package connection

import (
	"context"
	"net/http"

	"github.com/yndnr/timi-go/internal/core/domain"
	"github.com/yndnr/timi-go/internal/core/service"
)

// Auth endpoints.
const (
	PathLogin    = "/login"
	PathRegister = "/register"
)

// AuthClient implements service.AuthBackend.
type AuthClient struct {
	http *HTTPClient
}

var _ service.AuthBackend = (*AuthClient)(nil)

// NewAuthClient creates an AuthClient.
func NewAuthClient(c *HTTPClient) *AuthClient {
	return &AuthClient{http: c}
}

// Login exchanges credentials for a token.
func (a *AuthClient) Login(ctx context.Context, req *service.LoginRequest) (*service.AuthResult, error) {
	return a.authenticate(ctx, PathLogin, req)
}

// Register creates an account and returns its token.
func (a *AuthClient) Register(ctx context.Context, req *service.RegisterRequest) (*service.AuthResult, error) {
	return a.authenticate(ctx, PathRegister, req)
}

func (a *AuthClient) authenticate(ctx context.Context, path string, body any) (*service.AuthResult, error) {
	resp, err := a.http.Post(ctx, path, "", body)
	if err != nil {
		return nil, err
	}

	var result service.AuthResult
	if err := ParseResponse(resp, &result); err != nil {
		return nil, authError(path, err)
	}
	if result.AccessToken == "" {
		return nil, domain.ErrBackend.WithDetails(path + ": response has no access_token")
	}
	return &result, nil
}

func authError(path string, err error) error {
	detail := detailOf(err)

	switch statusOf(err) {
	case http.StatusUnauthorized:
		if detail == "" {
			detail = "invalid credentials"
		}
		return domain.ErrInvalidCredentials.WithDetails(detail).WithCause(err)
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return domain.ErrValidation.WithDetails(detail).WithCause(err)
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited.WithDetails(detail).WithCause(err)
	default:
		return backendError("POST "+path, err)
	}
}
