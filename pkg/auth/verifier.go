package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/supabase-community/supabase-go"
)

// TokenVerifier resolves a bearer token to the caller it was issued to
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*UserContext, error)
}

// JWTVerifier verifies locally signed tokens
type JWTVerifier struct {
	validator *JWTValidator
}

// NewJWTVerifier wraps a validator
func NewJWTVerifier(validator *JWTValidator) *JWTVerifier {
	return &JWTVerifier{validator: validator}
}

// Verify validates the token signature and claims
func (v *JWTVerifier) Verify(_ context.Context, token string) (*UserContext, error) {
	claims, err := v.validator.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	roles := claims.Roles
	if len(roles) == 0 {
		roles = []string{"authenticated"}
	}
	return &UserContext{UserID: claims.UserID, Email: claims.Email, Roles: roles}, nil
}

// SupabaseVerifier asks Supabase Auth who a session token belongs to
type SupabaseVerifier struct {
	client *supabase.Client
}

// NewSupabaseVerifier creates a verifier using the service role key
func NewSupabaseVerifier(url, serviceRoleKey string) (*SupabaseVerifier, error) {
	if url == "" || serviceRoleKey == "" {
		return nil, errors.New("supabase url and service role key are required")
	}
	client, err := supabase.NewClient(url, serviceRoleKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &SupabaseVerifier{client: client}, nil
}

// Verify looks the session up with Supabase Auth
func (v *SupabaseVerifier) Verify(_ context.Context, token string) (*UserContext, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	user, err := v.client.Auth.WithToken(token).GetUser()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	roles := []string{"authenticated"}
	if user.Role != "" {
		roles = []string{user.Role}
	}
	return &UserContext{
		UserID: user.ID.String(),
		Email:  user.Email,
		Roles:  roles,
	}, nil
}
