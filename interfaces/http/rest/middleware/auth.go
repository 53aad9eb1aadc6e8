package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"knowspark/pkg/auth"
	pkgerrors "knowspark/pkg/errors"

	"go.uber.org/zap"
)

// Authenticate verifies the bearer token and applies the per-IP and
// per-user request budgets. A limiter that errors lets the request through.
func Authenticate(
	verifier auth.TokenVerifier,
	ipLimiter *auth.IPRateLimiter,
	userLimiter *auth.UserRateLimiter,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)
			if ipLimiter != nil && !permitted(r.Context(), ipLimiter.Allow, clientIP, logger) {
				errs.Handle(w, r, pkgerrors.NewThrottledError("too many requests from this address").WithCode("IP_RATE_LIMIT"))
				return
			}

			token := extractToken(r)
			if token == "" {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError(auth.ErrMissingToken.Error()))
				return
			}

			user, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.Warn("Token rejected",
					zap.Error(err),
					zap.String("ip", clientIP),
					zap.String("path", r.URL.Path),
				)
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError(tokenMessage(err)))
				return
			}

			if userLimiter != nil && !permitted(r.Context(), userLimiter.Allow, user.UserID, logger) {
				errs.Handle(w, r, pkgerrors.NewThrottledError("too many requests for this user").WithCode("USER_RATE_LIMIT"))
				return
			}

			logger.Debug("Request authenticated",
				zap.String("userID", user.UserID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), user)))
		})
	}
}

// LimitByIP applies only the per-IP budget
func LimitByIP(ipLimiter *auth.IPRateLimiter, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ipLimiter != nil && !permitted(r.Context(), ipLimiter.Allow, getClientIP(r), logger) {
				errs.Handle(w, r, pkgerrors.NewThrottledError("too many requests from this address").WithCode("IP_RATE_LIMIT"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func permitted(ctx context.Context, allow func(context.Context, string) (bool, error), key string, logger *zap.Logger) bool {
	ok, err := allow(ctx, key)
	if err != nil {
		logger.Warn("Rate limiter unavailable", zap.Error(err), zap.String("key", key))
		return true
	}
	return ok
}

func tokenMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "token has expired"
	case errors.Is(err, auth.ErrMissingToken):
		return "missing authentication token"
	default:
		return "invalid token"
	}
}

// extractToken reads the bearer token from the Authorization header or the
// auth_token cookie
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// getClientIP extracts the client IP address
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
