package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nutrimom/api/internal/infrastructure/config"
	apperrors "github.com/nutrimom/api/pkg/errors"
	"go.uber.org/zap"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Authenticator verifies HMAC signed bearer tokens. Tokens are issued by
// the account service; only the user id claim is read here.
type Authenticator struct {
	secret []byte
	issuer string
	claim  string
	logger *zap.Logger
}

// NewAuthenticator creates an authenticator from the auth section
func NewAuthenticator(cfg config.AuthConfig, logger *zap.Logger) *Authenticator {
	claim := cfg.UserIDClaim
	if claim == "" {
		claim = "user_id"
	}
	return &Authenticator{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		claim:  claim,
		logger: logger.Named("auth"),
	}
}

// Middleware rejects requests without a valid bearer token and stores the
// caller's user id in the request context
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			RespondError(w, r, apperrors.NewUnauthorizedError("Missing Bearer token"))
			return
		}

		userID, err := a.Verify(strings.TrimSpace(raw))
		if err != nil {
			a.logger.Debug("Token rejected", zap.Error(err))
			RespondError(w, r, apperrors.NewUnauthorizedError("Invalid token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// Verify parses a token and returns the user id it carries
func (a *Authenticator) Verify(raw string) (uint, error) {
	if len(a.secret) == 0 {
		return 0, errors.New("jwt secret is not configured")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...); err != nil {
		return 0, err
	}

	value, ok := claims[a.claim]
	if !ok {
		value, ok = claims["sub"]
	}
	if !ok {
		return 0, fmt.Errorf("token has no %q claim", a.claim)
	}
	return parseUserID(value)
}

func parseUserID(value interface{}) (uint, error) {
	switch v := value.(type) {
	case float64:
		if v < 1 || v > math.MaxUint32 || v != math.Trunc(v) {
			return 0, fmt.Errorf("invalid user id %v", v)
		}
		return uint(v), nil
	case string:
		id, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
		if err != nil || id == 0 {
			return 0, fmt.Errorf("invalid user id %q", v)
		}
		return uint(id), nil
	default:
		return 0, fmt.Errorf("unsupported user id type %T", value)
	}
}

// WithUserID stores the authenticated user id
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the authenticated user id
func UserIDFromContext(ctx context.Context) (uint, bool) {
	userID, ok := ctx.Value(userIDKey).(uint)
	return userID, ok && userID > 0
}
