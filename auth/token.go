package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/apifire/endpoint"
	"github.com/kbukum/apifire/errors"
)

// TokenExpiry returns the expiry of a JWT without verifying its signature.
// ok is false when the token carries no exp claim.
func TokenExpiry(token string) (exp time.Time, ok bool, err error) {
	claims := &gojwt.RegisteredClaims{}
	if _, _, err := gojwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false, fmt.Errorf("auth: parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false, nil
	}
	return claims.ExpiresAt.Time, true, nil
}

// TokenPreflight returns a preflight check that fails when the token from
// source is missing, or expires within leeway. The failure is a
// TokenExpired error wrapping jwt.ErrTokenExpired.
func TokenPreflight(source TokenSource, leeway time.Duration) endpoint.PreflightFunc {
	return func(ctx context.Context) error {
		token, err := source()
		if err != nil {
			return errors.PreflightFailed(err)
		}
		if token == "" {
			return errors.TokenExpired().WithDetail("reason", "missing token")
		}

		exp, ok, err := TokenExpiry(token)
		if err != nil {
			return errors.PreflightFailed(err)
		}
		if ok && !time.Now().Add(leeway).Before(exp) {
			return errors.TokenExpired().
				WithCause(gojwt.ErrTokenExpired).
				WithDetail("expired_at", exp.UTC().Format(time.RFC3339))
		}
		return nil
	}
}

// TokenExpiredTransform fails the call with ExpiredTokenError(err). Use
// it as an endpoint TransformError:
//
//	TransformError: auth.TokenExpiredTransform[Profile]
func TokenExpiredTransform[T any](err error) endpoint.Result[T] {
	return endpoint.Failure[T](ExpiredTokenError(err))
}

// ExpiredTokenError maps expired-token failures to a TokenExpired error
// and returns any other error unchanged. It recognizes jwt.ErrTokenExpired
// anywhere in the chain and NotOkResponse errors with status 401.
func ExpiredTokenError(err error) error {
	if err == nil || errors.IsTokenExpired(err) {
		return err
	}
	if errors.Is(err, gojwt.ErrTokenExpired) {
		return errors.TokenExpired().WithCause(err)
	}
	if appErr, ok := errors.AsAppError(err); ok &&
		appErr.Code == errors.ErrCodeNotOkResponse && appErr.StatusCode == http.StatusUnauthorized {
		return errors.TokenExpired().WithCause(err)
	}
	return err
}
