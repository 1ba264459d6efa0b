package endpoint

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kbukum/apifire/errors"
)

func TestPreflight(t *testing.T) {
	tests := []struct {
		name     string
		endpoint Endpoint
		wantCode errors.ErrorCode
	}{
		{name: "valid", endpoint: Endpoint{URL: "https://example.com/a"}},
		{name: "missing url", endpoint: Endpoint{}, wantCode: errors.ErrCodeInvalidEndpoint},
		{name: "relative url", endpoint: Endpoint{URL: "/a"}, wantCode: errors.ErrCodeInvalidEndpoint},
		{name: "unknown method", endpoint: Endpoint{URL: "https://example.com", Method: "FETCH"}, wantCode: errors.ErrCodeInvalidEndpoint},
		{name: "negative timeout", endpoint: Endpoint{URL: "https://example.com", Timeout: -time.Second}, wantCode: errors.ErrCodeInvalidEndpoint},
		{
			name: "user preflight error wrapped",
			endpoint: Endpoint{URL: "https://example.com", Preflight: func(context.Context) error {
				return fmt.Errorf("not signed in")
			}},
			wantCode: errors.ErrCodePreflightFailed,
		},
		{
			name: "user preflight app error kept",
			endpoint: Endpoint{URL: "https://example.com", Preflight: func(context.Context) error {
				return errors.TokenExpired()
			}},
			wantCode: errors.ErrCodeTokenExpired,
		},
		{
			name: "user preflight passes",
			endpoint: Endpoint{URL: "https://example.com", Preflight: func(context.Context) error {
				return nil
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Preflight(context.Background(), &tt.endpoint)
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.HasCode(err, tt.wantCode) {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestPreflight_StructuralCheckRunsFirst(t *testing.T) {
	called := false
	e := &Endpoint{Preflight: func(context.Context) error {
		called = true
		return nil
	}}
	if err := Preflight(context.Background(), e); err == nil {
		t.Fatal("expected error for missing url")
	}
	if called {
		t.Error("expected user preflight to be skipped")
	}
}

func TestRecoverError(t *testing.T) {
	orig := fmt.Errorf("orig")
	if got := recoverError[int](nil, orig); got.Err() != orig {
		t.Errorf("expected original error without transform, got %v", got.Err())
	}
	repl := fmt.Errorf("replaced")
	if got := recoverError(func(error) Result[int] { return Failure[int](repl) }, orig); got.Err() != repl {
		t.Errorf("expected replaced error, got %v", got.Err())
	}
	got := recoverError(func(error) Result[int] { return Success(7) }, orig)
	if v, err := got.Unwrap(); err != nil || v != 7 {
		t.Errorf("expected recovered 7, got %d (%v)", v, err)
	}
}
