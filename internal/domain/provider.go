package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConnected is returned by a Provider when the transport to the
// upstream gateway is gone. The session must be re-established.
var ErrNotConnected = errors.New("provider not connected")

// Provider is the upstream market-data collaborator. Implementations are
// single-session and must not be called concurrently.
//
//go:generate mockgen -source=provider.go -destination=mock/provider.go -package=mock
type Provider interface {
	Name() string
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	// SetVerbose switches the provider's console banners and returns the
	// previous setting.
	SetVerbose(verbose bool) bool
	Query(ctx context.Context, query Query) (*ResultSet, error)
}

// ProviderError carries the non-zero error code reported by the upstream.
type ProviderError struct {
	Method  string
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s failed with code %s: %s", e.Method, e.Code, e.Message)
}
