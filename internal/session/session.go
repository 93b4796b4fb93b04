// Package session keeps the upstream provider logged in, renewing the login
// once it is older than the configured interval.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/igefined/quote-bridge/internal/domain"
)

// AuthenticationError is fatal: the bridge cannot serve without a session.
type AuthenticationError struct {
	Provider string
	Err      error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authenticate with %s: %v", e.Provider, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

type Manager struct {
	provider domain.Provider
	clock    clock.Clock
	interval time.Duration
	logger   *zap.Logger

	mu                  sync.Mutex
	authenticated       bool
	lastAuthenticatedAt time.Time
	id                  uuid.UUID
}

// NewManager returns a manager that is not yet logged in. An interval of
// zero disables renewal.
func NewManager(provider domain.Provider, clk clock.Clock, interval time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		provider: provider,
		clock:    clk,
		interval: interval,
		logger:   logger.Named("session"),
	}
}

// EnsureFresh logs in when there is no session or the current one is older
// than the renewal interval.
func (m *Manager) EnsureFresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if m.authenticated {
		if m.interval <= 0 || now.Sub(m.lastAuthenticatedAt) <= m.interval {
			return nil
		}
		m.logger.Info("Renewing session",
			zap.Stringer("session_id", m.id),
			zap.Duration("age", now.Sub(m.lastAuthenticatedAt)))
	}

	if err := m.quietly(func() error { return m.provider.Login(ctx) }); err != nil {
		m.authenticated = false
		return &AuthenticationError{Provider: m.provider.Name(), Err: err}
	}

	m.authenticated = true
	m.lastAuthenticatedAt = now
	m.id = uuid.New()
	m.logger.Info("Logged in",
		zap.String("provider", m.provider.Name()),
		zap.Stringer("session_id", m.id))
	return nil
}

// Invalidate forgets the current session so the next EnsureFresh logs in
// again. It is used after a transport failure.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.authenticated {
		m.logger.Warn("Session invalidated", zap.Stringer("session_id", m.id))
	}
	m.authenticated = false
}

// Close logs out. Calling it without a session, or twice, does nothing.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.authenticated {
		return nil
	}
	m.authenticated = false

	if err := m.quietly(func() error { return m.provider.Logout(ctx) }); err != nil {
		return fmt.Errorf("logout from %s: %w", m.provider.Name(), err)
	}
	m.logger.Info("Logged out", zap.Stringer("session_id", m.id))
	return nil
}

func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticated
}

// ID returns the id of the current session, or uuid.Nil before the first login.
func (m *Manager) ID() uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

// quietly runs fn with the provider's console banners switched off.
func (m *Manager) quietly(fn func() error) error {
	prev := m.provider.SetVerbose(false)
	defer m.provider.SetVerbose(prev)
	return fn()
}
