package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/igefined/quote-bridge/internal/domain"
	"github.com/igefined/quote-bridge/internal/domain/mock"
	"github.com/igefined/quote-bridge/internal/session"
)

// newProvider returns a mock whose verbose switch and name are always allowed.
func newProvider(ctrl *gomock.Controller) *mock.MockProvider {
	provider := mock.NewMockProvider(ctrl)
	provider.EXPECT().Name().Return("baostock").AnyTimes()
	provider.EXPECT().SetVerbose(gomock.Any()).Return(false).AnyTimes()
	return provider
}

func TestEnsureFreshLogsInOnce(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	provider := newProvider(ctrl)
	clk := clock.NewMock()

	provider.EXPECT().Login(gomock.Any()).Return(nil).Times(1)

	manager := session.NewManager(provider, clk, time.Hour, zap.NewNop())
	require.Equal(t, uuid.Nil, manager.ID())

	for i := 0; i < 3; i++ {
		require.NoError(t, manager.EnsureFresh(context.Background()))
		clk.Add(10 * time.Minute)
	}
	require.True(t, manager.Authenticated())
	require.NotEqual(t, uuid.Nil, manager.ID())
}

func TestEnsureFreshRenewsStaleSession(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	provider := newProvider(ctrl)
	clk := clock.NewMock()

	provider.EXPECT().Login(gomock.Any()).Return(nil).Times(2)

	manager := session.NewManager(provider, clk, time.Hour, zap.NewNop())
	require.NoError(t, manager.EnsureFresh(context.Background()))
	first := manager.ID()

	// Exactly one hour old is still fresh.
	clk.Add(time.Hour)
	require.NoError(t, manager.EnsureFresh(context.Background()))
	require.Equal(t, first, manager.ID())

	clk.Add(time.Minute)
	require.NoError(t, manager.EnsureFresh(context.Background()))
	require.NotEqual(t, first, manager.ID())
}

func TestEnsureFreshZeroIntervalNeverRenews(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	provider := newProvider(ctrl)
	clk := clock.NewMock()

	provider.EXPECT().Login(gomock.Any()).Return(nil).Times(1)

	manager := session.NewManager(provider, clk, 0, zap.NewNop())
	require.NoError(t, manager.EnsureFresh(context.Background()))
	clk.Add(48 * time.Hour)
	require.NoError(t, manager.EnsureFresh(context.Background()))
}

func TestEnsureFreshScopesVerboseOff(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	provider := mock.NewMockProvider(ctrl)
	provider.EXPECT().Name().Return("baostock").AnyTimes()

	gomock.InOrder(
		provider.EXPECT().SetVerbose(false).Return(true),
		provider.EXPECT().Login(gomock.Any()).Return(nil),
		provider.EXPECT().SetVerbose(true).Return(false),
	)

	manager := session.NewManager(provider, clock.NewMock(), time.Hour, zap.NewNop())
	require.NoError(t, manager.EnsureFresh(context.Background()))
}

func TestEnsureFreshLoginFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	provider := newProvider(ctrl)

	rejected := &domain.ProviderError{Method: domain.MethodLogin, Code: "10001001", Message: "user not exist"}
	provider.EXPECT().Login(gomock.Any()).Return(rejected)

	manager := session.NewManager(provider, clock.NewMock(), time.Hour, zap.NewNop())
	err := manager.EnsureFresh(context.Background())

	var authErr *session.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "baostock", authErr.Provider)

	var providerErr *domain.ProviderError
	require.ErrorAs(t, err, &providerErr)
	require.Equal(t, "10001001", providerErr.Code)
	require.False(t, manager.Authenticated())
}

func TestInvalidateForcesLogin(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	provider := newProvider(ctrl)

	provider.EXPECT().Login(gomock.Any()).Return(nil).Times(2)

	manager := session.NewManager(provider, clock.NewMock(), time.Hour, zap.NewNop())
	require.NoError(t, manager.EnsureFresh(context.Background()))
	manager.Invalidate()
	require.False(t, manager.Authenticated())
	require.NoError(t, manager.EnsureFresh(context.Background()))
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	provider := newProvider(ctrl)

	provider.EXPECT().Login(gomock.Any()).Return(nil)
	provider.EXPECT().Logout(gomock.Any()).Return(nil).Times(1)

	manager := session.NewManager(provider, clock.NewMock(), time.Hour, zap.NewNop())

	// Nothing to close before the first login.
	require.NoError(t, manager.Close(context.Background()))

	require.NoError(t, manager.EnsureFresh(context.Background()))
	require.NoError(t, manager.Close(context.Background()))
	require.NoError(t, manager.Close(context.Background()))
	require.False(t, manager.Authenticated())
}

func TestCloseReportsLogoutError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	provider := newProvider(ctrl)

	provider.EXPECT().Login(gomock.Any()).Return(nil)
	provider.EXPECT().Logout(gomock.Any()).Return(domain.ErrNotConnected)

	manager := session.NewManager(provider, clock.NewMock(), time.Hour, zap.NewNop())
	require.NoError(t, manager.EnsureFresh(context.Background()))

	err := manager.Close(context.Background())
	require.True(t, errors.Is(err, domain.ErrNotConnected))
	require.False(t, manager.Authenticated())
}
