package baostock_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/igefined/quote-bridge/internal/config"
	"github.com/igefined/quote-bridge/internal/domain"
	"github.com/igefined/quote-bridge/internal/providers/baostock"
)

type frame struct {
	ID     uint64            `json:"id"`
	Method string            `json:"method"`
	Params map[string]string `json:"params"`
}

type reply struct {
	ID        uint64     `json:"id"`
	ErrorCode string     `json:"error_code"`
	ErrorMsg  string     `json:"error_msg"`
	Fields    []string   `json:"fields,omitempty"`
	Rows      [][]string `json:"rows,omitempty"`
}

// gateway is a scripted websocket peer. handle builds the reply for each
// request; returning nil closes the connection.
type gateway struct {
	mu       sync.Mutex
	requests []frame
	handle   func(frame) []reply
}

func (g *gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var req frame
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		g.mu.Lock()
		g.requests = append(g.requests, req)
		g.mu.Unlock()

		replies := g.handle(req)
		if replies == nil {
			return
		}
		for _, rep := range replies {
			if err := conn.WriteJSON(rep); err != nil {
				return
			}
		}
	}
}

func (g *gateway) methods() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.requests))
	for i, r := range g.requests {
		out[i] = r.Method
	}
	return out
}

func (g *gateway) request(i int) frame {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[i]
}

func ok(id uint64) reply {
	return reply{ID: id, ErrorCode: "0", ErrorMsg: "success"}
}

func newProvider(t *testing.T, g *gateway) *baostock.Provider {
	t.Helper()
	server := httptest.NewServer(g)
	t.Cleanup(server.Close)

	return baostock.NewProvider(config.ProviderConfig{
		WsURL:          "ws" + strings.TrimPrefix(server.URL, "http"),
		User:           "anonymous",
		Password:       "123456",
		RequestTimeout: 5 * time.Second,
	}, zap.NewNop())
}

func TestLoginQueryLogout(t *testing.T) {
	t.Parallel()

	g := &gateway{handle: func(req frame) []reply {
		if req.Method != domain.MethodHistoryKDataPlus {
			return []reply{ok(req.ID)}
		}
		rep := ok(req.ID)
		rep.Fields = []string{"date", "close"}
		rep.Rows = [][]string{{"2024-01-02", "10.5"}, {"2024-01-03", "10.7"}}
		return []reply{rep}
	}}
	provider := newProvider(t, g)

	require.NoError(t, provider.Login(context.Background()))

	query := domain.QueryHistoryKDataPlus("sh.600000", []string{"date", "close"}, "2024-01-01", "2024-01-05", "d", "3")
	rs, err := provider.Query(context.Background(), query)
	require.NoError(t, err)
	require.Equal(t, 2, rs.Len())
	require.Equal(t, domain.RawRow{"date": "2024-01-03", "close": "10.7"}, rs.Rows()[1])

	require.NoError(t, provider.Logout(context.Background()))

	require.Equal(t, []string{domain.MethodLogin, domain.MethodHistoryKDataPlus, domain.MethodLogout}, g.methods())
	require.Equal(t, map[string]string{"user_id": "anonymous", "password": "123456"}, g.request(0).Params)
	require.Equal(t, "date,close", g.request(1).Params["fields"])
	require.Equal(t, "3", g.request(1).Params["adjustflag"])

	_, err = provider.Query(context.Background(), domain.QueryStockBasic(""))
	require.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestLoginRejected(t *testing.T) {
	t.Parallel()

	g := &gateway{handle: func(req frame) []reply {
		return []reply{{ID: req.ID, ErrorCode: "10001001", ErrorMsg: "user not exist"}}
	}}
	provider := newProvider(t, g)

	err := provider.Login(context.Background())
	var providerErr *domain.ProviderError
	require.ErrorAs(t, err, &providerErr)
	require.Equal(t, domain.MethodLogin, providerErr.Method)
	require.Equal(t, "10001001", providerErr.Code)
}

func TestQueryProviderError(t *testing.T) {
	t.Parallel()

	g := &gateway{handle: func(req frame) []reply {
		if req.Method == domain.MethodProfitData {
			return []reply{{ID: req.ID, ErrorCode: "10004011", ErrorMsg: "invalid year"}}
		}
		return []reply{ok(req.ID)}
	}}
	provider := newProvider(t, g)
	require.NoError(t, provider.Login(context.Background()))

	_, err := provider.Query(context.Background(), domain.QueryProfitData("sh.600000", "20x4", "1"))
	var providerErr *domain.ProviderError
	require.ErrorAs(t, err, &providerErr)
	require.False(t, errors.Is(err, domain.ErrNotConnected))

	// The connection survives an upstream error code.
	_, err = provider.Query(context.Background(), domain.QueryStockBasic("sh.600000"))
	require.NoError(t, err)
}

func TestStaleResponsesAreSkipped(t *testing.T) {
	t.Parallel()

	g := &gateway{handle: func(req frame) []reply {
		stale := ok(req.ID + 100)
		stale.Fields = []string{"code"}
		stale.Rows = [][]string{{"stale"}}
		fresh := ok(req.ID)
		fresh.Fields = []string{"code"}
		fresh.Rows = [][]string{{"sh.600000"}}
		return []reply{stale, fresh}
	}}
	provider := newProvider(t, g)
	require.NoError(t, provider.Login(context.Background()))

	rs, err := provider.Query(context.Background(), domain.QueryStockBasic("sh.600000"))
	require.NoError(t, err)
	require.Equal(t, [][]string{{"sh.600000"}}, rs.Values)
}

func TestTransportFailureDropsConnection(t *testing.T) {
	t.Parallel()

	g := &gateway{handle: func(req frame) []reply {
		if req.Method == domain.MethodStockBasic {
			return nil
		}
		return []reply{ok(req.ID)}
	}}
	provider := newProvider(t, g)
	require.NoError(t, provider.Login(context.Background()))

	_, err := provider.Query(context.Background(), domain.QueryStockBasic("sh.600000"))
	require.ErrorIs(t, err, domain.ErrNotConnected)

	_, err = provider.Query(context.Background(), domain.QueryStockBasic("sh.600000"))
	require.ErrorIs(t, err, domain.ErrNotConnected)

	// A new login redials.
	require.NoError(t, provider.Login(context.Background()))
}

func TestDialFailure(t *testing.T) {
	t.Parallel()

	provider := baostock.NewProvider(config.ProviderConfig{
		WsURL:          "ws://127.0.0.1:1/ws",
		RequestTimeout: time.Second,
	}, zap.NewNop())

	err := provider.Login(context.Background())
	require.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestSetVerbose(t *testing.T) {
	t.Parallel()

	provider := baostock.NewProvider(config.ProviderConfig{Verbose: true}, zap.NewNop())
	require.True(t, provider.SetVerbose(false))
	require.False(t, provider.SetVerbose(true))
	require.Equal(t, "baostock", provider.Name())
}
