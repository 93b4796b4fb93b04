package baostock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	"github.com/igefined/quote-bridge/internal/config"
	"github.com/igefined/quote-bridge/internal/domain"
)

const (
	providerName = "baostock"
	successCode  = "0"
)

// Provider talks to the market-data gateway over a single websocket. Calls
// are serialized; each request waits for the response carrying its id.
type Provider struct {
	config  config.ProviderConfig
	logger  *zap.Logger
	limiter ratelimit.Limiter
	dialer  *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	nextID  uint64
	verbose bool
}

func NewProvider(cfg config.ProviderConfig, logger *zap.Logger) *Provider {
	limiter := ratelimit.NewUnlimited()
	if cfg.QueriesPerSecond > 0 {
		limiter = ratelimit.New(cfg.QueriesPerSecond)
	}

	return &Provider{
		config:  cfg,
		logger:  logger.Named(providerName),
		limiter: limiter,
		dialer:  websocket.DefaultDialer,
		verbose: cfg.Verbose,
	}
}

type request struct {
	ID     uint64            `json:"id"`
	Method string            `json:"method"`
	Params map[string]string `json:"params,omitempty"`
}

type response struct {
	ID        uint64     `json:"id"`
	ErrorCode string     `json:"error_code"`
	ErrorMsg  string     `json:"error_msg"`
	Fields    []string   `json:"fields"`
	Rows      [][]string `json:"rows"`
}

func (p *Provider) Name() string {
	return providerName
}

func (p *Provider) SetVerbose(verbose bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.verbose
	p.verbose = verbose
	return prev
}

// Login dials the gateway when there is no connection and authenticates.
// Logging in again on a live connection renews the session.
func (p *Provider) Login(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		p.logger.Debug("Connecting to gateway", zap.String("url", p.config.WsURL))
		conn, _, err := p.dialer.DialContext(ctx, p.config.WsURL, nil)
		if err != nil {
			return fmt.Errorf("%w: dial %s: %v", domain.ErrNotConnected, p.config.WsURL, err)
		}
		p.conn = conn
	}

	resp, err := p.call(ctx, domain.MethodLogin, map[string]string{
		"user_id":  p.config.User,
		"password": p.config.Password,
	})
	if err != nil {
		return err
	}
	p.banner("login", resp)
	return nil
}

// Logout ends the session and closes the connection.
func (p *Provider) Logout(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return domain.ErrNotConnected
	}

	resp, err := p.call(ctx, domain.MethodLogout, map[string]string{"user_id": p.config.User})
	if err == nil {
		p.banner("logout", resp)
	}
	return multierr.Append(err, p.closeConn())
}

func (p *Provider) Query(ctx context.Context, query domain.Query) (*domain.ResultSet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil, domain.ErrNotConnected
	}

	p.limiter.Take()
	resp, err := p.call(ctx, query.Method, query.Params)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Query completed",
		zap.String("method", query.Method),
		zap.Int("rows", len(resp.Rows)))

	return &domain.ResultSet{Fields: resp.Fields, Values: resp.Rows}, nil
}

// call sends one request and waits for its response. The caller holds p.mu.
// Any transport failure drops the connection.
func (p *Provider) call(ctx context.Context, method string, params map[string]string) (*response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.nextID++
	req := request{ID: p.nextID, Method: method, Params: params}

	deadline := p.deadline(ctx)
	if err := p.conn.SetWriteDeadline(deadline); err != nil {
		return nil, p.transportError(method, err)
	}
	if err := p.conn.WriteJSON(req); err != nil {
		return nil, p.transportError(method, err)
	}

	if err := p.conn.SetReadDeadline(deadline); err != nil {
		return nil, p.transportError(method, err)
	}
	for {
		var resp response
		if err := p.conn.ReadJSON(&resp); err != nil {
			return nil, p.transportError(method, err)
		}
		if resp.ID != req.ID {
			p.logger.Warn("Dropping stale response",
				zap.Uint64("expected_id", req.ID),
				zap.Uint64("id", resp.ID))
			continue
		}
		if resp.ErrorCode != successCode {
			return nil, &domain.ProviderError{Method: method, Code: resp.ErrorCode, Message: resp.ErrorMsg}
		}
		return &resp, nil
	}
}

// deadline is the earlier of the context deadline and the request timeout.
// The zero time means no deadline.
func (p *Provider) deadline(ctx context.Context) time.Time {
	var deadline time.Time
	if p.config.RequestTimeout > 0 {
		deadline = time.Now().Add(p.config.RequestTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	return deadline
}

func (p *Provider) transportError(method string, err error) error {
	p.logger.Error("Gateway transport failed", zap.String("method", method), zap.Error(err))
	if closeErr := p.closeConn(); closeErr != nil {
		p.logger.Debug("Closing broken connection", zap.Error(closeErr))
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrNotConnected, method, err)
}

func (p *Provider) closeConn() error {
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

func (p *Provider) banner(event string, resp *response) {
	if !p.verbose {
		return
	}
	p.logger.Info(event+" success",
		zap.String("error_code", resp.ErrorCode),
		zap.String("error_msg", resp.ErrorMsg))
}
