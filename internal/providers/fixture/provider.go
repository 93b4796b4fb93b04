// Package fixture serves upstream queries from a YAML file so the bridge can
// run without a gateway.
package fixture

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/igefined/quote-bridge/internal/domain"
)

const providerName = "fixture"

// Entry answers every query whose method matches and whose parameters
// include all of Params. An empty ErrorCode means success.
type Entry struct {
	Method    string            `yaml:"method"`
	Params    map[string]string `yaml:"params"`
	ErrorCode string            `yaml:"error_code"`
	ErrorMsg  string            `yaml:"error_msg"`
	Fields    []string          `yaml:"fields"`
	Rows      [][]string        `yaml:"rows"`
}

type File struct {
	Entries []Entry `yaml:"entries"`
}

type Provider struct {
	entries []Entry
	logger  *zap.Logger

	mu       sync.Mutex
	loggedIn bool
	verbose  bool
	queries  []domain.Query
}

// Load reads a fixture file.
func Load(path string, logger *zap.Logger) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fixture yaml: %w", err)
	}
	for i, e := range file.Entries {
		if e.Method == "" {
			return nil, fmt.Errorf("fixture entry %d has no method", i)
		}
	}
	return NewProvider(file.Entries, logger), nil
}

func NewProvider(entries []Entry, logger *zap.Logger) *Provider {
	return &Provider{
		entries: entries,
		logger:  logger.Named(providerName),
	}
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

func (p *Provider) Login(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.lookup(domain.Query{Method: domain.MethodLogin}).err(); err != nil {
		return err
	}
	p.loggedIn = true
	if p.verbose {
		p.logger.Info("login success")
	}
	return nil
}

func (p *Provider) Logout(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.loggedIn {
		return domain.ErrNotConnected
	}
	p.loggedIn = false
	if p.verbose {
		p.logger.Info("logout success")
	}
	return nil
}

func (p *Provider) Query(ctx context.Context, query domain.Query) (*domain.ResultSet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.loggedIn {
		return nil, domain.ErrNotConnected
	}
	p.queries = append(p.queries, query)

	m := p.lookup(query)
	if err := m.err(); err != nil {
		return nil, err
	}
	p.logger.Debug("Fixture query",
		zap.String("method", query.Method),
		zap.Any("params", query.Params),
		zap.Bool("matched", m.entry != nil),
		zap.Int("rows", len(m.rows())))
	return &domain.ResultSet{Fields: m.fields(), Values: m.rows()}, nil
}

// Queries returns the queries served so far.
func (p *Provider) Queries() []domain.Query {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Query(nil), p.queries...)
}

type match struct {
	method string
	entry  *Entry
}

func (p *Provider) lookup(query domain.Query) match {
	for i := range p.entries {
		e := &p.entries[i]
		if e.Method != query.Method {
			continue
		}
		if matchesParams(e.Params, query.Params) {
			return match{method: query.Method, entry: e}
		}
	}
	return match{method: query.Method}
}

func matchesParams(want, got map[string]string) bool {
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func (m match) err() error {
	if m.entry == nil || m.entry.ErrorCode == "" || m.entry.ErrorCode == "0" {
		return nil
	}
	return &domain.ProviderError{Method: m.method, Code: m.entry.ErrorCode, Message: m.entry.ErrorMsg}
}

func (m match) fields() []string {
	if m.entry == nil {
		return nil
	}
	return append([]string(nil), m.entry.Fields...)
}

func (m match) rows() [][]string {
	if m.entry == nil {
		return nil
	}
	rows := make([][]string, len(m.entry.Rows))
	for i, r := range m.entry.Rows {
		rows[i] = append([]string(nil), r...)
	}
	return rows
}
