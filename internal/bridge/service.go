// Package bridge runs the command loop: one line in, one JSON line out.
package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/igefined/quote-bridge/internal/audit"
	"github.com/igefined/quote-bridge/internal/config"
	"github.com/igefined/quote-bridge/internal/domain"
	"github.com/igefined/quote-bridge/internal/session"
)

// invalidCommand is written for lines that name no known operation.
var invalidCommand = []byte(`""`)

type Service struct {
	provider domain.Provider
	session  *session.Manager
	recorder audit.Recorder
	clock    clock.Clock
	logger   *zap.Logger

	stockListPath string
	tradingOpen   time.Duration
	tradingClose  time.Duration
	location      *time.Location

	handlers map[string]handler
}

type Params struct {
	fx.In

	Config   *config.Config
	Provider domain.Provider
	Session  *session.Manager
	Recorder audit.Recorder
	Clock    clock.Clock
	Logger   *zap.Logger
}

func NewService(params Params) (*Service, error) {
	bridgeCfg := params.Config.Bridge
	open, err := bridgeCfg.OpenAt()
	if err != nil {
		return nil, err
	}
	closeAt, err := bridgeCfg.CloseAt()
	if err != nil {
		return nil, err
	}
	location, err := bridgeCfg.Location()
	if err != nil {
		return nil, err
	}

	s := &Service{
		provider:      params.Provider,
		session:       params.Session,
		recorder:      params.Recorder,
		clock:         params.Clock,
		logger:        params.Logger.Named("bridge"),
		stockListPath: bridgeCfg.StockListPath,
		tradingOpen:   open,
		tradingClose:  closeAt,
		location:      location,
	}
	s.handlers = s.routes()
	return s, nil
}

// Run serves commands from in until exit or end of input. It returns an
// error only when the bridge cannot go on: authentication failed, or the
// input or output stream broke.
func (s *Service) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	writer := bufio.NewWriter(out)

	s.logger.Info("Serving commands", zap.String("provider", s.provider.Name()))

	for {
		line, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("read command: %w", readErr)
		}
		if line == "" && readErr != nil {
			s.logger.Info("End of input")
			if err := s.session.Close(ctx); err != nil {
				s.logger.Warn("Logout failed", zap.Error(err))
			}
			return nil
		}

		stop, err := s.serve(ctx, ParseCommand(line), writer)
		if err != nil || stop {
			return err
		}
	}
}

// serve handles one command and reports whether the loop must stop.
func (s *Service) serve(ctx context.Context, cmd Command, w *bufio.Writer) (bool, error) {
	if cmd.Operation == OpExit {
		if err := s.session.Close(ctx); err != nil {
			s.logger.Warn("Logout failed", zap.Error(err))
		}
		payload := s.encode("")
		if err := s.reply(w, payload); err != nil {
			return true, err
		}
		s.record(cmd, payload)
		s.logger.Info("Exit requested")
		return true, nil
	}

	if err := s.session.EnsureFresh(ctx); err != nil {
		return true, err
	}

	h, ok := s.handlers[cmd.Operation]
	if !ok {
		s.logger.Debug("Unrecognized command", zap.String("operation", cmd.Operation))
		return false, s.reply(w, invalidCommand)
	}

	start := s.clock.Now()
	result, err := s.dispatch(ctx, h, cmd)
	if err != nil {
		s.logger.Error("Command failed",
			zap.String("operation", cmd.Operation),
			zap.Strings("args", cmd.Args),
			zap.Error(err))
		if errors.Is(err, domain.ErrNotConnected) {
			s.session.Invalidate()
		}
		result = nil
	} else {
		s.logger.Debug("Command served",
			zap.String("operation", cmd.Operation),
			zap.Duration("elapsed", s.clock.Since(start)))
	}

	payload := s.encode(result)
	if err := s.reply(w, payload); err != nil {
		return true, err
	}
	s.record(cmd, payload)
	return false, nil
}

func (s *Service) dispatch(ctx context.Context, h handler, cmd Command) (any, error) {
	if n := len(cmd.Args); n < h.minArgs || n > h.maxArgs {
		return nil, &ArgumentError{Operation: cmd.Operation, Got: n, Min: h.minArgs, Max: h.maxArgs}
	}
	return h.run(ctx, cmd.Args)
}

// encode renders v as one compact JSON line. Non-ASCII text is kept as is.
func (s *Service) encode(v any) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		s.logger.Error("Encode result", zap.Error(err))
		return []byte("null")
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}

func (s *Service) reply(w *bufio.Writer, payload []byte) error {
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write reply: %w", err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write reply: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush reply: %w", err)
	}
	return nil
}

func (s *Service) record(cmd Command, payload []byte) {
	if err := s.recorder.Record(cmd.Raw, payload); err != nil {
		s.logger.Warn("Audit entry lost", zap.String("operation", cmd.Operation), zap.Error(err))
	}
}
