package agent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/whalebone/local-resolver-agent/interfaces"
	"github.com/whalebone/local-resolver-agent/models"
)

// RequestProcessor answers one raw request.
type RequestProcessor interface {
	Process(ctx context.Context, raw []byte) models.Response
}

// Session keeps the control channel to the management plane up for the
// lifetime of the process.
type Session struct {
	cfg       Config
	processor RequestProcessor
	collector interfaces.SystemInfoCollector
	logger    *zap.Logger

	dialer    Dialer
	validator HostValidator
}

type Option func(*Session)

func WithDialer(d Dialer) Option {
	return func(s *Session) { s.dialer = d }
}

// WithHostValidator replaces the TLS host validation built from the
// configuration.
func WithHostValidator(v HostValidator) Option {
	return func(s *Session) { s.validator = v }
}

func NewSession(cfg Config, processor RequestProcessor, collector interfaces.SystemInfoCollector, logger *zap.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	s := &Session{
		cfg:       cfg,
		processor: processor,
		collector: collector,
		logger:    logger.Named("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dialer == nil {
		s.dialer = NewWebsocketDialer(cfg)
	}
	return s
}

// Run connects and serves until ctx ends or an Init error occurs. Any
// other failure closes the channel and reconnects after the fixed delay.
func (s *Session) Run(ctx context.Context) error {
	b := backoff.WithContext(backoff.NewConstantBackOff(s.cfg.ReconnectDelay), ctx)

	err := backoff.RetryNotify(func() error {
		err := s.serve(ctx)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if models.KindOf(err).Fatal() {
			return backoff.Permanent(err)
		}
		if err == nil {
			err = models.NewError(models.KindTransport, "channel closed")
		}
		return err
	}, b, func(err error, next time.Duration) {
		s.logger.Warn("control channel lost, reconnecting",
			zap.Stringer("kind", models.KindOf(err)),
			zap.Duration("in", next),
			zap.Error(err),
		)
	})

	if err != nil && models.KindOf(err).Fatal() {
		s.logger.Error("cannot start control channel", zap.Error(err))
	}
	return err
}

// serve runs one connection: the listen and heartbeat tasks share it until
// either fails.
func (s *Session) serve(ctx context.Context) error {
	log := s.logger.With(zap.String("session", uuid.NewString()))

	conn, validator, err := s.connect(ctx)
	if err != nil {
		return err
	}
	log.Info("control channel established", zap.String("address", s.cfg.Address))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.listen(gctx, conn, log) })
	g.Go(func() error { return s.heartbeat(gctx, conn, validator, log) })
	g.Go(func() error {
		// Unblocks the pending read once either task has stopped.
		<-gctx.Done()
		_ = conn.Close()
		return nil
	})
	return g.Wait()
}

// connect validates the configuration, dials and validates the host. The
// returned validator is used again by every heartbeat of the connection.
func (s *Session) connect(ctx context.Context) (Conn, HostValidator, error) {
	ep, err := s.cfg.Validate()
	if err != nil {
		return nil, nil, err
	}

	validator := s.validator
	if validator == nil {
		validator, err = NewTLSHostValidator(ep.Host, s.cfg.CertFile, s.cfg.KeyFile)
		if err != nil {
			return nil, nil, err
		}
	}

	conn, err := s.dialer.Dial(ctx, ep)
	if err != nil {
		return nil, nil, err
	}
	if err := validator.Validate(conn); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, validator, nil
}

func (s *Session) listen(ctx context.Context, conn Conn, log *zap.Logger) error {
	for {
		raw, err := conn.Read()
		if err != nil {
			return transportError(err, "read request")
		}
		resp := s.processor.Process(ctx, raw)
		if err := s.send(conn, resp); err != nil {
			return err
		}
		log.Debug("response sent", zap.String("action", resp.Action))
	}
}

func (s *Session) heartbeat(ctx context.Context, conn Conn, validator HostValidator, log *zap.Logger) error {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		if err := s.beat(ctx, conn, validator); err != nil {
			return err
		}
		log.Debug("heartbeat sent")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Session) beat(ctx context.Context, conn Conn, validator HostValidator) error {
	msg := models.Response{
		Action: models.ActionSysinfo.String(),
		Status: models.SingleStatus(models.StatusSuccess),
	}
	if s.collector != nil {
		info, err := s.collector.Collect(ctx)
		if err != nil {
			msg.Status = models.SingleStatus(models.StatusFailure)
			msg.Data = models.ErrorData{Kind: models.KindOf(err).String(), Message: err.Error()}
		} else {
			msg.Data = info
		}
	}
	if err := s.send(conn, msg); err != nil {
		return err
	}
	return validator.Validate(conn)
}

func (s *Session) send(conn Conn, resp models.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return models.WrapError(models.KindProtocol, err, "encode %s response", resp.Action)
	}
	if err := conn.Write(data); err != nil {
		return transportError(err, "send %s response", resp.Action)
	}
	return nil
}

func transportError(err error, format string, args ...any) error {
	if models.KindOf(err) != models.KindUnknown {
		return errors.Wrapf(err, format, args...)
	}
	return models.WrapError(models.KindTransport, err, format, args...)
}
