package command

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/whalebone/local-resolver-agent/interfaces"
	"github.com/whalebone/local-resolver-agent/models"
	"github.com/whalebone/local-resolver-agent/services/lifecycle"
	"github.com/whalebone/local-resolver-agent/services/tracing"
)

// Processor turns raw requests into responses. It never fails: every
// problem is reported through the response envelope.
type Processor struct {
	orchestrator *lifecycle.Orchestrator
	collector    interfaces.SystemInfoCollector
	logger       *zap.Logger
}

func NewProcessor(orchestrator *lifecycle.Orchestrator, collector interfaces.SystemInfoCollector, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		orchestrator: orchestrator,
		collector:    collector,
		logger:       logger.Named("command"),
	}
}

// Process handles one raw request.
func (p *Processor) Process(ctx context.Context, raw []byte) models.Response {
	start := time.Now()

	req, err := decodeRequest(raw)
	ctx, span := tracing.Start(ctx, "command.process", attribute.String("action", req.Action))

	var (
		status models.Status
		data   any
	)
	if err == nil {
		status, data, err = p.handle(ctx, req)
	}
	tracing.End(span, err)

	if err != nil {
		p.logger.Warn("request failed",
			zap.String("action", req.Action),
			zap.Stringer("kind", models.KindOf(err)),
			zap.Error(err),
		)
		return errorResponse(req, err)
	}

	p.logger.Info("request processed",
		zap.String("action", req.Action),
		zap.Duration("took", time.Since(start)),
	)
	return response(req, status, data)
}

func (p *Processor) handle(ctx context.Context, req models.Request) (models.Status, any, error) {
	if req.Action == "" {
		return models.Status{}, nil, models.NewError(models.KindProtocol, "request has no action")
	}
	action, ok := models.ParseAction(req.Action)
	if !ok {
		return models.Status{}, nil, models.NewError(models.KindProtocol, "unknown action %q", req.Action)
	}
	if action.CLIOnly() && !req.CLI {
		return models.Status{}, nil, models.NewError(models.KindProtocol, "action %q is only available locally", req.Action)
	}
	return dispatch(ctx, p, action, req)
}

// decodeRequest decodes raw into a request. When raw is JSON but not a
// valid request, whatever fields could be read are still returned so the
// error envelope can echo them.
func decodeRequest(raw []byte) (models.Request, error) {
	var req models.Request
	err := json.Unmarshal(raw, &req)
	if err == nil {
		return req, nil
	}

	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) == nil {
		req = models.Request{RequestID: fields["requestId"], Data: fields["data"]}
		_ = json.Unmarshal(fields["action"], &req.Action)
	}
	return req, models.WrapError(models.KindProtocol, err, "malformed request")
}

func response(req models.Request, status models.Status, data any) models.Response {
	resp := models.Response{
		Action: req.Action,
		Status: status,
		Data:   data,
	}
	if req.HasRequestID() {
		resp.RequestID = req.RequestID
	}
	return resp
}

func errorResponse(req models.Request, err error) models.Response {
	return response(req, models.SingleStatus(models.StatusFailure), models.ErrorData{
		Kind:    models.KindOf(err).String(),
		Message: err.Error(),
		Request: req.Data,
	})
}
