package command

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/whalebone/local-resolver-agent/models"
	"github.com/whalebone/local-resolver-agent/services/compose"
)

func (p *Processor) sysinfo(ctx context.Context, _ models.Request) (models.Status, any, error) {
	if p.collector == nil {
		return models.Status{}, nil, models.NewError(models.KindRuntimeOperation, "no system info collector configured")
	}
	info, err := p.collector.Collect(ctx)
	if err != nil {
		return models.Status{}, nil, err
	}
	return models.SingleStatus(models.StatusSuccess), info, nil
}

func (p *Processor) create(ctx context.Context, req models.Request) (models.Status, any, error) {
	var payload models.ComposePayload
	raw, err := documentText(req.Data, &payload)
	if err != nil {
		return models.Status{}, nil, err
	}
	doc, err := compose.ParseAndValidate(raw)
	if err != nil {
		return models.Status{}, nil, err
	}
	return models.MapStatus(p.orchestrator.StartBatch(ctx, doc)), nil, nil
}

func (p *Processor) upgrade(ctx context.Context, req models.Request) (models.Status, any, error) {
	var payload models.ComposePayload
	raw, err := documentText(req.Data, &payload)
	if err != nil {
		return models.Status{}, nil, err
	}
	doc, err := compose.ParseAndValidate(raw)
	if err != nil {
		return models.Status{}, nil, err
	}

	name := payload.Name
	if name == "" {
		names := doc.Names()
		if len(names) != 1 {
			return models.Status{}, nil, models.NewError(models.KindProtocol,
				"upgrade without a name needs exactly one service, document has %d", len(names))
		}
		name = names[0]
	}

	spec, err := p.orchestrator.Translator().TranslateService(doc, name)
	if err != nil {
		return models.Status{}, nil, err
	}
	if err := p.orchestrator.Upgrade(ctx, spec.Name, spec); err != nil {
		return models.Status{}, nil, err
	}
	return models.SingleStatus(models.StatusSuccess), nil, nil
}

func (p *Processor) rename(ctx context.Context, req models.Request) (models.Status, any, error) {
	var payload models.RenamePayload
	if err := decodePayload(req.Data, &payload); err != nil {
		return models.Status{}, nil, err
	}
	if len(payload.Containers) == 0 {
		return models.Status{}, nil, models.NewError(models.KindProtocol, "no containers to rename")
	}
	return models.MapStatus(p.orchestrator.Rename(ctx, payload.Containers)), nil, nil
}

func (p *Processor) restart(ctx context.Context, req models.Request) (models.Status, any, error) {
	names, err := containerNames(req.Data)
	if err != nil {
		return models.Status{}, nil, err
	}
	return models.MapStatus(p.orchestrator.Restart(ctx, names)), nil, nil
}

func (p *Processor) stop(ctx context.Context, req models.Request) (models.Status, any, error) {
	names, err := containerNames(req.Data)
	if err != nil {
		return models.Status{}, nil, err
	}
	return models.MapStatus(p.orchestrator.Stop(ctx, names)), nil, nil
}

func (p *Processor) remove(ctx context.Context, req models.Request) (models.Status, any, error) {
	names, err := containerNames(req.Data)
	if err != nil {
		return models.Status{}, nil, err
	}
	return models.MapStatus(p.orchestrator.Remove(ctx, names)), nil, nil
}

func (p *Processor) list(ctx context.Context, _ models.Request) (models.Status, any, error) {
	containers, err := p.orchestrator.List(ctx)
	if err != nil {
		return models.Status{}, nil, err
	}
	return models.SingleStatus(models.StatusSuccess), containers, nil
}

func decodePayload(data json.RawMessage, into any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.NewError(models.KindProtocol, "request has no data")
	}
	if err := json.Unmarshal(data, into); err != nil {
		return models.WrapError(models.KindProtocol, err, "malformed request data")
	}
	return nil
}

func containerNames(data json.RawMessage) ([]string, error) {
	var payload models.ContainersPayload
	if err := decodePayload(data, &payload); err != nil {
		return nil, err
	}
	if len(payload.Containers) == 0 {
		return nil, models.NewError(models.KindProtocol, "no containers given")
	}
	return payload.Containers, nil
}

// documentText returns the service document carried by data: the text of
// its compose field, a JSON string, or data itself as an inline document.
func documentText(data json.RawMessage, payload *models.ComposePayload) ([]byte, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, models.NewError(models.KindProtocol, "request has no service document")
	}

	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return nil, models.WrapError(models.KindProtocol, err, "malformed request data")
		}
		return []byte(text), nil
	}

	if err := json.Unmarshal(data, payload); err == nil && payload.Compose != "" {
		return []byte(payload.Compose), nil
	}

	// Inline document. A string name next to it only selects the service;
	// any other value is a service called "name".
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, models.WrapError(models.KindProtocol, err, "malformed request data")
	}
	if name := bytes.TrimSpace(fields["name"]); len(name) > 0 && name[0] == '"' {
		delete(fields, "name")
	}
	return json.Marshal(fields)
}
