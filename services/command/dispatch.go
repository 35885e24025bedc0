package command

import (
	"context"

	"github.com/whalebone/local-resolver-agent/models"
)

// actionHandlers has one method per models.Action.
type actionHandlers interface {
	sysinfo(ctx context.Context, req models.Request) (models.Status, any, error)
	create(ctx context.Context, req models.Request) (models.Status, any, error)
	upgrade(ctx context.Context, req models.Request) (models.Status, any, error)
	rename(ctx context.Context, req models.Request) (models.Status, any, error)
	restart(ctx context.Context, req models.Request) (models.Status, any, error)
	stop(ctx context.Context, req models.Request) (models.Status, any, error)
	remove(ctx context.Context, req models.Request) (models.Status, any, error)
	list(ctx context.Context, req models.Request) (models.Status, any, error)
}

var _ actionHandlers = (*Processor)(nil)

func dispatch(ctx context.Context, h actionHandlers, action models.Action, req models.Request) (models.Status, any, error) {
	switch action {
	case models.ActionSysinfo:
		return h.sysinfo(ctx, req)
	case models.ActionCreate:
		return h.create(ctx, req)
	case models.ActionUpgrade:
		return h.upgrade(ctx, req)
	case models.ActionRename:
		return h.rename(ctx, req)
	case models.ActionRestart:
		return h.restart(ctx, req)
	case models.ActionStop:
		return h.stop(ctx, req)
	case models.ActionRemove:
		return h.remove(ctx, req)
	case models.ActionList:
		return h.list(ctx, req)
	default:
		return models.Status{}, nil, models.NewError(models.KindProtocol, "no handler for action %q", action)
	}
}
