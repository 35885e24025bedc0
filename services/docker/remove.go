package docker

import (
	"context"

	"go.uber.org/zap"

	"github.com/whalebone/local-resolver-agent/models"

	"github.com/moby/moby/client"
)

func (p *DockerRuntime) Stop(ctx context.Context, name string) error {
	if _, err := p.client.ContainerStop(ctx, name, client.ContainerStopOptions{}); err != nil {
		return models.WrapError(models.KindRuntimeOperation, err, "stop container %q", name)
	}
	p.logger.Debug("container stopped", zap.String("name", name))
	return nil
}

// Remove deletes the named container. Without force a running container is
// refused by the engine.
func (p *DockerRuntime) Remove(ctx context.Context, name string, force bool) error {
	_, err := p.client.ContainerRemove(ctx, name, client.ContainerRemoveOptions{
		Force:         force,
		RemoveVolumes: false,
	})
	if err != nil {
		return models.WrapError(models.KindRuntimeOperation, err, "remove container %q", name)
	}
	p.logger.Debug("container removed", zap.String("name", name), zap.Bool("force", force))
	return nil
}

func (p *DockerRuntime) Restart(ctx context.Context, name string) error {
	if _, err := p.client.ContainerRestart(ctx, name, client.ContainerRestartOptions{}); err != nil {
		return models.WrapError(models.KindRuntimeOperation, err, "restart container %q", name)
	}
	return nil
}

func (p *DockerRuntime) Rename(ctx context.Context, oldName, newName string) error {
	_, err := p.client.ContainerRename(ctx, oldName, client.ContainerRenameOptions{NewName: newName})
	if err != nil {
		return models.WrapError(models.KindRuntimeOperation, err, "rename container %q to %q", oldName, newName)
	}
	p.logger.Debug("container renamed", zap.String("from", oldName), zap.String("to", newName))
	return nil
}
