package docker

import (
	"context"

	"go.uber.org/zap"

	"github.com/whalebone/local-resolver-agent/interfaces"
	"github.com/whalebone/local-resolver-agent/models"

	"github.com/moby/moby/client"
)

// DockerRuntime implements interfaces.Runtime for plain Docker (Engine API).
type DockerRuntime struct {
	client *client.Client
	logger *zap.Logger
}

var _ interfaces.Runtime = (*DockerRuntime)(nil)

// NewDockerRuntime initializes the Docker runtime using environment variables
// (e.g. DOCKER_HOST).
func NewDockerRuntime(logger *zap.Logger) (*DockerRuntime, error) {
	c, err := client.New(
		client.FromEnv,
	)
	if err != nil {
		return nil, models.WrapError(models.KindInit, err, "connect to docker engine")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DockerRuntime{
		client: c,
		logger: logger.Named("docker"),
	}, nil
}

// Close releases the engine connection.
func (p *DockerRuntime) Close() error {
	return p.client.Close()
}

func (p *DockerRuntime) Version(ctx context.Context) (models.RuntimeVersion, error) {
	v, err := p.client.ServerVersion(ctx, client.ServerVersionOptions{})
	if err != nil {
		return models.RuntimeVersion{}, models.WrapError(models.KindRuntimeOperation, err, "query engine version")
	}
	return models.RuntimeVersion{
		Version:    v.Version,
		APIVersion: v.APIVersion,
		Os:         v.Os,
		Arch:       v.Arch,
	}, nil
}
