package docker

import (
	"context"
	"fmt"
	"io"
	"net/netip"
	"strconv"

	"github.com/containerd/errdefs"
	"go.uber.org/zap"

	"github.com/whalebone/local-resolver-agent/models"
	"github.com/whalebone/local-resolver-agent/services"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/network"
	"github.com/moby/moby/client"
)

// Run creates and starts a detached container for spec. A missing image is
// pulled once before giving up.
func (p *DockerRuntime) Run(ctx context.Context, spec models.ServiceSpec) (string, error) {
	if spec.Name == "" {
		return "", models.NewError(models.KindRuntimeOperation, "container name is required")
	}

	cCfg, hCfg, err := containerConfig(spec)
	if err != nil {
		return "", models.WrapError(models.KindRuntimeOperation, err, "build container %q", spec.Name)
	}

	opts := client.ContainerCreateOptions{
		Config:     cCfg,
		HostConfig: hCfg,
		Name:       spec.Name,
		Image:      spec.Image,
	}

	created, err := p.client.ContainerCreate(ctx, opts)
	if err != nil && errdefs.IsNotFound(err) {
		p.logger.Info("image not present, pulling", zap.String("image", spec.Image))
		if err := p.pull(ctx, spec.Image); err != nil {
			return "", models.WrapError(models.KindRuntimeOperation, err, "pull image %q", spec.Image)
		}
		created, err = p.client.ContainerCreate(ctx, opts)
	}
	if err != nil {
		return "", models.WrapError(models.KindRuntimeOperation, err, "create container %q", spec.Name)
	}

	if _, err := p.client.ContainerStart(ctx, created.ID, client.ContainerStartOptions{}); err != nil {
		// Leave nothing half-created behind under the requested name.
		if _, rmErr := p.client.ContainerRemove(context.WithoutCancel(ctx), created.ID, client.ContainerRemoveOptions{Force: true}); rmErr != nil {
			p.logger.Warn("cannot remove container after failed start",
				zap.String("name", spec.Name),
				zap.String("id", created.ID),
				zap.Error(rmErr),
			)
		}
		return "", models.WrapError(models.KindRuntimeOperation, err, "start container %q", spec.Name)
	}

	p.logger.Debug("container started",
		zap.String("name", spec.Name),
		zap.String("id", created.ID),
		zap.String("image", spec.Image),
	)
	return created.ID, nil
}

func (p *DockerRuntime) pull(ctx context.Context, image string) error {
	resp, err := p.client.ImagePull(ctx, image, client.ImagePullOptions{})
	if err != nil {
		return err
	}
	defer resp.Close()

	// The pull only completes once the progress stream is consumed.
	_, err = io.Copy(io.Discard, resp)
	return err
}

func containerConfig(spec models.ServiceSpec) (*container.Config, *container.HostConfig, error) {
	exposed := network.PortSet{}
	portMap := network.PortMap{}

	for key, hostPort := range spec.Ports {
		num, proto, err := models.SplitPortKey(key)
		if err != nil {
			return nil, nil, err
		}
		port, ok := network.PortFrom(num, network.IPProtocol(proto))
		if !ok {
			return nil, nil, fmt.Errorf("invalid container port %q", key)
		}

		exposed[port] = struct{}{}
		portMap[port] = append(portMap[port], network.PortBinding{
			HostIP:   netip.IPv4Unspecified(),
			HostPort: strconv.Itoa(hostPort),
		})
	}

	binds := make([]string, 0, len(spec.Volumes))
	for _, host := range sortedKeys(spec.Volumes) {
		v := spec.Volumes[host]
		mode := v.Mode
		if mode == "" {
			mode = models.DefaultVolumeMode
		}
		binds = append(binds, fmt.Sprintf("%s:%s:%s", host, v.Bind, mode))
	}

	cCfg := &container.Config{
		Image:        spec.Image,
		Env:          services.EnvList(spec.Environment),
		Labels:       spec.Labels,
		Tty:          spec.Tty,
		OpenStdin:    spec.StdinOpen,
		ExposedPorts: exposed,
	}

	hCfg := &container.HostConfig{
		Binds:        binds,
		PortBindings: portMap,
		NetworkMode:  container.NetworkMode(spec.NetworkMode),
		Privileged:   spec.Privileged,
		Resources: container.Resources{
			CPUShares: spec.CPUShares,
		},
	}

	if spec.RestartPolicy != nil {
		hCfg.RestartPolicy = container.RestartPolicy{
			Name:              container.RestartPolicyMode(spec.RestartPolicy.Name),
			MaximumRetryCount: spec.RestartPolicy.MaxRetry,
		}
	}
	if spec.LogConfig != nil {
		hCfg.LogConfig = container.LogConfig{
			Type:   spec.LogConfig.Driver,
			Config: spec.LogConfig.Options,
		}
	}

	return cCfg, hCfg, nil
}
