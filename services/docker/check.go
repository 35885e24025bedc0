package docker

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/whalebone/local-resolver-agent/models"
	"github.com/whalebone/local-resolver-agent/services"

	"github.com/moby/moby/client"
)

func (p *DockerRuntime) Inspect(ctx context.Context, name string) (models.ContainerState, error) {
	inspect, err := p.client.ContainerInspect(ctx, name, client.ContainerInspectOptions{})
	if err != nil {
		return models.ContainerState{}, models.WrapError(models.KindRuntimeOperation, err, "inspect container %q", name)
	}

	c := inspect.Container
	state := models.ContainerState{
		ID:   c.ID,
		Name: strings.TrimPrefix(c.Name, "/"),
	}
	if c.Config != nil {
		state.Image = c.Config.Image
	}
	if c.State != nil {
		state.Status = string(c.State.Status)
		state.Running = c.State.Running
		if c.State.Health != nil {
			state.Health = string(c.State.Health.Status)
		}
		if t, err := time.Parse(time.RFC3339Nano, c.State.StartedAt); err == nil {
			state.StartedAt = t
		}
	}
	return state, nil
}

// List returns every container known to the engine, stopped ones included,
// ordered by name.
func (p *DockerRuntime) List(ctx context.Context) ([]models.ContainerSummary, error) {
	containers, err := p.client.ContainerList(ctx, client.ContainerListOptions{All: true})
	if err != nil {
		return nil, models.WrapError(models.KindRuntimeOperation, err, "list containers")
	}

	out := make([]models.ContainerSummary, 0, len(containers.Items))
	for _, c := range containers.Items {
		out = append(out, models.ContainerSummary{
			ID:     c.ID,
			Name:   services.ContainerName(c.Names),
			Image:  c.Image,
			State:  string(c.State),
			Status: c.Status,
			Labels: c.Labels,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
