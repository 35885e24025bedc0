package interfaces

import (
	"context"

	"github.com/whalebone/local-resolver-agent/models"
)

// Runtime is the container runtime capability the lifecycle orchestrator
// drives. Containers are addressed by name.
type Runtime interface {
	// Run creates and starts a detached container named spec.Name and returns its id.
	Run(ctx context.Context, spec models.ServiceSpec) (string, error)
	Stop(ctx context.Context, name string) error
	Restart(ctx context.Context, name string) error
	Remove(ctx context.Context, name string, force bool) error
	Rename(ctx context.Context, oldName, newName string) error
	Inspect(ctx context.Context, name string) (models.ContainerState, error)
	List(ctx context.Context) ([]models.ContainerSummary, error)
	Version(ctx context.Context) (models.RuntimeVersion, error)
}
