package command

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/whalebone/local-resolver-agent/models"
)

type mockRuntime struct {
	mock.Mock
}

func (m *mockRuntime) Run(ctx context.Context, spec models.ServiceSpec) (string, error) {
	args := m.Called(ctx, spec)
	return args.String(0), args.Error(1)
}

func (m *mockRuntime) Stop(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *mockRuntime) Restart(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *mockRuntime) Remove(ctx context.Context, name string, force bool) error {
	return m.Called(ctx, name, force).Error(0)
}

func (m *mockRuntime) Rename(ctx context.Context, oldName, newName string) error {
	return m.Called(ctx, oldName, newName).Error(0)
}

func (m *mockRuntime) Inspect(ctx context.Context, name string) (models.ContainerState, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(models.ContainerState), args.Error(1)
}

func (m *mockRuntime) List(ctx context.Context) ([]models.ContainerSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.ContainerSummary), args.Error(1)
}

func (m *mockRuntime) Version(ctx context.Context) (models.RuntimeVersion, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.RuntimeVersion), args.Error(1)
}

type mockCollector struct {
	mock.Mock
}

func (m *mockCollector) Collect(ctx context.Context) (models.SystemInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.SystemInfo), args.Error(1)
}

// recordingHandlers notes which handler each dispatch reached.
type recordingHandlers struct {
	called []string
}

func (r *recordingHandlers) hit(name string) (models.Status, any, error) {
	r.called = append(r.called, name)
	return models.SingleStatus(models.StatusSuccess), nil, nil
}

func (r *recordingHandlers) sysinfo(context.Context, models.Request) (models.Status, any, error) {
	return r.hit("sysinfo")
}

func (r *recordingHandlers) create(context.Context, models.Request) (models.Status, any, error) {
	return r.hit("create")
}

func (r *recordingHandlers) upgrade(context.Context, models.Request) (models.Status, any, error) {
	return r.hit("upgrade")
}

func (r *recordingHandlers) rename(context.Context, models.Request) (models.Status, any, error) {
	return r.hit("rename")
}

func (r *recordingHandlers) restart(context.Context, models.Request) (models.Status, any, error) {
	return r.hit("restart")
}

func (r *recordingHandlers) stop(context.Context, models.Request) (models.Status, any, error) {
	return r.hit("stop")
}

func (r *recordingHandlers) remove(context.Context, models.Request) (models.Status, any, error) {
	return r.hit("remove")
}

func (r *recordingHandlers) list(context.Context, models.Request) (models.Status, any, error) {
	return r.hit("list")
}
