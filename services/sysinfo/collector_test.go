package sysinfo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/whalebone/local-resolver-agent/models"
)

type fakeProbe struct {
	diskErr error
}

func (fakeProbe) Host(context.Context) (models.HostInfo, error) {
	return models.HostInfo{Hostname: "edge-1", Platform: "debian 12"}, nil
}

func (fakeProbe) CPUPercent(context.Context) (float64, error) { return 42.5, nil }

func (fakeProbe) Memory(context.Context) (models.UsageInfo, error) {
	return models.UsageInfo{Total: 100, Used: 25, UsedPercent: 25}, nil
}

func (f fakeProbe) Disk(_ context.Context, path string) (models.UsageInfo, error) {
	if f.diskErr != nil {
		return models.UsageInfo{}, f.diskErr
	}
	return models.UsageInfo{Total: 1000, Used: 10, UsedPercent: 1}, nil
}

type mockRuntime struct {
	mock.Mock
}

func (m *mockRuntime) Run(ctx context.Context, spec models.ServiceSpec) (string, error) {
	args := m.Called(ctx, spec)
	return args.String(0), args.Error(1)
}
func (m *mockRuntime) Stop(ctx context.Context, name string) error    { return m.Called(ctx, name).Error(0) }
func (m *mockRuntime) Restart(ctx context.Context, name string) error { return m.Called(ctx, name).Error(0) }
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

func TestCollect(t *testing.T) {
	rt := &mockRuntime{}
	rt.On("Version", mock.Anything).Return(models.RuntimeVersion{Version: "27.1.0"}, nil)
	rt.On("List", mock.Anything).Return([]models.ContainerSummary{{Name: "resolver", State: "running"}}, nil)

	stash := models.NewErrorStash(10)
	stash.Add("stop:resolver", models.NewError(models.KindRuntimeOperation, "timeout"))

	c := NewCollector(rt, stash, zaptest.NewLogger(t), "2.0.0").WithProbe(fakeProbe{})
	info, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2.0.0", info.AgentVersion)
	assert.Equal(t, "edge-1", info.Host.Hostname)
	assert.Equal(t, 42.5, info.CPUPercent)
	assert.Equal(t, uint64(25), info.Memory.Used)
	assert.Equal(t, uint64(1000), info.Disk.Total)
	require.NotNil(t, info.Runtime)
	assert.Equal(t, "27.1.0", info.Runtime.Version)
	assert.Len(t, info.Containers, 1)
	require.Len(t, info.Errors, 1)
	assert.Equal(t, "RuntimeOperationError", info.Errors[0].Kind)

	// Reported errors are not repeated.
	info, err = c.Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, info.Errors)
}

func TestCollectReportsProbeFailures(t *testing.T) {
	rt := &mockRuntime{}
	rt.On("Version", mock.Anything).Return(models.RuntimeVersion{}, errors.New("engine down"))
	rt.On("List", mock.Anything).Return([]models.ContainerSummary(nil), errors.New("engine down"))

	c := NewCollector(rt, models.NewErrorStash(10), zaptest.NewLogger(t), "2.0.0").
		WithProbe(fakeProbe{diskErr: errors.New("no such mount")})
	info, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Nil(t, info.Runtime)
	assert.NotNil(t, info.Containers)
	assert.Empty(t, info.Containers)
	assert.Equal(t, models.UsageInfo{}, info.Disk)

	sources := make([]string, 0, len(info.Errors))
	for _, e := range info.Errors {
		sources = append(sources, e.Source)
	}
	assert.ElementsMatch(t, []string{"sysinfo:disk", "sysinfo:runtime", "sysinfo:containers"}, sources)
}

func TestCollectHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCollector(nil, nil, zaptest.NewLogger(t), "2.0.0").WithProbe(fakeProbe{})
	_, err := c.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
