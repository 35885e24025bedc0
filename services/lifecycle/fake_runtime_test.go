package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/whalebone/local-resolver-agent/models"
)

type fakeContainer struct {
	id      string
	image   string
	running bool
	polls   int
}

// fakeRuntime is an in-memory runtime. New containers report running after
// readyAfter inspections; a negative readyAfter never reports running.
type fakeRuntime struct {
	mu         sync.Mutex
	seq        int
	containers map[string]*fakeContainer
	readyAfter int

	failRun    map[string]error
	failRemove map[string]error
	failRename map[string]error
	failStop   map[string]error
	// leaveRun creates the container before failing the run, like a start
	// that fails after create.
	leaveRun map[string]error
	onRun    func(name string)

	calls []string
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		containers: map[string]*fakeContainer{},
		failRun:    map[string]error{},
		failRemove: map[string]error{},
		failRename: map[string]error{},
		failStop:   map[string]error{},
		leaveRun:   map[string]error{},
	}
}

func (f *fakeRuntime) seed(name, image string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := fmt.Sprintf("c%d", f.seq)
	f.containers[name] = &fakeContainer{id: id, image: image, running: true}
	return id
}

func (f *fakeRuntime) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.containers))
	for n := range f.containers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (f *fakeRuntime) get(name string) *fakeContainer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.containers[name]
}

func (f *fakeRuntime) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeRuntime) Run(_ context.Context, spec models.ServiceSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("run " + spec.Name)
	if f.onRun != nil {
		defer f.onRun(spec.Name)
	}
	if err := f.failRun[spec.Name]; err != nil {
		return "", err
	}
	if _, ok := f.containers[spec.Name]; ok {
		return "", fmt.Errorf("conflict: %s already in use", spec.Name)
	}
	f.seq++
	id := fmt.Sprintf("c%d", f.seq)
	f.containers[spec.Name] = &fakeContainer{id: id, image: spec.Image, running: f.readyAfter == 0}
	if err := f.leaveRun[spec.Name]; err != nil {
		return "", err
	}
	return id, nil
}

func (f *fakeRuntime) Stop(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("stop " + name)
	if err := f.failStop[name]; err != nil {
		return err
	}
	c, ok := f.containers[name]
	if !ok {
		return fmt.Errorf("no such container: %s", name)
	}
	c.running = false
	return nil
}

func (f *fakeRuntime) Restart(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("restart " + name)
	c, ok := f.containers[name]
	if !ok {
		return fmt.Errorf("no such container: %s", name)
	}
	c.running = true
	return nil
}

func (f *fakeRuntime) Remove(ctx context.Context, name string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("remove " + name)
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.failRemove[name]; err != nil {
		return err
	}
	if _, ok := f.containers[name]; !ok {
		return fmt.Errorf("no such container: %s", name)
	}
	delete(f.containers, name)
	return nil
}

func (f *fakeRuntime) Rename(ctx context.Context, oldName, newName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("rename " + oldName + " " + newName)
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.failRename[oldName]; err != nil {
		return err
	}
	c, ok := f.containers[oldName]
	if !ok {
		return fmt.Errorf("no such container: %s", oldName)
	}
	if _, taken := f.containers[newName]; taken {
		return fmt.Errorf("conflict: %s already in use", newName)
	}
	delete(f.containers, oldName)
	f.containers[newName] = c
	return nil
}

func (f *fakeRuntime) Inspect(_ context.Context, name string) (models.ContainerState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.containers[name]
	if !ok {
		return models.ContainerState{}, fmt.Errorf("no such container: %s", name)
	}
	c.polls++
	if !c.running && f.readyAfter > 0 && c.polls >= f.readyAfter {
		c.running = true
	}
	status := "created"
	if c.running {
		status = "running"
	}
	return models.ContainerState{ID: c.id, Name: name, Image: c.image, Status: status, Running: c.running}, nil
}

func (f *fakeRuntime) List(context.Context) ([]models.ContainerSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.ContainerSummary{}
	for n, c := range f.containers {
		out = append(out, models.ContainerSummary{ID: c.id, Name: n, Image: c.image})
	}
	return out, nil
}

func (f *fakeRuntime) Version(context.Context) (models.RuntimeVersion, error) {
	return models.RuntimeVersion{Version: "27.0.0", APIVersion: "1.47", Os: "linux", Arch: "amd64"}, nil
}
