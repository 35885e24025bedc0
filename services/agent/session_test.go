package agent

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/whalebone/local-resolver-agent/models"
)

type fakeConn struct {
	in   chan []byte
	done chan struct{}
	once sync.Once

	mu  sync.Mutex
	out []models.Response
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan []byte, 8), done: make(chan struct{})}
}

func (c *fakeConn) Read() ([]byte, error) {
	select {
	case m := <-c.in:
		return m, nil
	case <-c.done:
		return nil, errors.New("use of closed connection")
	}
}

func (c *fakeConn) Write(data []byte) error {
	select {
	case <-c.done:
		return errors.New("use of closed connection")
	default:
	}
	var resp models.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, resp)
	return nil
}

func (c *fakeConn) TLSState() (tls.ConnectionState, bool) { return tls.ConnectionState{}, false }

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *fakeConn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *fakeConn) sent(action string) []models.Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Response
	for _, r := range c.out {
		if r.Action == action {
			out = append(out, r)
		}
	}
	return out
}

type fakeDialer struct {
	mu       sync.Mutex
	failures int
	attempts int
	conns    []*fakeConn
}

func (d *fakeDialer) Dial(context.Context, *Endpoint) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempts++
	if d.attempts <= d.failures {
		return nil, models.NewError(models.KindTransport, "connection refused")
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) dialed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.conns) {
		return nil
	}
	return d.conns[i]
}

type countingValidator struct {
	calls   atomic.Int32
	failFor int32
}

func (v *countingValidator) Validate(Conn) error {
	if n := v.calls.Add(1); n <= v.failFor {
		return models.NewError(models.KindTransport, "peer certificate does not match")
	}
	return nil
}

type echoProcessor struct{}

func (echoProcessor) Process(_ context.Context, raw []byte) models.Response {
	var req models.Request
	_ = json.Unmarshal(raw, &req)
	return models.Response{RequestID: req.RequestID, Action: req.Action, Status: models.SingleStatus(models.StatusSuccess)}
}

type staticCollector struct{}

func (staticCollector) Collect(context.Context) (models.SystemInfo, error) {
	return models.SystemInfo{AgentVersion: "test"}, nil
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cert := filepath.Join(t.TempDir(), "client.pem")
	require.NoError(t, os.WriteFile(cert, []byte("pem"), 0o600))
	return Config{
		Address:           "wss://portal.example.com/agent",
		CertFile:          cert,
		ReconnectDelay:    time.Millisecond,
		HeartbeatInterval: time.Hour,
	}
}

func runSession(t *testing.T, s *Session) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return cancel, done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop")
		return nil
	}
}

func TestSessionFatalInitStopsImmediately(t *testing.T) {
	dialer := &fakeDialer{}
	cfg := testConfig(t)
	cfg.CertFile = ""

	s := NewSession(cfg, echoProcessor{}, nil, zaptest.NewLogger(t), WithDialer(dialer), WithHostValidator(&countingValidator{}))
	err := s.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, models.KindInit, models.KindOf(err))
	assert.Equal(t, 0, dialer.dialed())
}

func TestSessionAnswersRequests(t *testing.T) {
	dialer := &fakeDialer{failures: 2}
	s := NewSession(testConfig(t), echoProcessor{}, staticCollector{}, zaptest.NewLogger(t),
		WithDialer(dialer), WithHostValidator(&countingValidator{}))

	cancel, done := runSession(t, s)
	defer cancel()

	require.Eventually(t, func() bool { return dialer.conn(0) != nil }, 2*time.Second, time.Millisecond)
	assert.Equal(t, 3, dialer.dialed())

	conn := dialer.conn(0)
	conn.in <- []byte(`{"requestId":"r1","action":"stop","data":{"containers":["a"]}}`)

	require.Eventually(t, func() bool { return len(conn.sent("stop")) == 1 }, 2*time.Second, time.Millisecond)
	assert.JSONEq(t, `"r1"`, string(conn.sent("stop")[0].RequestID))

	cancel()
	assert.ErrorIs(t, waitDone(t, done), context.Canceled)
	assert.True(t, conn.closed())
}

func TestSessionReconnectsAfterChannelLoss(t *testing.T) {
	dialer := &fakeDialer{}
	s := NewSession(testConfig(t), echoProcessor{}, nil, zaptest.NewLogger(t),
		WithDialer(dialer), WithHostValidator(&countingValidator{}))

	cancel, done := runSession(t, s)
	defer cancel()

	require.Eventually(t, func() bool { return dialer.conn(0) != nil }, 2*time.Second, time.Millisecond)
	_ = dialer.conn(0).Close()

	require.Eventually(t, func() bool { return dialer.conn(1) != nil }, 2*time.Second, time.Millisecond)

	second := dialer.conn(1)
	second.in <- []byte(`{"action":"restart","data":{"containers":["a"]}}`)
	require.Eventually(t, func() bool { return len(second.sent("restart")) == 1 }, 2*time.Second, time.Millisecond)

	cancel()
	waitDone(t, done)
}

func TestSessionHostValidationFailureReconnects(t *testing.T) {
	dialer := &fakeDialer{}
	validator := &countingValidator{failFor: 1}
	s := NewSession(testConfig(t), echoProcessor{}, nil, zaptest.NewLogger(t),
		WithDialer(dialer), WithHostValidator(validator))

	cancel, done := runSession(t, s)
	defer cancel()

	require.Eventually(t, func() bool { return dialer.conn(1) != nil }, 2*time.Second, time.Millisecond)
	assert.True(t, dialer.conn(0).closed())

	cancel()
	waitDone(t, done)
}

func TestSessionHeartbeat(t *testing.T) {
	dialer := &fakeDialer{}
	validator := &countingValidator{}
	cfg := testConfig(t)
	cfg.HeartbeatInterval = 5 * time.Millisecond

	s := NewSession(cfg, echoProcessor{}, staticCollector{}, zaptest.NewLogger(t),
		WithDialer(dialer), WithHostValidator(validator))

	cancel, done := runSession(t, s)
	defer cancel()

	require.Eventually(t, func() bool {
		c := dialer.conn(0)
		return c != nil && len(c.sent("sysinfo")) >= 3
	}, 2*time.Second, time.Millisecond)

	beat := dialer.conn(0).sent("sysinfo")[0]
	assert.Empty(t, beat.RequestID)
	assert.Equal(t, models.StatusSuccess, beat.Status.Outcome)
	data, ok := beat.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "test", data["agentVersion"])

	// Connect plus one validation per heartbeat.
	assert.Eventually(t, func() bool { return validator.calls.Load() >= 4 }, 2*time.Second, time.Millisecond)

	cancel()
	waitDone(t, done)
}
