package agent

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync"
	"time"

	"github.com/docker/go-connections/tlsconfig"
	"github.com/gorilla/websocket"

	"github.com/whalebone/local-resolver-agent/models"
)

// Conn is one established control channel. Write may be called from
// several goroutines; Read from one.
type Conn interface {
	Read() ([]byte, error)
	Write(data []byte) error
	TLSState() (tls.ConnectionState, bool)
	Close() error
}

// Dialer opens control channels.
type Dialer interface {
	Dial(ctx context.Context, ep *Endpoint) (Conn, error)
}

// WebsocketDialer dials the management plane over a mutually authenticated
// websocket.
type WebsocketDialer struct {
	CertFile         string
	KeyFile          string
	CAFile           string
	HandshakeTimeout time.Duration
}

func NewWebsocketDialer(cfg Config) *WebsocketDialer {
	cfg = cfg.withDefaults()
	return &WebsocketDialer{
		CertFile:         cfg.CertFile,
		KeyFile:          cfg.KeyFile,
		CAFile:           cfg.CAFile,
		HandshakeTimeout: cfg.HandshakeTimeout,
	}
}

func (d *WebsocketDialer) Dial(ctx context.Context, ep *Endpoint) (Conn, error) {
	tlsCfg, err := tlsconfig.Client(tlsconfig.Options{
		CAFile:   d.CAFile,
		CertFile: d.CertFile,
		KeyFile:  d.KeyFile,
	})
	if err != nil {
		return nil, models.WrapError(models.KindInit, err, "load client certificate")
	}
	tlsCfg.ServerName = ep.Host

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		TLSClientConfig:  tlsCfg,
		HandshakeTimeout: d.HandshakeTimeout,
	}

	ws, _, err := dialer.DialContext(ctx, ep.Address, nil)
	if err != nil {
		return nil, models.WrapError(models.KindTransport, err, "dial %s", ep.Address)
	}
	return &wsConn{ws: ws}, nil
}

// wsConn serializes writes: a websocket connection supports one concurrent
// writer only.
type wsConn struct {
	ws *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func (c *wsConn) Read() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, models.WrapError(models.KindTransport, err, "read")
	}
	return data, nil
}

func (c *wsConn) Write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return models.WrapError(models.KindTransport, err, "write")
	}
	return nil
}

func (c *wsConn) TLSState() (tls.ConnectionState, bool) {
	tc, ok := c.ws.UnderlyingConn().(*tls.Conn)
	if !ok {
		return tls.ConnectionState{}, false
	}
	return tc.ConnectionState(), true
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
