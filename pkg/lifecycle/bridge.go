package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"mercator-hq/beacon/pkg/telemetry/tracing"
)

// BridgeConfig configures a BridgeSource.
type BridgeConfig struct {
	// URL is the ws:// or wss:// endpoint of the native host bridge.
	URL string

	// HandshakeTimeout bounds the websocket handshake (default: 10s).
	HandshakeTimeout time.Duration

	// Header is sent with the handshake request, along with the trace
	// context of the connecting context.
	Header http.Header
}

// bridgeMessage is one frame sent by the host bridge, e.g.
// {"type":"change","status":"background"}.
type bridgeMessage struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

// BridgeSource reports transitions pushed by a native host over a websocket.
type BridgeSource struct {
	listeners

	cfg    BridgeConfig
	logger *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewBridgeSource creates an unconnected bridge source.
func NewBridgeSource(cfg BridgeConfig, logger *slog.Logger) *BridgeSource {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BridgeSource{cfg: cfg, logger: logger}
}

// Available implements Source. A bridge is available once connected.
func (b *BridgeSource) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// AddEventListener implements Source.
func (b *BridgeSource) AddEventListener(event string, h Handler) error {
	return b.add(event, h)
}

// Connect dials the bridge.
func (b *BridgeSource) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: b.cfg.HandshakeTimeout,
	}

	header := b.cfg.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	tracing.Inject(ctx, header)

	conn, resp, err := dialer.DialContext(ctx, b.cfg.URL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to connect to lifecycle bridge %q: %w", b.cfg.URL, err)
	}

	b.mu.Lock()
	b.conn = conn
	b.mu.Unlock()

	b.logger.Info("Connected to lifecycle bridge", "url", b.cfg.URL)
	return nil
}

// Run reads bridge messages until the connection closes or ctx is
// cancelled. A normal close returns nil.
func (b *BridgeSource) Run(ctx context.Context) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return errors.New("lifecycle bridge is not connected")
	}

	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	for {
		var msg bridgeMessage
		if err := conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			// A truncated frame decodes as io.ErrUnexpectedEOF; the
			// connection itself is still usable.
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
				b.logger.Warn("Malformed lifecycle bridge message", "error", err)
				continue
			}
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("lifecycle bridge read failed: %w", err)
		}

		switch msg.Type {
		case ChangeEvent:
			b.dispatch(ParseState(msg.Status))
		default:
			b.logger.Debug("Ignoring lifecycle bridge message", "type", msg.Type)
		}
	}
}

// Close closes the connection.
func (b *BridgeSource) Close() error {
	b.mu.Lock()
	conn := b.conn
	b.conn = nil
	b.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return conn.Close()
}
