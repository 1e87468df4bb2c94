package transport

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/spendsync/internal/errors"
	"github.com/vango-dev/spendsync/pkg/api"
	"github.com/vango-dev/spendsync/pkg/update"
)

// PushHandler receives descriptors pushed by the server.
type PushHandler func(updates []update.Descriptor)

// WSOption configures a WSTransport.
type WSOption func(*WSTransport)

// WithPushHandler sets the callback for push frames.
func WithPushHandler(fn PushHandler) WSOption {
	return func(t *WSTransport) {
		t.onPush = fn
	}
}

// WithWSLogger sets the transport logger.
func WithWSLogger(logger *slog.Logger) WSOption {
	return func(t *WSTransport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithWriteTimeout bounds each frame write.
func WithWriteTimeout(d time.Duration) WSOption {
	return func(t *WSTransport) {
		t.writeTimeout = d
	}
}

// WithDialer sets the dialer used by DialWS.
func WithDialer(d *websocket.Dialer) WSOption {
	return func(t *WSTransport) {
		if d != nil {
			t.dialer = d
		}
	}
}

// WSTransport multiplexes commands over a single WebSocket connection.
type WSTransport struct {
	conn         *websocket.Conn
	dialer       *websocket.Dialer
	logger       *slog.Logger
	onPush       PushHandler
	writeTimeout time.Duration

	writeMu sync.Mutex

	mu      sync.Mutex
	waiters map[string]chan *api.Response
	err     error

	done      chan struct{}
	closeOnce sync.Once
}

func newWS(opts []WSOption) *WSTransport {
	t := &WSTransport{
		dialer:       websocket.DefaultDialer,
		logger:       slog.Default(),
		writeTimeout: 10 * time.Second,
		waiters:      make(map[string]chan *api.Response),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// DialWS connects to the WebSocket endpoint at rawURL and starts reading.
func DialWS(ctx context.Context, rawURL string, opts ...WSOption) (*WSTransport, error) {
	t := newWS(opts)
	conn, resp, err := t.dialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		e := errors.New("S202").Wrap(err)
		if resp != nil {
			e = e.WithDetailf("handshake responded %s", resp.Status)
		}
		return nil, e
	}
	t.conn = conn
	go t.readLoop()
	return t, nil
}

// NewWS wraps an established connection and starts reading.
func NewWS(conn *websocket.Conn, opts ...WSOption) *WSTransport {
	t := newWS(opts)
	t.conn = conn
	go t.readLoop()
	return t
}

// Write implements api.Transport.
func (t *WSTransport) Write(ctx context.Context, req api.Request) (*api.Response, error) {
	data, err := EncodeFrame(RequestFrame(req))
	if err != nil {
		return nil, errors.New("S200").WithDetail("request could not be encoded").Wrap(err)
	}

	ch := make(chan *api.Response, 1)
	t.mu.Lock()
	if t.err != nil {
		err := t.err
		t.mu.Unlock()
		return nil, err
	}
	if _, dup := t.waiters[req.ID]; dup {
		t.mu.Unlock()
		return nil, errors.New("S200").WithDetailf("request id %s already in flight", req.ID)
	}
	t.waiters[req.ID] = ch
	t.mu.Unlock()

	if err := t.writeFrame(data); err != nil {
		t.forget(req.ID)
		return nil, errors.New("S202").Wrap(err)
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		t.forget(req.ID)
		return nil, errors.New("S200").Wrap(ctx.Err())
	case <-t.done:
		t.forget(req.ID)
		return nil, t.Err()
	}
}

func (t *WSTransport) writeFrame(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if t.writeTimeout > 0 {
		t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	}
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *WSTransport) forget(id string) {
	t.mu.Lock()
	delete(t.waiters, id)
	t.mu.Unlock()
}

// readLoop dispatches frames until the connection fails or is closed.
func (t *WSTransport) readLoop() {
	for {
		_, msg, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				t.logger.Error("read error", "error", err)
			}
			t.shutdown(errors.New("S203").Wrap(err))
			return
		}

		frame, err := DecodeFrame(msg)
		if err != nil {
			t.logger.Error("frame decode error", "error", err)
			continue
		}

		switch frame.Type {
		case FrameResponse:
			t.mu.Lock()
			ch, ok := t.waiters[frame.RequestID]
			delete(t.waiters, frame.RequestID)
			t.mu.Unlock()
			if !ok {
				t.logger.Debug("response for unknown request", "request_id", frame.RequestID)
				continue
			}
			ch <- frame.Response()

		case FramePush:
			t.push(frame.Updates)

		default:
			t.logger.Warn("unknown frame type", "type", frame.Type)
		}
	}
}

func (t *WSTransport) push(updates []update.Descriptor) {
	if t.onPush == nil || len(updates) == 0 {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("push handler panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	t.onPush(updates)
}

func (t *WSTransport) shutdown(err error) {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
		close(t.done)
	})
}

// Done is closed once the connection has ended.
func (t *WSTransport) Done() <-chan struct{} {
	return t.done
}

// Err returns why the connection ended, or nil while it is open.
func (t *WSTransport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Close sends a close frame, closes the connection and fails every pending
// request.
func (t *WSTransport) Close() error {
	t.writeMu.Lock()
	t.conn.SetWriteDeadline(time.Now().Add(time.Second))
	t.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	t.writeMu.Unlock()

	t.shutdown(errors.New("S203"))
	return t.conn.Close()
}
