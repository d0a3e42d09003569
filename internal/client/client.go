package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/rev4switch/internal/logging"
	"github.com/muurk/rev4switch/internal/protocol"
	"github.com/muurk/rev4switch/internal/server"
	"github.com/muurk/rev4switch/internal/version"
)

const (
	// DefaultDialTimeout bounds the WebSocket handshake
	DefaultDialTimeout = 10 * time.Second

	writeWait       = 10 * time.Second
	broadcastBuffer = 64
)

var (
	// ErrClosed is returned by calls on a closed client.
	ErrClosed = errors.New("bridge connection closed")

	// ErrTrainMismatch is returned by Transmit when the bridge put a
	// different pulse train on air than the one it was handed, typically
	// because the bridge runs with other encoder settings.
	ErrTrainMismatch = errors.New("bridge transmitted a different pulse train")
)

// RequestError is a failure reply from the bridge.
type RequestError struct {
	Action  string
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("bridge rejected %s: %s", e.Action, e.Message)
}

// Client is a connection to a rev4_switch bridge. Requests are serialized;
// broadcasts are delivered through Listen.
type Client struct {
	conn *websocket.Conn
	url  string

	writeMu sync.Mutex
	reqMu   sync.Mutex

	// seq numbers requests; pending is the seq of the request awaiting its
	// reply, 0 when none is.
	seq     uint64
	pending atomic.Uint64

	replies    chan server.Response
	broadcasts chan server.Response
	done       chan struct{}

	closeOnce sync.Once
	errMu     sync.Mutex
	err       error
}

// Dial connects to a bridge WebSocket URL such as ws://host:5001/ws.
func Dial(ctx context.Context, url string) (*Client, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: DefaultDialTimeout,
		Proxy:            http.ProxyFromEnvironment,
	}
	header := http.Header{}
	header.Set("User-Agent", version.UserAgent())

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect to bridge %s (HTTP %d): %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to connect to bridge %s: %w", url, err)
	}

	c := &Client{
		conn:       conn,
		url:        url,
		replies:    make(chan server.Response, 1),
		broadcasts: make(chan server.Response, broadcastBuffer),
		done:       make(chan struct{}),
	}
	go c.readLoop()

	logging.LogConnection(url, "bridge_connected")
	return c, nil
}

// URL returns the bridge address the client dialed.
func (c *Client) URL() string {
	return c.url
}

// readLoop routes replies and broadcasts until the connection ends.
func (c *Client) readLoop() {
	defer c.shutdown(nil)

	for {
		var resp server.Response
		if err := c.conn.ReadJSON(&resp); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.shutdown(err)
			}
			return
		}

		if resp.IsBroadcast() {
			select {
			case c.broadcasts <- resp:
			default:
				logging.Warn("Dropping bridge broadcast, listener is not keeping up",
					zap.String("url", c.url),
				)
			}
			continue
		}

		if resp.Seq == 0 || resp.Seq != c.pending.Load() {
			logging.Debug("Discarding reply to an abandoned request",
				zap.String("url", c.url),
				zap.Uint64("seq", resp.Seq),
			)
			continue
		}

		select {
		case c.replies <- resp:
		case <-c.done:
			return
		}
	}
}

func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.errMu.Lock()
		c.err = err
		c.errMu.Unlock()
		close(c.done)
		_ = c.conn.Close()
		logging.LogConnection(c.url, "bridge_disconnected")
	})
}

// Err returns why the connection ended, nil while it is open or after a
// clean close.
func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// do sends req and waits for the reply carrying its sequence number.
// Replies to requests whose callers gave up are discarded.
func (c *Client) do(ctx context.Context, req server.Request) (server.Response, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	select {
	case <-c.done:
		return server.Response{}, ErrClosed
	default:
	}

	c.seq++
	req.Seq = c.seq
	c.pending.Store(req.Seq)
	defer c.pending.Store(0)

	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		return server.Response{}, fmt.Errorf("failed to send %s request: %w", req.Action, err)
	}

	for {
		select {
		case resp := <-c.replies:
			if resp.Seq != req.Seq {
				// Matched an earlier request just before its caller gave up
				continue
			}
			if resp.Status != server.StatusSuccess {
				return resp, &RequestError{Action: req.Action, Message: resp.Error}
			}
			return resp, nil
		case <-c.done:
			if err := c.Err(); err != nil {
				return server.Response{}, fmt.Errorf("%w: %v", ErrClosed, err)
			}
			return server.Response{}, ErrClosed
		case <-ctx.Done():
			return server.Response{}, ctx.Err()
		}
	}
}

// Send asks the bridge to encode and broadcast cmd at pulseLength (0 for
// the bridge default). It returns the train the bridge produced.
func (c *Client) Send(ctx context.Context, cmd protocol.Command, pulseLength int) (server.Response, error) {
	code := map[string]any{"id": cmd.ID, "unit": cmd.Unit}
	code[cmd.State.String()] = 1

	logging.LogCommand("send", protocol.ProtocolID, cmd.ID, cmd.Unit, cmd.State.String())
	return c.do(ctx, server.Request{
		Action:      server.ActionSend,
		Code:        code,
		PulseLength: pulseLength,
	})
}

// Transmit sends an already encoded command, making Client usable as the
// remote's transmitter. The bridge re-encodes from the command with its own
// settings; if the train it reports differs from enc.Pulses the error wraps
// ErrTrainMismatch. The code has been sent either way.
func (c *Client) Transmit(ctx context.Context, enc protocol.Encoding) error {
	pulseLength := enc.Pulses[0]
	if !protocol.IsValidPulseLength(pulseLength) {
		pulseLength = 0
	}
	resp, err := c.Send(ctx, enc.Command, pulseLength)
	if err != nil {
		return err
	}
	if !slices.Equal(resp.Pulses, enc.Pulses.Slice()) {
		logging.Warn("Bridge transmitted a different pulse train",
			zap.String("url", c.url),
			zap.String("want", enc.Pulses.String()),
			zap.Ints("got", resp.Pulses),
		)
		return fmt.Errorf("%w for %v", ErrTrainMismatch, enc.Command)
	}
	return nil
}

// Receive reports a radio capture to the bridge and returns the decoded
// command.
func (c *Client) Receive(ctx context.Context, pulses []int, pulseLength int) (protocol.Command, error) {
	resp, err := c.do(ctx, server.Request{
		Action:      server.ActionReceive,
		Pulses:      pulses,
		PulseLength: pulseLength,
	})
	if err != nil {
		return protocol.Command{}, err
	}
	if resp.Message == nil {
		return protocol.Command{}, errors.New("bridge reply carries no message")
	}
	return *resp.Message, nil
}

// Help returns the bridge's option help text.
func (c *Client) Help(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, server.Request{Action: server.ActionHelp})
	if err != nil {
		return "", err
	}
	return resp.Help, nil
}

// Listen calls fn for every broadcast until ctx ends or the connection
// closes. It returns nil on ctx cancellation.
func (c *Client) Listen(ctx context.Context, fn func(server.Response)) error {
	for {
		select {
		case resp := <-c.broadcasts:
			fn(resp)
		case <-ctx.Done():
			return nil
		case <-c.done:
			if err := c.Err(); err != nil {
				return err
			}
			return ErrClosed
		}
	}
}

// Close sends a close frame and tears down the connection.
func (c *Client) Close() error {
	select {
	case <-c.done:
		return nil
	default:
	}

	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	c.writeMu.Unlock()

	c.shutdown(nil)
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return err
	}
	return nil
}
