package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/rev4switch/internal/protocol"
	"github.com/muurk/rev4switch/internal/server"
)

func startBridge(t *testing.T) string {
	t.Helper()
	return startBridgeWith(t, &server.Config{})
}

func startBridgeWith(t *testing.T, cfg *server.Config) string {
	t.Helper()
	srv, err := server.New(cfg)
	if err != nil {
		t.Fatalf("server.New() error = %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dialBridge(t *testing.T, url string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, url)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSend(t *testing.T) {
	c := dialBridge(t, startBridge(t))
	ctx := testContext(t)

	cmd := protocol.Command{ID: 5, Unit: 2, State: protocol.StateOn}
	resp, err := c.Send(ctx, cmd, 0)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if resp.Message == nil || *resp.Message != cmd {
		t.Errorf("Message = %v, want %v", resp.Message, cmd)
	}

	want := protocol.Encode(cmd).Pulses.Slice()
	for i := range want {
		if resp.Pulses[i] != want[i] {
			t.Fatalf("Pulses[%d] = %d, want %d", i, resp.Pulses[i], want[i])
		}
	}
}

func TestSendOffAt258(t *testing.T) {
	c := dialBridge(t, startBridge(t))

	cmd := protocol.Command{ID: 63, Unit: 15, State: protocol.StateOff}
	resp, err := c.Send(testContext(t), cmd, protocol.PulseLength258)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	got, err := protocol.DecodePulses(resp.Pulses, protocol.PulseLength258)
	if err != nil || got != cmd {
		t.Errorf("bridge train decodes to %v, %v; want %v", got, err, cmd)
	}
}

func TestSendRejected(t *testing.T) {
	c := dialBridge(t, startBridge(t))

	_, err := c.Send(testContext(t), protocol.Command{ID: 64, Unit: 0, State: protocol.StateOn}, 0)
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("Send() error = %v, want *RequestError", err)
	}
	if !strings.Contains(reqErr.Message, "invalid id range") {
		t.Errorf("Message = %q", reqErr.Message)
	}

	// The connection is still usable after a rejection
	if _, err := c.Send(testContext(t), protocol.Command{ID: 1, Unit: 1, State: protocol.StateOn}, 0); err != nil {
		t.Errorf("Send() after rejection error = %v", err)
	}
}

func TestReceive(t *testing.T) {
	c := dialBridge(t, startBridge(t))

	want := protocol.Command{ID: 12, Unit: 9, State: protocol.StateOff}
	got, err := c.Receive(testContext(t), protocol.Encode(want).Pulses.Slice(), 0)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if got != want {
		t.Errorf("Receive() = %v, want %v", got, want)
	}
}

func TestListenSeesOtherClientsSends(t *testing.T) {
	url := startBridge(t)
	sender := dialBridge(t, url)
	listener := dialBridge(t, url)

	// Make sure the listener is registered before the broadcast goes out
	if _, err := listener.Help(testContext(t)); err != nil {
		t.Fatalf("Help() error = %v", err)
	}

	cmd := protocol.Command{ID: 7, Unit: 3, State: protocol.StateOn}
	if _, err := sender.Send(testContext(t), cmd, 0); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var got []server.Response
	err := listener.Listen(ctx, func(r server.Response) {
		got = append(got, r)
		cancel()
	})
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Listen() delivered %d broadcasts, want 1", len(got))
	}
	if got[0].Origin != server.OriginSender || *got[0].Message != cmd {
		t.Errorf("broadcast = %+v", got[0])
	}
}

func TestTransmit(t *testing.T) {
	c := dialBridge(t, startBridge(t))

	enc, _ := protocol.NewEncoder(protocol.PulseLength258)
	if err := c.Transmit(testContext(t), enc.Encode(protocol.Command{ID: 2, Unit: 2, State: protocol.StateOn})); err != nil {
		t.Errorf("Transmit() error = %v", err)
	}
}

func TestClosedClient(t *testing.T) {
	c := dialBridge(t, startBridge(t))
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	_, err := c.Send(testContext(t), protocol.Command{ID: 1, Unit: 1, State: protocol.StateOn}, 0)
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Send() after Close error = %v, want ErrClosed", err)
	}
	if err := c.Listen(testContext(t), func(server.Response) {}); !errors.Is(err, ErrClosed) {
		t.Errorf("Listen() after Close error = %v, want ErrClosed", err)
	}
}

func TestDialFailure(t *testing.T) {
	ctx := testContext(t)
	if _, err := Dial(ctx, "ws://127.0.0.1:1/ws"); err == nil {
		t.Error("Dial() to a closed port should fail")
	}
}

func TestTransmitReportsBridgeEncoding(t *testing.T) {
	c := dialBridge(t, startBridgeWith(t, &server.Config{LegacyStateEncoding: true}))

	enc, _ := protocol.NewEncoder(protocol.DefaultPulseLength)
	err := c.Transmit(testContext(t), enc.Encode(protocol.Command{ID: 3, Unit: 4, State: protocol.StateOff}))
	if !errors.Is(err, ErrTrainMismatch) {
		t.Errorf("Transmit() error = %v, want ErrTrainMismatch", err)
	}

	// An on command is the same train either way
	if err := c.Transmit(testContext(t), enc.Encode(protocol.Command{ID: 3, Unit: 4, State: protocol.StateOn})); err != nil {
		t.Errorf("Transmit() on error = %v", err)
	}
}

// startSlowBridge serves help requests, holding back the reply to the first
// one for delay.
func startSlowBridge(t *testing.T, delay time.Duration) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		for n := 1; ; n++ {
			var req server.Request
			if err := ws.ReadJSON(&req); err != nil {
				return
			}
			help := "fresh"
			if n == 1 {
				time.Sleep(delay)
				help = "late"
			}
			resp := server.Response{Seq: req.Seq, Status: server.StatusSuccess, Action: req.Action, Help: help}
			if err := ws.WriteJSON(resp); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestLateReplyIsNotHandedToNextRequest(t *testing.T) {
	c := dialBridge(t, startSlowBridge(t, 100*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Help(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("first Help() error = %v, want deadline exceeded", err)
	}

	got, err := c.Help(testContext(t))
	if err != nil {
		t.Fatalf("second Help() error = %v", err)
	}
	if got != "fresh" {
		t.Errorf("second Help() = %q, want the reply to its own request", got)
	}
}

func TestLateReplyWaitingInQueueIsSkipped(t *testing.T) {
	c := dialBridge(t, startSlowBridge(t, 100*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _ = c.Help(ctx)

	// Let the late reply arrive before the next request goes out
	time.Sleep(200 * time.Millisecond)

	got, err := c.Help(testContext(t))
	if err != nil || got != "fresh" {
		t.Errorf("Help() = %q, %v; want fresh", got, err)
	}
}
