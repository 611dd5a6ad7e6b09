package hub

import (
	"context"
	"testing"
	"time"
)

func runHub(t *testing.T, name string) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New(name)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, cancel
}

func addClient(t *testing.T, h *Hub, buf int) *Client {
	t.Helper()
	c := &Client{hub: h, send: make(chan Message, buf)}
	h.register <- c
	waitFor(t, func() bool { return h.ClientCount() > 0 })
	return c
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

func TestNew(t *testing.T) {
	h := New("violations")
	if h.ClientCount() != 0 {
		t.Error("ClientCount should be 0 initially")
	}
	if h.IsRunning() {
		t.Error("hub should not be running before Run")
	}
}

func TestBroadcastJSON(t *testing.T) {
	h, _ := runHub(t, "test")
	c := addClient(t, h, 4)

	if err := h.BroadcastJSON(map[string]string{"kind": "phone"}); err != nil {
		t.Fatalf("BroadcastJSON: %v", err)
	}

	select {
	case msg := <-c.send:
		if msg.Type != JSONMessage {
			t.Errorf("Type = %v, want JSONMessage", msg.Type)
		}
		if string(msg.Data) != `{"kind":"phone"}` {
			t.Errorf("Data = %s", msg.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

func TestBroadcastBinary(t *testing.T) {
	h, _ := runHub(t, "frames")
	c := addClient(t, h, 4)

	h.BroadcastBinary([]byte{0xFF, 0xD8})

	select {
	case msg := <-c.send:
		if msg.Type != BinaryMessage || len(msg.Data) != 2 {
			t.Errorf("unexpected message %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

func TestBroadcastJSON_Unencodable(t *testing.T) {
	h := New("test")
	if err := h.BroadcastJSON(make(chan int)); err == nil {
		t.Error("expected encode error")
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	h, _ := runHub(t, "test")
	c := addClient(t, h, 1)

	h.BroadcastBinary([]byte("a"))
	h.BroadcastBinary([]byte("b"))

	waitFor(t, func() bool { return h.ClientCount() == 0 })

	// Buffered message stays readable, then the channel is closed.
	<-c.send
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed")
	}
}

func TestUnregister(t *testing.T) {
	h, _ := runHub(t, "test")
	c := addClient(t, h, 1)

	h.unregister <- c
	waitFor(t, func() bool { return h.ClientCount() == 0 })

	// Unregistering twice is harmless.
	h.unregister <- c
}

func TestRun_StopsOnCancel(t *testing.T) {
	h, cancel := runHub(t, "test")
	c := addClient(t, h, 1)
	waitFor(t, h.IsRunning)

	cancel()

	select {
	case <-h.done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	if _, ok := <-c.send; ok {
		t.Error("client channel should be closed on shutdown")
	}
	if _, err := NewClient(h, nil); err != ErrClosed {
		t.Errorf("NewClient after stop = %v, want ErrClosed", err)
	}
}

func TestBroadcast_FullQueueDrops(t *testing.T) {
	h := New("test") // not running, nothing drains the queue
	for i := 0; i < cap(h.broadcast); i++ {
		if !h.Broadcast(NewBinaryMessage(nil)) {
			t.Fatalf("broadcast %d dropped early", i)
		}
	}
	if h.Broadcast(NewBinaryMessage(nil)) {
		t.Error("expected drop when queue is full")
	}
	if h.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", h.Dropped())
	}
}
