package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-proctor/internal/log"
	"github.com/teslashibe/go-proctor/pkg/violation"
)

var at = time.Date(2024, 5, 17, 9, 30, 15, 0, time.UTC)

func testEvent(kind violation.Kind) violation.Event {
	return violation.Event{ID: "evt-1", Kind: kind, Time: at}
}

func TestNewPayload_JSON(t *testing.T) {
	data, err := encode(testEvent(violation.HeadRotation))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"evt-1","kind":"head_rotation","timestamp":"2024-05-17T09:30:15Z"}`, string(data))
}

func TestDispatcher_Send(t *testing.T) {
	var (
		gotMethod string
		gotType   string
		gotBody   Payload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, time.Second, WithDispatcherLogger(log.Discard()))
	require.NoError(t, d.Send(context.Background(), testEvent(violation.Phone)))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "evt-1", gotBody.ID)
	assert.Equal(t, violation.Phone, gotBody.Kind)
}

func TestDispatcher_Send_AcceptsAny2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, time.Second, WithDispatcherLogger(log.Discard()))
	assert.NoError(t, d.Send(context.Background(), testEvent(violation.Phone)))
}

func TestDispatcher_Send_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, time.Second, WithDispatcherLogger(log.Discard()))
	err := d.Send(context.Background(), testEvent(violation.Phone))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
}

func TestDispatcher_Notify_SwallowsErrors(t *testing.T) {
	var hits int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, time.Second, WithDispatcherLogger(log.Discard()))
	d.Notify(context.Background(), testEvent(violation.Phone))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, hits, "no retry after a failed notification")
}

func TestDispatcher_Notify_Unreachable(t *testing.T) {
	d := NewDispatcher("http://127.0.0.1:1/violation", 200*time.Millisecond, WithDispatcherLogger(log.Discard()))
	assert.NotPanics(t, func() {
		d.Notify(context.Background(), testEvent(violation.Phone))
	})
}

func TestDispatcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, 50*time.Millisecond, WithDispatcherLogger(log.Discard()))
	start := time.Now()
	err := d.Send(context.Background(), testEvent(violation.Phone))
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

type recordingNotifier struct {
	events []violation.Event
}

func (r *recordingNotifier) Notify(_ context.Context, ev violation.Event) {
	r.events = append(r.events, ev)
}

func TestMulti(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{}
	m := Multi{a, nil, b, Nop{}}

	m.Notify(context.Background(), testEvent(violation.Phone))
	m.Notify(context.Background(), testEvent(violation.HeadRotation))

	assert.Len(t, a.events, 2)
	assert.Len(t, b.events, 2)
	assert.Equal(t, violation.HeadRotation, b.events[1].Kind)
}

// startTestNATSServer starts an embedded NATS server for testing.
func startTestNATSServer(t *testing.T) *natsserver.Server {
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1, // Random port
		NoLog:  true,
		NoSigs: true,
	}

	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	return server
}

func TestPublisher_PublishesOnKindSubject(t *testing.T) {
	server := startTestNATSServer(t)

	sub, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer sub.Close()

	ch := make(chan *nats.Msg, 4)
	s, err := sub.ChanSubscribe("proctor.violations.>", ch)
	require.NoError(t, err)
	defer s.Unsubscribe()
	require.NoError(t, sub.Flush())

	pub, err := Connect(server.ClientURL(), "")
	require.NoError(t, err)
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, pub.Send(ctx, testEvent(violation.HeadRotation)))

	select {
	case msg := <-ch:
		assert.Equal(t, "proctor.violations.head_rotation", msg.Subject)
		var p Payload
		require.NoError(t, json.Unmarshal(msg.Data, &p))
		assert.Equal(t, "evt-1", p.ID)
		assert.Equal(t, violation.HeadRotation, p.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for violation message")
	}
}

func TestPublisher_ClosedConnection(t *testing.T) {
	server := startTestNATSServer(t)

	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	pub := NewPublisher(nc, "exam")
	nc.Close()

	assert.Equal(t, "exam.phone", pub.Subject(violation.Phone))
	assert.ErrorIs(t, pub.Send(context.Background(), testEvent(violation.Phone)), ErrNotConnected)
	assert.NotPanics(t, func() { pub.Notify(context.Background(), testEvent(violation.Phone)) })
	assert.NoError(t, pub.Close(), "borrowed connection is not closed by the publisher")
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "")
	assert.Error(t, err)
}
