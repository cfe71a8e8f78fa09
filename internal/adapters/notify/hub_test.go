package notify

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(HubOptions{QueueSize: 4, PingPeriod: time.Second})
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(ctx, r.URL.Query().Get("id"), conn)
	}))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, id string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url+"?id="+id, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHubBroadcastReachesEveryListener(t *testing.T) {
	hub, url := startHub(t)
	a := dial(t, url, "a")
	b := dial(t, url, "b")
	require.Eventually(t, func() bool { return hub.ListenerCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.Broadcast("main_room_created")

	for _, c := range []*websocket.Conn{a, b} {
		require.NoError(t, c.SetReadDeadline(time.Now().Add(time.Second)))
		var ev Event
		require.NoError(t, c.ReadJSON(&ev))
		assert.Equal(t, "main_room_created", ev.Type)
	}
}

func TestHubKeepsEveryConnectionOfOneClient(t *testing.T) {
	hub, url := startHub(t)
	a := dial(t, url, "same-client")
	b := dial(t, url, "same-client")
	require.Eventually(t, func() bool { return hub.ListenerCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.Broadcast("breakout_room_created")

	for _, c := range []*websocket.Conn{a, b} {
		require.NoError(t, c.SetReadDeadline(time.Now().Add(time.Second)))
		var ev Event
		require.NoError(t, c.ReadJSON(&ev))
		assert.Equal(t, "breakout_room_created", ev.Type)
	}

	require.NoError(t, a.Close())
	require.Eventually(t, func() bool { return hub.ListenerCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestHubDetachesClosedListener(t *testing.T) {
	hub, url := startHub(t)
	c := dial(t, url, "a")
	require.Eventually(t, func() bool { return hub.ListenerCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close())
	require.Eventually(t, func() bool { return hub.ListenerCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestListenerDropsOnBackpressure(t *testing.T) {
	l := newListener("slow", nil, 1)
	require.NoError(t, l.TrySend([]byte("1")))
	assert.ErrorIs(t, l.TrySend([]byte("2")), ErrBackpressure)
}

func TestHubBroadcastNeverBlocks(t *testing.T) {
	hub := NewHub(HubOptions{QueueSize: 1})
	done := make(chan struct{})
	go func() {
		for range 10 {
			hub.Broadcast("x")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked without a running hub")
	}
}

type collector struct {
	mu     sync.Mutex
	events []string
}

func (c *collector) Broadcast(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *collector) has(event string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.events {
		if e == event {
			return true
		}
	}
	return false
}

func TestRedisRelayForwardsPublishedEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	local := &collector{}
	relay := NewRedisRelay(rdb, "rooms", local)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ready := make(chan struct{})
	go func() { _ = relay.Run(ctx, ready) }()
	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("relay did not subscribe")
	}

	relay.Broadcast("breakout_room_created")
	require.Eventually(t, func() bool { return local.has("breakout_room_created") }, time.Second, 10*time.Millisecond)
}

func TestRedisRelayBroadcastDoesNotWaitForRedis(t *testing.T) {
	// accepts connections and never answers
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		var held []net.Conn
		defer func() {
			for _, c := range held {
				_ = c.Close()
			}
		}()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			held = append(held, conn)
		}
	}()

	rdb := redis.NewClient(&redis.Options{Addr: ln.Addr().String(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	relay := NewRedisRelay(rdb, "rooms", &collector{})

	start := time.Now()
	relay.Broadcast("main_room_created")
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
