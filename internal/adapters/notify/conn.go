package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

const writeWait = 5 * time.Second

// wsListener is one connected client. Frames go through a bounded queue;
// a slow client loses frames instead of stalling the hub.
type wsListener struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newListener(id string, conn *websocket.Conn, queue int) *wsListener {
	return &wsListener{id: id, conn: conn, send: make(chan []byte, queue)}
}

func (l *wsListener) TrySend(frame []byte) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	select {
	case l.send <- frame:
	default:
		return ErrBackpressure
	}
	return nil
}

func (l *wsListener) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.send)
	_ = l.conn.Close()
}

func (l *wsListener) writePump(ctx context.Context, pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		l.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-l.send:
			if !ok {
				return
			}
			if err := l.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := l.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "notify.ws").Str("listener", l.id).Msg("write error")
				return
			}
		case <-ticker.C:
			if err := l.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readPump only drains control frames; listeners never send anything useful.
func (l *wsListener) readPump(readLimit int64, pongWait time.Duration, done func()) {
	defer done()
	l.conn.SetReadLimit(readLimit)
	_ = l.conn.SetReadDeadline(time.Now().Add(pongWait))
	l.conn.SetPongHandler(func(string) error {
		return l.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := l.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "notify.ws").Str("listener", l.id).Msg("unexpected close")
			}
			return
		}
	}
}
