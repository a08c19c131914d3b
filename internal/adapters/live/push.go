package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/okian/fairway/internal/domain/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Conn is an open push connection.
type Conn interface {
	// Read blocks until the next notification or a connection error.
	Read() (model.Notification, error)
	Close() error
}

// Dialer opens push connections.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// PushStrategy dials the scoring service's WebSocket endpoint.
type PushStrategy struct {
	URL   string
	Token string

	Dialer *websocket.Dialer
}

// Dial connects and sends the bearer token in the handshake when set.
func (p *PushStrategy) Dial(ctx context.Context) (Conn, error) {
	d := p.Dialer
	if d == nil {
		d = websocket.DefaultDialer
	}
	header := http.Header{}
	if p.Token != "" {
		header.Set("Authorization", "Bearer "+p.Token)
	}

	conn, resp, err := d.DialContext(ctx, p.URL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDial, p.URL, err)
	}
	return newWSConn(conn), nil
}

type wsConn struct {
	conn *websocket.Conn
	done chan struct{}
	once sync.Once
}

func newWSConn(conn *websocket.Conn) *wsConn {
	c := &wsConn{conn: conn, done: make(chan struct{})}
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go c.pingLoop()
	return c
}

// pingLoop keeps the read deadline alive on quiet channels.
func (c *wsConn) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *wsConn) Read() (model.Notification, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return model.Notification{}, err
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

	var n model.Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return model.Notification{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	n.ReceivedAt = time.Now()
	return n, nil
}

func (c *wsConn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		err = c.conn.Close()
	})
	return err
}
