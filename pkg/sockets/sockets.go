package sockets

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ErrClosed = errors.New("closed connection")

type Connection interface {
	Dial(ctx context.Context, url string) error
	Send(msg []byte) error
	Done() <-chan struct{}
	io.Closer
}

type Conn struct {
	mu               sync.Mutex
	ws               *websocket.Conn
	sslSkipVerify    bool
	closed           bool
	done             chan struct{}
	pingIntervalSecs int
	handshakeTimeout time.Duration
	onError          func(err error)
	onMessage        func([]byte, Connection)
	onConnected      func(Connection)
	pingMsg          []byte
}

func New(opts ...func(*Conn)) Connection {
	c := &Conn{
		closed:           true,
		handshakeTimeout: 15 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Close closes the connection. Closing twice is a no-op.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Conn) closeLocked() error {
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.ws.Close()
}

// Done is closed once the connection is gone.
func (c *Conn) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.done
}

func (c *Conn) Send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
		_ = c.closeLocked()
		return err
	}
	return nil
}

func (c *Conn) Dial(ctx context.Context, url string) error {
	dialer := &websocket.Dialer{
		HandshakeTimeout: c.handshakeTimeout,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: c.sslSkipVerify,
		},
	}
	conn, res, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if res != nil {
			return fmt.Errorf("dial %s: %w (status %d)", url, err, res.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", url, err)
	}

	c.mu.Lock()
	c.ws = conn
	c.closed = false
	c.done = make(chan struct{})
	c.mu.Unlock()

	if c.onConnected != nil {
		go c.onConnected(c)
	}
	go c.readLoop(conn)
	c.setupPing()
	return nil
}

func (c *Conn) readLoop(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			wasClosed := c.closed
			_ = c.closeLocked()
			c.mu.Unlock()
			if !wasClosed && c.onError != nil {
				c.onError(err)
			}
			return
		}
		if c.onMessage != nil {
			c.onMessage(msg, c)
		}
	}
}

func (c *Conn) setupPing() {
	if c.pingIntervalSecs <= 0 || len(c.pingMsg) == 0 {
		return
	}
	done := c.Done()
	ticker := time.NewTicker(time.Second * time.Duration(c.pingIntervalSecs))
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if c.Send(c.pingMsg) != nil {
					return
				}
			}
		}
	}()
}
