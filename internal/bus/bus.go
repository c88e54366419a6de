// Package bus connects the assistant to a websocket message hub. Other
// clients send it utterances and receive its replies.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	KindUtterance = "utterance"
	KindReply     = "reply"

	// Broadcast addresses every client on the hub.
	Broadcast = "ALL"
)

var ErrClosed = errors.New("bus: closed")

type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

type Client struct {
	url    string
	name   string
	reconn time.Duration

	wmu  sync.Mutex
	conn *ws.Conn

	inbox  chan Message
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	pmu  sync.Mutex
	peer string

	log *log.Logger
}

// Dial connects to the hub at url as name and starts reading. Lost
// connections are redialed every reconn until Close.
func Dial(ctx context.Context, url, name string, reconn time.Duration) (*Client, error) {
	conn, _, err := ws.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if reconn <= 0 {
		reconn = 2 * time.Second
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		url:    url,
		name:   name,
		reconn: reconn,
		conn:   conn,
		inbox:  make(chan Message, 16),
		ctx:    cctx,
		cancel: cancel,
		done:   make(chan struct{}),
		log:    log.Default().With("component", "bus"),
	}

	c.log.Info("Connected to bus", "url", url, "name", name)
	go c.run()
	return c, nil
}

func (c *Client) Close() error {
	c.cancel()

	c.wmu.Lock()
	err := c.conn.Close()
	c.wmu.Unlock()

	<-c.done
	return err
}

func (c *Client) Send(m Message) error {
	if c.ctx.Err() != nil {
		return ErrClosed
	}
	m.From = c.name

	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	c.log.Debug("Write bus", "to", m.To, "kind", m.Kind)
	if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Receive returns the next message addressed to this client.
func (c *Client) Receive(ctx context.Context) (Message, error) {
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case m, ok := <-c.inbox:
		if !ok {
			return Message{}, ErrClosed
		}
		return m, nil
	}
}

func (c *Client) run() {
	defer close(c.done)
	defer close(c.inbox)

	for {
		c.wmu.Lock()
		conn := c.conn
		c.wmu.Unlock()

		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if isClosed(err) {
				c.log.Warn("Connection lost, reconnecting", "url", c.url)
			} else {
				c.log.Error("Failed to read", "error", err)
			}
			if !c.redial() {
				return
			}
			continue
		}

		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			c.log.Warn("Failed to parse", "msg", string(data), "error", err)
			continue
		}
		if m.To != c.name && m.To != Broadcast {
			continue
		}

		select {
		case c.inbox <- m:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) redial() bool {
	for {
		select {
		case <-c.ctx.Done():
			return false
		case <-time.After(c.reconn):
		}

		conn, _, err := ws.DefaultDialer.DialContext(c.ctx, c.url, nil)
		if err != nil {
			c.log.Debug("Redial failed", "error", err)
			continue
		}

		c.wmu.Lock()
		if c.ctx.Err() != nil {
			c.wmu.Unlock()
			conn.Close()
			return false
		}
		c.conn.Close()
		c.conn = conn
		c.wmu.Unlock()

		c.log.Info("Reconnected", "url", c.url)
		return true
	}
}

func isClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}

func (c *Client) setPeer(p string) {
	c.pmu.Lock()
	c.peer = p
	c.pmu.Unlock()
}

func (c *Client) lastPeer() string {
	c.pmu.Lock()
	defer c.pmu.Unlock()
	return c.peer
}

// Source listens for utterances. Other kinds are ignored.
type Source struct {
	c *Client
}

func (c *Client) Source() *Source { return &Source{c: c} }

func (s *Source) Listen(ctx context.Context) (string, error) {
	for {
		m, err := s.c.Receive(ctx)
		if errors.Is(err, ErrClosed) {
			return "", io.EOF
		}
		if err != nil {
			return "", err
		}
		if m.Kind != KindUtterance {
			continue
		}

		s.c.setPeer(m.From)
		return m.Content, nil
	}
}

// Replier answers whoever sent the last utterance, or everybody when no
// utterance has arrived yet.
type Replier struct {
	c *Client
}

func (c *Client) Replier() *Replier { return &Replier{c: c} }

func (r *Replier) Speak(_ context.Context, text string) error {
	to := r.c.lastPeer()
	if to == "" {
		to = Broadcast
	}
	return r.c.Send(Message{To: to, Kind: KindReply, Content: text})
}
