package link

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lixenwraith/stramash/player"
)

// Player is the set of transitions the server drives
type Player interface {
	ID() string
	JoinGame(game string)
	LeaveGame()
	Assign(team player.Team)
	Unassign()
	Kick()
	Up()
	Down()
}

// Client is a websocket messenger subscribed to its player's topics
type Client struct {
	cfg    Config
	log    *zap.Logger
	conn   *websocket.Conn
	player Player

	handlers map[string]func(topic string, payload []byte) error

	connected atomic.Bool

	// Queues
	sendCh chan frame
	recvCh chan frame

	mu        sync.Mutex // Protects game and onMessage
	game      string
	onMessage func(topic string, payload []byte)

	// Lifecycle
	closeCh   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Dial connects to cfg.Server and subscribes to the player's topics
func Dial(ctx context.Context, cfg Config, p Player, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Server == "" {
		return nil, errors.New("no server configured")
	}
	cfg = cfg.withDefaults()

	dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, cfg.Server, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Server, err)
	}

	c := &Client{
		cfg:     cfg,
		log:     log.Named("link"),
		conn:    conn,
		player:  p,
		sendCh:  make(chan frame, max(cfg.SendQueueSize, len(playerEvents))),
		recvCh:  make(chan frame, cfg.RecvQueueSize),
		closeCh: make(chan struct{}),
	}
	c.handlers = map[string]func(string, []byte) error{
		PlayerTopic(p.ID(), TopicGameJoined): c.gameJoined,
		PlayerTopic(p.ID(), TopicAssigned):   c.assigned,
		PlayerTopic(p.ID(), TopicUnassigned): c.transition(p.Unassign),
		PlayerTopic(p.ID(), TopicDeleted):    c.deleted,
		PlayerTopic(p.ID(), TopicKicked):     c.transition(p.Kick),
		PlayerTopic(p.ID(), TopicUp):         c.transition(p.Up),
		PlayerTopic(p.ID(), TopicDown):       c.transition(p.Down),
	}

	// Subscriptions lead the send queue
	for _, ev := range playerEvents {
		c.sendCh <- frame{Type: frameSubscribe, Topic: PlayerTopic(p.ID(), ev)}
	}

	c.connected.Store(true)
	c.wg.Add(2)
	go c.readLoop()
	go c.writeLoop()

	c.log.Info("connected", zap.String("server", cfg.Server), zap.String("player", p.ID()))
	return c, nil
}

// Connected reports whether the connection is up
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Game returns the game joined through the server, empty before gamejoined
func (c *Client) Game() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.game
}

// OnMessage sets a hook called with every inbound message before its handler
func (c *Client) OnMessage(fn func(topic string, payload []byte)) {
	c.mu.Lock()
	c.onMessage = fn
	c.mu.Unlock()
}

// Publish queues a message for the server
func (c *Client) Publish(topic string, payload []byte) error {
	if !c.connected.Load() {
		return ErrClosed
	}
	select {
	case c.sendCh <- frame{Type: framePublish, Topic: topic, Payload: payload}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Update runs the handlers of every message received since the last call
func (c *Client) Update() {
	for {
		select {
		case f := <-c.recvCh:
			c.handle(f)
		default:
			return
		}
	}
}

func (c *Client) handle(f frame) {
	c.mu.Lock()
	hook := c.onMessage
	c.mu.Unlock()
	if hook != nil {
		hook(f.Topic, f.Payload)
	}

	var err error
	if h, ok := c.handlers[f.Topic]; ok {
		err = h(f.Topic, f.Payload)
	} else {
		err = &ProtocolError{Topic: f.Topic, Reason: "unexpected topic"}
	}
	if err != nil {
		c.log.Warn("message dropped", zap.Error(err))
		return
	}
	c.log.Debug("message", zap.String("topic", f.Topic))
}

// Topic handlers

func (c *Client) transition(fn func()) func(string, []byte) error {
	return func(string, []byte) error {
		fn()
		return nil
	}
}

func (c *Client) gameJoined(topic string, payload []byte) error {
	if len(payload) == 0 {
		return &ProtocolError{Topic: topic, Reason: "missing game id"}
	}
	game := string(payload)
	c.mu.Lock()
	c.game = game
	c.mu.Unlock()
	c.player.JoinGame(game)
	return nil
}

func (c *Client) assigned(topic string, payload []byte) error {
	team, err := DecodeTeam(topic, payload)
	if err != nil {
		return err
	}
	c.player.Assign(team)
	return nil
}

func (c *Client) deleted(string, []byte) error {
	c.player.Unassign()
	c.player.LeaveGame()
	c.mu.Lock()
	c.game = ""
	c.mu.Unlock()
	return nil
}

// readLoop queues inbound publications for Update
func (c *Client) readLoop() {
	defer c.wg.Done()
	defer c.shutdown()

	for {
		var f frame
		if err := c.conn.ReadJSON(&f); err != nil {
			if c.connected.Load() && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.log.Warn("read failed", zap.Error(err))
			}
			return
		}
		if f.Type != framePublish {
			c.log.Warn("message dropped", zap.Error(&ProtocolError{Topic: f.Topic, Reason: "unexpected frame " + f.Type}))
			continue
		}

		select {
		case c.recvCh <- f:
		case <-c.closeCh:
			return
		}
	}
}

// writeLoop sends queued frames
func (c *Client) writeLoop() {
	defer c.wg.Done()
	defer c.shutdown()

	for {
		select {
		case <-c.closeCh:
			return
		case f := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
				c.log.Warn("write failed", zap.Error(err))
				return
			}
			if err := c.conn.WriteJSON(f); err != nil {
				c.log.Warn("write failed", zap.Error(err))
				return
			}
		}
	}
}

// shutdown stops both loops; safe from inside them
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		wasUp := c.connected.Swap(false)
		close(c.closeCh)

		deadline := time.Now().Add(c.cfg.WriteTimeout)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, deadline)
		c.conn.Close()

		if wasUp {
			c.log.Info("disconnected")
		}
	})
}

// Close disconnects and waits for the I/O loops
func (c *Client) Close() error {
	c.shutdown()
	c.wg.Wait()
	return nil
}
