package link

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lixenwraith/stramash/player"
	"github.com/lixenwraith/stramash/render"
	"github.com/lixenwraith/stramash/sensor"
)

// fakePlayer records the transitions the server drove
type fakePlayer struct {
	mu   sync.Mutex
	ops  []string
	team player.Team
	game string
}

func (p *fakePlayer) record(op string) {
	p.mu.Lock()
	p.ops = append(p.ops, op)
	p.mu.Unlock()
}

func (p *fakePlayer) ID() string { return "gun-1" }

func (p *fakePlayer) JoinGame(game string) {
	p.mu.Lock()
	p.game = game
	p.mu.Unlock()
	p.record("join")
}

func (p *fakePlayer) Assign(team player.Team) {
	p.mu.Lock()
	p.team = team
	p.mu.Unlock()
	p.record("assign")
}

func (p *fakePlayer) LeaveGame() { p.record("leave") }
func (p *fakePlayer) Unassign()  { p.record("unassign") }
func (p *fakePlayer) Kick()      { p.record("kick") }
func (p *fakePlayer) Up()        { p.record("up") }
func (p *fakePlayer) Down()      { p.record("down") }

func (p *fakePlayer) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ops...)
}

// server is a minimal broker endpoint holding one device connection
type server struct {
	*httptest.Server

	mu        sync.Mutex
	conn      *websocket.Conn
	subscribe []string
	published []frame
	ready     chan struct{}
}

func newServer(t *testing.T) *server {
	t.Helper()
	s := &server{ready: make(chan struct{})}
	upgrader := websocket.Upgrader{}

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
		close(s.ready)

		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			s.mu.Lock()
			if f.Type == frameSubscribe {
				s.subscribe = append(s.subscribe, f.Topic)
			} else {
				s.published = append(s.published, f)
			}
			s.mu.Unlock()
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *server) url() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func (s *server) send(t *testing.T, topic string, payload []byte) {
	t.Helper()
	<-s.ready
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteJSON(frame{Type: framePublish, Topic: topic, Payload: payload}); err != nil {
		t.Fatalf("server send: %v", err)
	}
}

func (s *server) subscriptions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.subscribe...)
}

func (s *server) publications() []frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]frame(nil), s.published...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func dial(t *testing.T, s *server, p Player) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Server = s.url()
	c, err := Dial(context.Background(), cfg, p, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestDialSubscribesPlayerTopics(t *testing.T) {
	s := newServer(t)
	c := dial(t, s, &fakePlayer{})

	if !c.Connected() {
		t.Error("client not connected after Dial")
	}
	waitFor(t, "subscriptions", func() bool { return len(s.subscriptions()) == len(playerEvents) })
	if got := s.subscriptions()[0]; got != "stramash/player/gun-1/gamejoined" {
		t.Errorf("first subscription = %q", got)
	}
}

func TestDialRequiresServer(t *testing.T) {
	if _, err := Dial(context.Background(), DefaultConfig(), &fakePlayer{}, nil); err == nil {
		t.Error("expected error without a server")
	}
}

func TestServerEventsDrivePlayer(t *testing.T) {
	s := newServer(t)
	p := &fakePlayer{}
	c := dial(t, s, p)

	team, err := EncodeTeam(player.NewTeam(2, 5, render.RGB{R: 0, G: 0, B: 128}, "Blue"))
	if err != nil {
		t.Fatalf("EncodeTeam: %v", err)
	}

	s.send(t, PlayerTopic("gun-1", TopicGameJoined), []byte("g42"))
	s.send(t, PlayerTopic("gun-1", TopicAssigned), team)
	s.send(t, PlayerTopic("gun-1", TopicUp), nil)
	s.send(t, PlayerTopic("gun-1", TopicDown), nil)
	s.send(t, PlayerTopic("gun-1", TopicKicked), nil)
	s.send(t, PlayerTopic("gun-1", TopicUnassigned), nil)
	s.send(t, PlayerTopic("gun-1", TopicDeleted), nil)

	want := []string{"join", "assign", "up", "down", "kick", "unassign", "unassign", "leave"}
	waitFor(t, "transitions", func() bool {
		c.Update()
		return len(p.recorded()) == len(want)
	})
	for i, op := range p.recorded() {
		if op != want[i] {
			t.Errorf("op %d = %s, want %s", i, op, want[i])
		}
	}

	if p.game != "g42" {
		t.Errorf("joined game %q", p.game)
	}
	if p.team.Number != 2 || p.team.Player != 5 || p.team.Colour != (render.RGB{R: 0, G: 0, B: 128}) || p.team.Name != "Blue" {
		t.Errorf("assigned team %+v", p.team)
	}
	if c.Game() != "" {
		t.Errorf("game %q kept after deleted", c.Game())
	}
}

func TestUnknownTopicContained(t *testing.T) {
	s := newServer(t)
	p := &fakePlayer{}
	c := dial(t, s, p)

	var topics []string
	c.OnMessage(func(topic string, _ []byte) { topics = append(topics, topic) })

	s.send(t, "stramash/player/gun-1/exploded", nil)
	s.send(t, PlayerTopic("gun-1", TopicAssigned), []byte("not json"))
	s.send(t, PlayerTopic("gun-1", TopicGameJoined), nil)
	s.send(t, PlayerTopic("gun-1", TopicUp), nil)

	waitFor(t, "up after bad messages", func() bool {
		c.Update()
		return len(p.recorded()) == 1
	})
	if p.recorded()[0] != "up" {
		t.Errorf("ops = %v", p.recorded())
	}
	if len(topics) != 4 {
		t.Errorf("message hook saw %d messages", len(topics))
	}
	if !c.Connected() {
		t.Error("protocol error dropped the connection")
	}
}

func TestPublishHitAndFire(t *testing.T) {
	s := newServer(t)
	c := dial(t, s, &fakePlayer{})

	hit := sensor.HitRecord{ShooterTeam: 2, ShooterPlayer: 7, VictimTeam: 1, VictimPlayer: 4, SensorID: 3}
	if err := PublishHit(c, "g42", hit); err != nil {
		t.Fatalf("PublishHit: %v", err)
	}
	if err := PublishFire(c, "g42", "gun-1"); err != nil {
		t.Fatalf("PublishFire: %v", err)
	}

	waitFor(t, "publications", func() bool { return len(s.publications()) == 2 })
	got := s.publications()
	if got[0].Topic != "stramash/game/g42/hit" || string(got[0].Payload) != "[2,7,1,4,3]" {
		t.Errorf("hit publication %+v", got[0])
	}
	if got[1].Topic != "stramash/game/g42/fire" || string(got[1].Payload) != "gun-1" {
		t.Errorf("fire publication %+v", got[1])
	}
}

func TestPublishAfterClose(t *testing.T) {
	s := newServer(t)
	c := dial(t, s, &fakePlayer{})

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Publish("stramash/game/g/fire", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after Close = %v", err)
	}
	if c.Connected() {
		t.Error("connected after Close")
	}
}

func TestServerDisconnectDetected(t *testing.T) {
	s := newServer(t)
	c := dial(t, s, &fakePlayer{})

	<-s.ready
	s.mu.Lock()
	s.conn.Close()
	s.mu.Unlock()

	waitFor(t, "disconnect", func() bool { return !c.Connected() })
}

func TestNopMessenger(t *testing.T) {
	var m Messenger = Nop{}
	m.Update()
	if m.Connected() {
		t.Error("Nop reports connected")
	}
	if err := PublishHit(m, "g", sensor.HitRecord{}); err != nil {
		t.Errorf("Nop publish: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Nop close: %v", err)
	}
}

func TestDecodeTeamErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "x"},
		{"bad colour", `{"team":1,"player":1,"colour":"blue"}`},
		{"out of range", `{"team":300,"player":1,"colour":"#000080"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTeam("t", []byte(tt.payload))
			var pe *ProtocolError
			if !errors.As(err, &pe) {
				t.Errorf("err = %v, want ProtocolError", err)
			}
		})
	}
}
