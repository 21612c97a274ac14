package link

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lixenwraith/stramash/player"
	"github.com/lixenwraith/stramash/render"
	"github.com/lixenwraith/stramash/sensor"
)

var (
	ErrClosed    = errors.New("link closed")
	ErrQueueFull = errors.New("send queue full")
)

// ProtocolError reports a server message the device cannot act on
type ProtocolError struct {
	Topic  string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error on %q: %s", e.Topic, e.Reason)
}

// Player events the server publishes to each device
const (
	TopicGameJoined = "gamejoined"
	TopicAssigned   = "assigned"
	TopicUnassigned = "unassigned"
	TopicDeleted    = "deleted"
	TopicKicked     = "kicked"
	TopicUp         = "up"
	TopicDown       = "down"
)

var playerEvents = []string{
	TopicGameJoined, TopicAssigned, TopicUnassigned, TopicDeleted,
	TopicKicked, TopicUp, TopicDown,
}

const topicRoot = "stramash"

// PlayerTopic returns the topic of a server event for one player
func PlayerTopic(playerID, event string) string {
	return strings.Join([]string{topicRoot, "player", playerID, event}, "/")
}

// HitTopic is where a device reports hits it took in a game
func HitTopic(game string) string {
	return strings.Join([]string{topicRoot, "game", game, "hit"}, "/")
}

// FireTopic is where a device reports its shots in a game
func FireTopic(game string) string {
	return strings.Join([]string{topicRoot, "game", game, "fire"}, "/")
}

// Frame types
const (
	frameSubscribe = "subscribe"
	framePublish   = "publish"
)

// frame is one websocket message in either direction
// Payload is base64 in JSON
type frame struct {
	Type    string `json:"type"`
	Topic   string `json:"topic"`
	Payload []byte `json:"payload,omitempty"`
}

// teamPayload is the body of an assigned event
type teamPayload struct {
	Team   uint8  `json:"team"`
	Player uint8  `json:"player"`
	Colour string `json:"colour"`
	Name   string `json:"name"`
}

// EncodeTeam renders a team as an assigned payload
func EncodeTeam(t player.Team) ([]byte, error) {
	return json.Marshal(teamPayload{
		Team:   t.Number,
		Player: t.Player,
		Colour: t.Colour.Hex(),
		Name:   t.Name,
	})
}

// DecodeTeam parses an assigned payload
func DecodeTeam(topic string, b []byte) (player.Team, error) {
	var tp teamPayload
	if err := json.Unmarshal(b, &tp); err != nil {
		return player.Team{}, &ProtocolError{Topic: topic, Reason: "bad team: " + err.Error()}
	}
	colour, err := render.ParseHex(tp.Colour)
	if err != nil {
		return player.Team{}, &ProtocolError{Topic: topic, Reason: err.Error()}
	}
	return player.NewTeam(tp.Team, tp.Player, colour, tp.Name), nil
}

// Messenger is the device's connection to the game server
// Update is called once per main loop iteration and runs inbound handlers
type Messenger interface {
	Update()
	Connected() bool
	Publish(topic string, payload []byte) error
	Close() error
}

// PublishHit reports a hit as its bracketed text message
func PublishHit(m Messenger, game string, h sensor.HitRecord) error {
	return m.Publish(HitTopic(game), []byte(h.Message()))
}

// PublishFire reports a shot by playerID
func PublishFire(m Messenger, game, playerID string) error {
	return m.Publish(FireTopic(game), []byte(playerID))
}

// Nop is the messenger of a device running offline
type Nop struct{}

func (Nop) Update()                      {}
func (Nop) Connected() bool              { return false }
func (Nop) Publish(string, []byte) error { return nil }
func (Nop) Close() error                 { return nil }
