package sensor

import (
	"errors"
	"sync"
	"testing"

	"github.com/lixenwraith/stramash/fx"
	"github.com/lixenwraith/stramash/player"
	"github.com/lixenwraith/stramash/render"
)

type fakePlayer struct {
	flags player.Flags
	team  *player.Team
}

func (p *fakePlayer) State() player.Flags { return p.flags }

func (p *fakePlayer) Team() (player.Team, bool) {
	if p.team == nil {
		return player.Team{}, false
	}
	return *p.team, true
}

type fakeEffects struct {
	mu   sync.Mutex
	hits int
}

func (f *fakeEffects) Trigger(ev fx.Event) {
	if ev == fx.EventHit {
		f.mu.Lock()
		f.hits++
		f.mu.Unlock()
	}
}

type fakeReceiver struct {
	handler func(address, data, control int)
	closed  bool
}

func (r *fakeReceiver) SetHandler(fn func(address, data, control int)) { r.handler = fn }

func (r *fakeReceiver) Close() error {
	r.closed = true
	return nil
}

const hittable = player.InGame | player.InTeam | player.Up | player.Alive

func newArbiter(exclude bool) (*Arbiter, *fakePlayer, *fakeEffects) {
	team := player.NewTeam(1, 4, render.RGBRed, "red")
	p := &fakePlayer{flags: hittable, team: &team}
	ef := &fakeEffects{}
	a := NewArbiter(Config{ID: 3, Name: "gun", ExcludeFriendly: exclude}, p, ef, nil)
	return a, p, ef
}

func TestEnemyHitCounted(t *testing.T) {
	a, _, ef := newArbiter(true)

	var got []HitRecord
	a.OnHit(func(h HitRecord) { got = append(got, h) })

	a.HandleCode(2, 7, 0)

	hits := a.Hits()
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if msg := hits[0].Message(); msg != "[2,7,1,4,3]" {
		t.Fatalf("message = %q, want [2,7,1,4,3]", msg)
	}
	if hits[0].Timestamp.IsZero() {
		t.Error("hit not timestamped")
	}
	if ef.hits != 1 || len(got) != 1 {
		t.Errorf("expected one effect and hook, got effects=%d hooks=%d", ef.hits, len(got))
	}
}

func TestFriendlyFireExcluded(t *testing.T) {
	a, _, ef := newArbiter(true)

	var friendly []HitRecord
	var counted int
	a.OnFriendlyFire(func(h HitRecord) { friendly = append(friendly, h) })
	a.OnHit(func(HitRecord) { counted++ })

	a.HandleCode(1, 2, 0) // teammate
	a.HandleCode(1, 4, 0) // own code, self-hit

	if len(a.Hits()) != 0 || counted != 0 || ef.hits != 0 {
		t.Error("friendly fire was counted")
	}
	if len(friendly) != 1 || friendly[0].ShooterPlayer != 2 {
		t.Errorf("expected one friendly-fire report from player 2, got %v", friendly)
	}
}

func TestFriendlyFireCountedWhenAllowed(t *testing.T) {
	a, _, ef := newArbiter(false)

	var friendly int
	a.OnFriendlyFire(func(HitRecord) { friendly++ })

	a.HandleCode(1, 2, 0)
	a.HandleCode(1, 4, 0)

	if len(a.Hits()) != 2 || ef.hits != 2 {
		t.Errorf("expected both hits counted, got %d", len(a.Hits()))
	}
	if friendly != 0 {
		t.Error("friendly-fire hook called when not excluding")
	}
}

func TestRepeatAndNoiseIgnored(t *testing.T) {
	a, _, _ := newArbiter(true)

	a.HandleCode(2, 0, 0)
	a.HandleCode(2, -1, 0)
	a.HandleCode(300, 5, 0)
	a.HandleCode(2, 256, 0)
	a.HandleCode(-4, 5, 0)

	if n := len(a.Hits()); n != 0 {
		t.Errorf("expected no hits, got %d", n)
	}
}

func TestNotHittable(t *testing.T) {
	tests := []struct {
		name  string
		flags player.Flags
	}{
		{"Shielded", hittable | player.Shielded},
		{"Dead", hittable &^ player.Alive},
		{"Down", hittable &^ player.Up},
		{"Kicked", hittable | player.Kicked},
		{"NoTeam", hittable &^ player.InTeam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, p, ef := newArbiter(true)
			p.flags = tt.flags

			a.HandleCode(2, 7, 0)
			if len(a.Hits()) != 0 || ef.hits != 0 {
				t.Error("unhittable player registered a hit")
			}
		})
	}
}

func TestListenRoutesReceiver(t *testing.T) {
	a, _, _ := newArbiter(true)
	r := &fakeReceiver{}

	a.Listen(r)
	r.handler(5, 6, 0)

	if len(a.Hits()) != 1 {
		t.Error("receiver code not arbitrated")
	}
}

func TestHitsReturnsCopy(t *testing.T) {
	a, _, _ := newArbiter(true)
	a.HandleCode(2, 7, 0)

	hits := a.Hits()
	hits[0].ShooterTeam = 99
	if a.Hits()[0].ShooterTeam != 2 {
		t.Error("hit log mutated through returned slice")
	}
}

func TestParseMessage(t *testing.T) {
	h, err := ParseMessage("[2,7,1,4,3]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.ShooterTeam != 2 || h.ShooterPlayer != 7 || h.VictimTeam != 1 || h.VictimPlayer != 4 || h.SensorID != 3 {
		t.Errorf("parsed %+v", h)
	}

	rec := HitRecord{ShooterTeam: 255, ShooterPlayer: 10, VictimTeam: 0, VictimPlayer: 12, SensorID: 1}
	back, err := ParseMessage(rec.Message())
	if err != nil || back != rec {
		t.Errorf("ParseMessage(%q) = %+v, %v", rec.Message(), back, err)
	}

	tests := []struct {
		name string
		msg  string
	}{
		{"empty", ""},
		{"no brackets", "2,7,1,4,3"},
		{"missing close", "[2,7,1,4,3"},
		{"too few fields", "[1,2,3]"},
		{"too many fields", "[1,2,3,4,5,6]"},
		{"out of range", "[256,7,1,4,3]"},
		{"negative", "[2,-7,1,4,3]"},
		{"not a number", "[2,x,1,4,3]"},
		{"raw bytes", "\x02\a\x01\x04\x03"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseMessage(tt.msg); !errors.Is(err, ErrMalformed) {
				t.Errorf("ParseMessage(%q) err = %v", tt.msg, err)
			}
		})
	}
}
