package player

import (
	"testing"

	"github.com/lixenwraith/stramash/render"
)

// allFlags enumerates every combination of the six bits
func allFlags() []Flags {
	out := make([]Flags, 0, 64)
	for i := 0; i < 64; i++ {
		out = append(out, Flags(i))
	}
	return out
}

func TestCanReloadMatchesCanFire(t *testing.T) {
	for _, s := range allFlags() {
		if s.CanFire() != s.CanReload() {
			t.Errorf("%v: CanFire=%v CanReload=%v", s, s.CanFire(), s.CanReload())
		}
	}
}

func TestCanBeHitImpliesActive(t *testing.T) {
	for _, s := range allFlags() {
		if !s.CanBeHit() {
			continue
		}
		if !s.Has(InGame | InTeam | Up | Alive) {
			t.Errorf("%v: hittable without core flags", s)
		}
		if s.Has(Kicked) || s.Has(Shielded) {
			t.Errorf("%v: hittable while kicked or shielded", s)
		}
	}
}

func TestPredicates(t *testing.T) {
	active := InGame | InTeam | Up | Alive

	tests := []struct {
		name     string
		state    Flags
		canFire  bool
		canBeHit bool
	}{
		{"Active", active, true, true},
		{"Shielded", active | Shielded, true, false},
		{"Kicked", active | Kicked, false, false},
		{"Dead", active &^ Alive, false, false},
		{"Down", active &^ Up, false, false},
		{"NoTeam", active &^ InTeam, true, false},
		{"NotInGame", active &^ InGame, false, false},
		{"Fresh", Alive, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.CanFire(); got != tt.canFire {
				t.Errorf("CanFire = %v, want %v", got, tt.canFire)
			}
			if got := tt.state.CanBeHit(); got != tt.canBeHit {
				t.Errorf("CanBeHit = %v, want %v", got, tt.canBeHit)
			}
		})
	}
}

func TestDisplayColour(t *testing.T) {
	team := render.RGB{R: 0, G: 0, B: 128}
	active := InGame | InTeam | Up | Alive

	tests := []struct {
		name  string
		state Flags
		want  render.RGB
	}{
		{"Active", active, team},
		{"Down", active &^ Up, render.RGBBlack},
		{"Dead", active &^ Alive, render.RGBBlack},
		{"Kicked", active | Kicked, render.RGBBlack},
		{"Shielded", active | Shielded, render.RGBShield},
		{"ShieldedWhileDown", (active &^ Up) | Shielded, render.RGBShield},
		{"ShieldedWhileKicked", active | Kicked | Shielded, render.RGBShield},
		{"NotInGame", InTeam | Up | Alive, team},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.DisplayColour(team); !got.Equal(tt.want) {
				t.Errorf("DisplayColour = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlagsString(t *testing.T) {
	if got := Flags(0).String(); got != "none" {
		t.Errorf("empty flags = %q", got)
	}
	if got := (InGame | Up | Alive).String(); got != "InGame|Up|Alive" {
		t.Errorf("got %q", got)
	}
}
