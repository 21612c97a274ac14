package player

import (
	"strings"

	"github.com/lixenwraith/stramash/render"
)

// Flags is the packed combat state of a player
// Values are read-only snapshots; the live state is owned by Player
type Flags uint8

const (
	InGame Flags = 1 << iota
	InTeam
	Up
	Shielded
	Alive
	Kicked
)

// flagNames in bit order
var flagNames = [...]string{"InGame", "InTeam", "Up", "Shielded", "Alive", "Kicked"}

// Has returns true if every bit of f is set
func (s Flags) Has(f Flags) bool {
	return s&f == f
}

// CanFire is InGame & Up & Alive & !Kicked
func (s Flags) CanFire() bool {
	return s.Has(InGame) && s.Has(Up) && s.Has(Alive) && !s.Has(Kicked)
}

// CanReload is identical to CanFire
func (s Flags) CanReload() bool {
	return s.Has(InGame) && s.Has(Up) && s.Has(Alive) && !s.Has(Kicked)
}

// CanBeHit is InGame & InTeam & Up & Alive & !Kicked & !Shielded
func (s Flags) CanBeHit() bool {
	return s.Has(InGame) && s.Has(InTeam) && s.Has(Up) && s.Has(Alive) &&
		!s.Has(Kicked) && !s.Has(Shielded)
}

// DisplayColour derives the colour a rendering backend shows for this state
// Checks run in order and a later match overrides an earlier one:
// not up, not alive and kicked turn the output off, shielded shows the overlay
func (s Flags) DisplayColour(team render.RGB) render.RGB {
	colour := team
	if !s.Has(Up) {
		colour = render.RGBBlack
	}
	if !s.Has(Alive) {
		colour = render.RGBBlack
	}
	if s.Has(Kicked) {
		colour = render.RGBBlack
	}
	if s.Has(Shielded) {
		colour = render.RGBShield
	}
	return colour
}

// String lists the set flags, e.g. "InGame|Up|Alive"
func (s Flags) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	for i, name := range flagNames {
		if s&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}
