package player

import (
	"github.com/lixenwraith/stramash/render"
)

// Team is an immutable team assignment for one player
// Number and Player double as the infrared address and data bytes
type Team struct {
	Number uint8
	Player uint8
	Colour render.RGB
	Name   string
}

// NewTeam creates a team assignment
func NewTeam(number, player uint8, colour render.RGB, name string) Team {
	return Team{Number: number, Player: player, Colour: colour, Name: name}
}
