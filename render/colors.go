package render

// Named colors used by the effect backends
var (
	RGBBlack  = RGB{0, 0, 0}
	RGBWhite  = RGB{255, 255, 255}
	RGBRed    = RGB{255, 0, 0}
	RGBGreen  = RGB{0, 255, 0}
	RGBBlue   = RGB{0, 0, 255}
	RGBYellow = RGB{255, 255, 0}
	RGBOrange = RGB{255, 128, 0}
	RGBPink   = RGB{255, 128, 255}
	RGBPurple = RGB{255, 0, 255}
	RGBCyan   = RGB{0, 255, 255}
	RGBBrown  = RGB{32, 10, 0}

	// RGBShield is the overlay shown while the player is shielded
	RGBShield = RGB{255, 127, 0}
)
