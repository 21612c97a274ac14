package render

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB represents a 24-bit color as driven onto a pixel or terminal cell
type RGB struct {
	R, G, B uint8
}

// Equal returns true if colors match
func (c RGB) Equal(other RGB) bool {
	return c.R == other.R && c.G == other.G && c.B == other.B
}

// String formats the color as (r,g,b)
func (c RGB) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.R, c.G, c.B)
}

// Hex formats the color as #rrggbb
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses #rrggbb or #rgb into a color
func ParseHex(s string) (RGB, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("parse colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

// Scale multiplies all channels by factor (0.0-1.0)
func Scale(c RGB, factor float64) RGB {
	return RGB{
		R: clamp(float64(c.R) * factor),
		G: clamp(float64(c.G) * factor),
		B: clamp(float64(c.B) * factor),
	}
}

// clamp converts float to uint8, truncating the fraction
func clamp(v float64) uint8 {
	if v >= 255.0 {
		return 255
	}
	if v <= 0.0 {
		return 0
	}
	return uint8(v)
}

// lerpChannel moves from a toward b by progress, truncating toward a
// The distance is truncated before it is added: start + int((end-start)*p)
func lerpChannel(a, b uint8, progress float64) uint8 {
	dist := int(float64(int(b)-int(a)) * progress)
	return uint8(int(a) + dist)
}

// Lerp linearly interpolates between two colors with integer truncation
// progress is clamped to [0,1]; Lerp(black, red, 0.5) is (127,0,0)
func Lerp(a, b RGB, progress float64) RGB {
	progress = ClampProgress(progress)
	return RGB{
		R: lerpChannel(a.R, b.R, progress),
		G: lerpChannel(a.G, b.G, progress),
		B: lerpChannel(a.B, b.B, progress),
	}
}

// ClampProgress clamps a fade progress value into [0,1], NaN maps to 0
func ClampProgress(p float64) float64 {
	if p != p || p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	return p
}

// LinearProgress returns elapsed/total clamped to [0,1]
func LinearProgress(elapsedMs, totalMs int64) float64 {
	if totalMs <= 0 {
		return 1
	}
	return ClampProgress(float64(elapsedMs) / float64(totalMs))
}

// LogProgress returns the logarithmic fade progress
// quickStart changes fast early: log_total(elapsed+1)
// otherwise it changes fast late: 1 - log_total(total-elapsed+1)
// A total of 1ms or less has no usable log base and completes immediately
func LogProgress(elapsedMs, totalMs int64, quickStart bool) float64 {
	if totalMs <= 1 {
		return 1
	}
	base := math.Log(float64(totalMs))
	var p float64
	if quickStart {
		p = math.Log(float64(elapsedMs+1)) / base
	} else {
		remaining := totalMs - elapsedMs + 1
		if remaining < 1 {
			remaining = 1
		}
		p = 1 - math.Log(float64(remaining))/base
	}
	return ClampProgress(p)
}

// Wheel maps 0-255 onto the r > g > b > r hue wheel
// Out of range positions return black
func Wheel(pos int) RGB {
	if pos < 0 || pos > 255 {
		return RGBBlack
	}
	if pos < 85 {
		return RGB{R: uint8(255 - pos*3), G: uint8(pos * 3), B: 0}
	}
	if pos < 170 {
		pos -= 85
		return RGB{R: 0, G: uint8(255 - pos*3), B: uint8(pos * 3)}
	}
	pos -= 170
	return RGB{R: uint8(pos * 3), G: 0, B: uint8(255 - pos*3)}
}

// RandomVivid returns a random saturated color for crossfade waypoints
func RandomVivid() RGB {
	r, g, b := colorful.FastHappyColor().RGB255()
	return RGB{R: r, G: g, B: b}
}
