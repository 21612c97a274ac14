package audio

import (
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// WaveType defines oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSaw
	WaveNoise
)

// oscillator generates a raw wave, optionally sweeping linearly between two frequencies
type oscillator struct {
	from     float64
	to       float64
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
}

// NewOscillator creates a fixed-frequency oscillator
func NewOscillator(freq float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return NewSweep(freq, freq, duration, wave, rate)
}

// NewSweep creates an oscillator gliding from one frequency to another over duration
func NewSweep(from, to float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return &oscillator{
		from:     from,
		to:       to,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			if o.phase < 0.5 {
				val = 1.0
			} else {
				val = -1.0
			}
		case WaveSaw:
			val = 2.0 * (o.phase - 0.5)
		case WaveNoise:
			val = rand.Float64()*2 - 1
		}

		samples[i][0] = val
		samples[i][1] = val

		freq := o.from + (o.to-o.from)*float64(o.position)/float64(o.duration)
		o.phase += freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope applies linear attack/release shaping to a stream
type envelope struct {
	streamer       beep.Streamer
	position       int
	attackSamples  int
	releaseSamples int
	releaseStart   int
	totalSamples   int
}

// NewEnvelope shapes s with an attack ramp and a release ramp ending at duration
func NewEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	total := rate.N(duration)
	att := rate.N(attack)
	rel := rate.N(release)
	start := total - rel
	if start < att {
		start = att
	}

	return &envelope{
		streamer:       s,
		attackSamples:  att,
		releaseSamples: rel,
		releaseStart:   start,
		totalSamples:   total,
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)

	for i := 0; i < n; i++ {
		if e.position >= e.totalSamples {
			return i, i > 0
		}

		vol := 1.0
		if e.position < e.attackSamples && e.attackSamples > 0 {
			vol = float64(e.position) / float64(e.attackSamples)
		}
		if e.position >= e.releaseStart && e.releaseSamples > 0 {
			vol = math.Max(0, float64(e.totalSamples-e.position)/float64(e.releaseSamples))
		}

		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}

	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// newVolume scales a stream linearly; log2(0) is -Inf so zero is mapped to silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}

// Effect sounds, unity gain before the master volume

// fireSound is a falling saw zap
func fireSound(rate beep.SampleRate) beep.Streamer {
	d := 150 * time.Millisecond
	osc := NewSweep(1800, 300, d, WaveSaw, rate)
	return NewEnvelope(osc, d, 2*time.Millisecond, 60*time.Millisecond, rate)
}

// failSound is a low square buzz
func failSound(rate beep.SampleRate) beep.Streamer {
	d := 300 * time.Millisecond
	osc := NewOscillator(100, d, WaveSquare, rate)
	return newVolume(NewEnvelope(osc, d, 5*time.Millisecond, 50*time.Millisecond, rate), 0.5)
}

// reloadSound rises over the whole reload time
func reloadSound(rate beep.SampleRate, d time.Duration) beep.Streamer {
	osc := NewSweep(200, 900, d, WaveSine, rate)
	return NewEnvelope(osc, d, 50*time.Millisecond, 100*time.Millisecond, rate)
}

// hitSound is a noise burst over a low rumble
// Mixed sounds are bounded with Take
func hitSound(rate beep.SampleRate) beep.Streamer {
	d := 400 * time.Millisecond
	noise := NewEnvelope(NewOscillator(0, d, WaveNoise, rate), d, time.Millisecond, 350*time.Millisecond, rate)
	rumble := NewEnvelope(NewOscillator(80, d, WaveSine, rate), d, time.Millisecond, 300*time.Millisecond, rate)
	return beep.Take(rate.N(d), beep.Mix(newVolume(noise, 0.6), newVolume(rumble, 0.4)))
}

// chirpSound glides between two pitches, rising for activate and falling for deactivate
func chirpSound(rate beep.SampleRate, from, to float64) beep.Streamer {
	d := 200 * time.Millisecond
	return NewEnvelope(NewSweep(from, to, d, WaveSine, rate), d, 10*time.Millisecond, 60*time.Millisecond, rate)
}

// bellSound is a fundamental with an octave overtone
func bellSound(rate beep.SampleRate) beep.Streamer {
	d := 600 * time.Millisecond
	fund := NewEnvelope(NewOscillator(880, d, WaveSine, rate), d, 5*time.Millisecond, 500*time.Millisecond, rate)
	over := NewEnvelope(NewOscillator(1760, d, WaveSine, rate), d, 5*time.Millisecond, 250*time.Millisecond, rate)
	return beep.Take(rate.N(d), beep.Mix(newVolume(fund, 0.7), newVolume(over, 0.3)))
}

// twoNoteSound plays two short square notes in sequence
func twoNoteSound(rate beep.SampleRate, first, second float64) beep.Streamer {
	d := 120 * time.Millisecond
	n1 := NewEnvelope(NewOscillator(first, d, WaveSquare, rate), d, 2*time.Millisecond, 40*time.Millisecond, rate)
	n2 := NewEnvelope(NewOscillator(second, d, WaveSquare, rate), d, 2*time.Millisecond, 60*time.Millisecond, rate)
	return newVolume(beep.Seq(n1, n2), 0.4)
}
