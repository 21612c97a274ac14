package fx

import (
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/stramash/render"
)

// Immediate writes, not busy-gated

// Fill sets every pixel to c and writes the strip
func (p *Pixels) Fill(c render.RGB) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < p.strip.Len(); i++ {
		p.strip.Set(i, c)
	}
	p.writeLocked()
}

// SetPixel sets one pixel and writes the strip, out of range is ignored
func (p *Pixels) SetPixel(i int, c render.RGB) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= p.strip.Len() {
		return
	}
	p.strip.Set(i, c)
	p.writeLocked()
}

func (p *Pixels) writeLocked() {
	if err := p.strip.Write(); err != nil {
		p.log.Warn("strip write failed", zap.Error(err))
	}
}

// frame is the sleep between animation updates
func (p *Pixels) frame() time.Duration {
	return time.Second / time.Duration(p.cfg.FrameRate)
}

// Busy-gated animations; each returns false if the strip was busy

// Blip shows c on all pixels for d, then black
func (p *Pixels) Blip(d time.Duration, c render.RGB) bool {
	return p.anim.start("blip", func() { p.blip(d, c) })
}

// Strobe flashes c at frequency Hz for d
func (p *Pixels) Strobe(frequency int, d time.Duration, c render.RGB) bool {
	if frequency <= 0 {
		return false
	}
	return p.anim.start("strobe", func() { p.strobe(frequency, d, c) })
}

// Fade moves all pixels linearly from start to end over d
func (p *Pixels) Fade(d time.Duration, start, end render.RGB) bool {
	return p.anim.start("fade", func() { p.fade(d, start, end) })
}

// FadeLog fades on a logarithmic curve, quickStart front-loads the change
func (p *Pixels) FadeLog(d time.Duration, start, end render.RGB, quickStart bool) bool {
	return p.anim.start("fadelog", func() { p.fadeLog(d, start, end, quickStart) })
}

// FadeInOut fades to target and back to start, half of d each way
func (p *Pixels) FadeInOut(d time.Duration, start, target render.RGB) bool {
	return p.anim.start("fadeinout", func() { p.fadeInOut(d, start, target) })
}

// FadeInOutLog fades out quick-start and back slow-start
func (p *Pixels) FadeInOutLog(d time.Duration, start, target render.RGB) bool {
	return p.anim.start("fadeinoutlog", func() { p.fadeInOutLog(d, start, target) })
}

// Pulse repeats FadeInOut times within d
func (p *Pixels) Pulse(d time.Duration, start, target render.RGB, times int) bool {
	if times <= 0 {
		return false
	}
	return p.anim.start("pulse", func() {
		for i := 0; i < times; i++ {
			p.fadeInOut(d/time.Duration(times), start, target)
		}
	})
}

// Crossfade fades from start to end through pulses-1 random colours
func (p *Pixels) Crossfade(d time.Duration, start, end render.RGB, pulses int) bool {
	if pulses <= 0 {
		return false
	}
	return p.anim.start("crossfade", func() {
		p.mu.Lock()
		random := p.random
		p.mu.Unlock()

		from := start
		for i := 0; i < pulses; i++ {
			target := end
			if i < pulses-1 {
				target = random()
			}
			p.fade(d/time.Duration(pulses), from, target)
			from = target
		}
	})
}

// Rainbow sweeps the whole strip through the hue wheel cycles times, ending black
func (p *Pixels) Rainbow(d time.Duration, cycles int) bool {
	if cycles <= 0 {
		return false
	}
	return p.anim.start("rainbow", func() { p.rainbow(d, cycles) })
}

// RainbowCycle spreads the wheel across the strip and rotates it for d, ending black
func (p *Pixels) RainbowCycle(d time.Duration) bool {
	return p.anim.start("rainbowcycle", func() { p.rainbowCycle(d) })
}

// Sweep moves one fg pixel across a bg strip in dir over d
func (p *Pixels) Sweep(d time.Duration, dir Direction, bg, fg render.RGB) bool {
	return p.anim.start("sweep", func() { p.sweep(d, dir, bg, fg) })
}

// Synchronous building blocks, run inside an animation goroutine

func (p *Pixels) blip(d time.Duration, c render.RGB) {
	p.Fill(c)
	time.Sleep(d)
	p.Fill(render.RGBBlack)
}

func (p *Pixels) strobe(frequency int, d time.Duration, c render.RGB) {
	half := time.Second / time.Duration(frequency*2)
	end := time.Now().Add(d)
	for time.Now().Before(end) {
		p.Fill(c)
		time.Sleep(half)
		p.Fill(render.RGBBlack)
		time.Sleep(half)
	}
}

func (p *Pixels) fade(d time.Duration, start, end render.RGB) {
	p.fadeWith(d, start, end, render.LinearProgress)
}

func (p *Pixels) fadeLog(d time.Duration, start, end render.RGB, quickStart bool) {
	p.fadeWith(d, start, end, func(elapsedMs, totalMs int64) float64 {
		return render.LogProgress(elapsedMs, totalMs, quickStart)
	})
}

// fadeWith renders frames until d elapses, then settles exactly on end
func (p *Pixels) fadeWith(d time.Duration, start, end render.RGB, progress func(elapsedMs, totalMs int64) float64) {
	frame := p.frame()
	totalMs := d.Milliseconds()

	p.Fill(start)
	begin := time.Now()
	for {
		elapsed := time.Since(begin)
		if elapsed >= d {
			break
		}
		p.Fill(render.Lerp(start, end, progress(elapsed.Milliseconds(), totalMs)))
		time.Sleep(frame)
	}
	p.Fill(end)
}

func (p *Pixels) fadeInOut(d time.Duration, start, target render.RGB) {
	p.fade(d/2, start, target)
	p.fade(d/2, target, start)
}

func (p *Pixels) fadeInOutLog(d time.Duration, start, target render.RGB) {
	p.fadeLog(d/2, start, target, true)
	p.fadeLog(d/2, target, start, false)
}

func (p *Pixels) rainbow(d time.Duration, cycles int) {
	frame := p.frame()
	per := d / time.Duration(cycles)
	for i := 0; i < cycles; i++ {
		p.Fill(render.RGBRed)
		begin := time.Now()
		for {
			elapsed := time.Since(begin)
			if elapsed >= per {
				break
			}
			progress := render.LinearProgress(elapsed.Milliseconds(), per.Milliseconds())
			p.Fill(render.Wheel(int(progress * 255)))
			time.Sleep(frame)
		}
	}
	p.Fill(render.RGBBlack)
}

func (p *Pixels) rainbowCycle(d time.Duration) {
	frame := p.frame()
	n := p.Len()
	if n == 0 {
		time.Sleep(d)
		return
	}

	j := 0
	end := time.Now().Add(d)
	for time.Now().Before(end) {
		p.mu.Lock()
		for i := 0; i < n; i++ {
			p.strip.Set(i, render.Wheel((i*256/n+j)&255))
		}
		p.writeLocked()
		p.mu.Unlock()

		time.Sleep(frame)
		j++
		if j > 255 {
			j = 0
		}
	}
	p.Fill(render.RGBBlack)
}

func (p *Pixels) sweep(d time.Duration, dir Direction, bg, fg render.RGB) {
	n := p.Len()
	if n == 0 {
		return
	}
	perPixel := d / time.Duration(n)

	start, step := 0, 1
	if dir == Backward {
		start, step = n-1, -1
	}

	p.Fill(bg)
	for i := start; i >= 0 && i < n; i += step {
		p.SetPixel(i, fg)
		time.Sleep(perPixel)
		p.SetPixel(i, bg)
	}
}
