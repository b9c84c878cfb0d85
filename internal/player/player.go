// Package player implements Player: playback state (active comp, frame,
// fps, direction, loop) advanced on a monotonic clock tick, and the
// jog/shuttle state machine (spec §4.8).
//
// Grounded on original_source/src/core/player.rs's Attrs-backed state
// (fps_base/fps_play/play_direction/loop_enabled stored as attributes so
// the whole player round-trips with the project) translated into the
// Go idiom willow/fps.go uses for tick/interval bookkeeping (a plain
// struct holding timestamps, advanced from an explicit Tick call rather
// than a background goroutine).
package player

import (
	"time"

	"github.com/playa/core/internal/attrs"
)

// fpsPresets is the shuttle speed ladder (spec §4.8).
var fpsPresets = []float64{1, 2, 4, 8, 12, 24, 30, 60, 120, 240}

// Direction is playback direction.
type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

// Player holds durable playback state in an Attrs bag (so it round-trips
// with the project, spec §4.8) plus a runtime-only last-tick timestamp.
type Player struct {
	attrs *attrs.Attrs

	activeComp uint32 // 0 = none
	frame      int
	lastTick   time.Time
	hasLast    bool
}

// New creates a Player with defaults matching the original's Player::new:
// not playing, base/play fps 24, forward, looping.
func New() *Player {
	p := &Player{attrs: attrs.New()}
	p.attrs.SetBool("is_playing", false)
	p.attrs.SetFloat("fps_base", 24)
	p.attrs.SetFloat("fps_play", 24)
	p.attrs.SetBool("loop_enabled", true)
	p.attrs.SetFloat("play_direction", float64(Forward))
	p.attrs.ClearDirty()
	return p
}

// Attrs returns the player's durable attribute bag, for persistence.
func (p *Player) Attrs() *attrs.Attrs { return p.attrs }

func (p *Player) IsPlaying() bool       { return p.attrs.Bool("is_playing", false) }
func (p *Player) FpsBase() float64      { return p.attrs.Float("fps_base", 24) }
func (p *Player) FpsPlay() float64      { return p.attrs.Float("fps_play", 24) }
func (p *Player) LoopEnabled() bool     { return p.attrs.Bool("loop_enabled", true) }
func (p *Player) Direction() Direction  { return Direction(int(p.attrs.Float("play_direction", 1))) }
func (p *Player) ActiveComp() uint32    { return p.activeComp }
func (p *Player) Frame() int            { return p.frame }

// SetActiveComp switches the active comp id and resets playback timing
// (spec §4.8's set_active_comp semantics, minus project-side selection
// reset which belongs to the UI layer, not the core).
func (p *Player) SetActiveComp(id uint32, frame int) {
	p.activeComp = id
	p.frame = frame
	p.hasLast = false
}

// SetFrame sets the current frame directly (scrub), clamping to [in, out]
// (Testable Property #9), without touching playback state.
func (p *Player) SetFrame(f, in, out int) {
	if f < in {
		f = in
	} else if f > out {
		f = out
	}
	p.frame = f
}

// Step moves the current frame by n (positive or negative) relative to
// trimIn/trimOut's work area. With looping enabled it wraps modulo
// |trimOut-trimIn|+1 (Testable Property #9); otherwise it clamps to the
// work area, matching Tick's non-looping end-of-range behavior.
func (p *Player) Step(n, trimIn, trimOut int) {
	if trimOut < trimIn {
		return
	}
	span := trimOut - trimIn + 1
	pos := p.frame - trimIn + n
	if p.LoopEnabled() {
		pos %= span
		if pos < 0 {
			pos += span
		}
		p.frame = trimIn + pos
	} else if pos < 0 {
		p.frame = trimIn
	} else if pos >= span {
		p.frame = trimOut
	} else {
		p.frame = trimIn + pos
	}
}

// Play transitions Paused -> Playing(+1, fps_base) (spec §4.8 table).
func (p *Player) Play() {
	p.attrs.SetBool("is_playing", true)
	p.attrs.SetFloat("play_direction", float64(Forward))
	p.attrs.SetFloat("fps_play", p.FpsBase())
	p.hasLast = false
}

// Pause transitions Playing(d,f) -> Paused.
func (p *Player) Pause() {
	p.attrs.SetBool("is_playing", false)
}

// Stop transitions Playing(d,_) -> Paused, resetting fps_play to fps_base
// (spec §4.8 table: "Playing(d,_) | stop | Paused; fps_play := fps_base").
func (p *Player) Stop() {
	p.attrs.SetBool("is_playing", false)
	p.attrs.SetFloat("fps_play", p.FpsBase())
	p.hasLast = false
}

// SetLoop sets the loop flag.
func (p *Player) SetLoop(v bool) { p.attrs.SetBool("loop_enabled", v) }

// SetFpsBase sets the persistent base fps. If not currently playing,
// fps_play tracks it too.
func (p *Player) SetFpsBase(fps float64) {
	p.attrs.SetFloat("fps_base", fps)
	if !p.IsPlaying() {
		p.attrs.SetFloat("fps_play", fps)
	}
}

// jog implements the shared jog_forward/jog_backward logic (spec §4.8
// state table's three jog outcomes: start playback, flip direction, or
// promote to the next fps preset).
func (p *Player) jog(dir Direction) {
	switch {
	case !p.IsPlaying():
		p.attrs.SetBool("is_playing", true)
		p.attrs.SetFloat("play_direction", float64(dir))
		p.attrs.SetFloat("fps_play", p.FpsBase())
		p.hasLast = false
	case p.Direction() != dir:
		p.attrs.SetFloat("play_direction", float64(dir))
		p.attrs.SetFloat("fps_play", p.FpsBase())
	default:
		p.attrs.SetFloat("fps_play", nextPreset(p.FpsPlay()))
	}
}

// JogForward is the L/jog_fwd shuttle command.
func (p *Player) JogForward() { p.jog(Forward) }

// JogBackward is the J/jog_back shuttle command.
func (p *Player) JogBackward() { p.jog(Backward) }

// nextPreset returns the first preset strictly greater than fps, or the
// fastest preset if fps is already at or beyond it.
func nextPreset(fps float64) float64 {
	for _, preset := range fpsPresets {
		if preset > fps {
			return preset
		}
	}
	return fpsPresets[len(fpsPresets)-1]
}

// Tick advances playback by at most one frame if enough wall time has
// elapsed (spec §4.8's update). trimIn/trimOut bound playback
// advancement (the work area); looping wraps to the opposite end.
// Returns the old and new frame, and whether the frame actually changed
// (so the caller can decide whether to fire FrameChanged).
func (p *Player) Tick(now time.Time, trimIn, trimOut int) (old, new int, changed bool) {
	old = p.frame
	if !p.IsPlaying() || p.activeComp == 0 || trimOut < trimIn {
		return old, old, false
	}
	if !p.hasLast {
		p.lastTick = now
		p.hasLast = true
		return old, old, false
	}
	frameDuration := time.Duration(float64(time.Second) / p.FpsPlay())
	if now.Sub(p.lastTick) < frameDuration {
		return old, old, false
	}
	p.lastTick = now

	current := p.frame
	if current < trimIn || current > trimOut {
		if p.Direction() == Forward {
			current = trimIn
		} else {
			current = trimOut
		}
	}

	if p.Direction() == Forward {
		next := current + 1
		if next > trimOut {
			if p.LoopEnabled() {
				current = trimIn
			} else {
				current = trimOut
				p.attrs.SetBool("is_playing", false)
			}
		} else {
			current = next
		}
	} else {
		if current <= trimIn {
			if p.LoopEnabled() {
				current = trimOut
			} else {
				p.attrs.SetBool("is_playing", false)
			}
		} else {
			current--
		}
	}

	p.frame = current
	return old, current, current != old
}
