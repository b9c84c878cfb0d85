package node

import (
	"fmt"
	"math"

	"github.com/playa/core/internal/compositor"
	"github.com/playa/core/internal/pixel"
)

// Layer is one element of a CompNode's children list: a reference to a
// source node by id plus per-layer Attrs (spec §3).
type Layer struct {
	attrsNode

	SourceID uint32
	Name     string
	Visible  bool
	Opacity  float64
	Blend    BlendMode
	Speed    float64

	// In, Out bound the layer's placement on the comp timeline before trim.
	In, Out int
	// TrimIn, TrimOut narrow the visible range from each end (comp-time units).
	TrimIn, TrimOut int

	// X, Y, Rotation, ScaleX, ScaleY are carried for a future transform-aware
	// compositor; the CPU reference compositor (spec §4.6) does not yet
	// consume them since the spec defines no transform-sampling formula.
	X, Y, Rotation, ScaleX, ScaleY float64
}

// NewLayer constructs a Layer with defaults matching an unmodified newly
// added layer (fully opaque, visible, unit speed and scale).
func NewLayer(sourceID uint32, in, out int) *Layer {
	return &Layer{
		attrsNode: newAttrsNode(),
		SourceID:  sourceID,
		Visible:   true,
		Opacity:   1,
		Speed:     1,
		In:        in,
		Out:       out,
		ScaleX:    1,
		ScaleY:    1,
	}
}

// VisibleRange returns the layer's visible range on the comp timeline:
// [In+TrimIn, Out-TrimOut] (spec §3, §4.5 step 2).
func (l *Layer) VisibleRange() (int, int) {
	return l.In + l.TrimIn, l.Out - l.TrimOut
}

// localFrame maps a comp-time frame to this layer's source-local frame
// index, per spec §4.5 step 3: local = (frame - in - trim_in) * speed,
// rounded to nearest.
func (l *Layer) localFrame(frame int) int {
	delta := float64(frame-l.In-l.TrimIn) * l.Speed
	return roundHalfAwayFromZero(delta)
}

// roundHalfAwayFromZero implements the rounding rule recovered from
// original_source for layer speed/time remap (SPEC_FULL §12): halves
// round away from zero rather than banker's rounding or toward +inf.
func roundHalfAwayFromZero(v float64) int {
	if v >= 0 {
		return int(math.Floor(v + 0.5))
	}
	return int(math.Ceil(v - 0.5))
}

// CompNode is a composition: a time-ranged node whose output is produced
// by blending its child layers (spec §3, §4.5).
type CompNode struct {
	attrsNode

	id   uint32
	Name string

	In, Out           int
	TrimIn, TrimOut   int
	Fps               float64
	Frame             int // current playhead
	Layers            []*Layer
	Selection         map[int]bool
	SelectionAnchor   int
	dirty             bool
}

// NewCompNode constructs an empty CompNode spanning [in, out].
func NewCompNode(name string, in, out int, fps float64) *CompNode {
	return &CompNode{
		attrsNode: newAttrsNode(),
		Name:      name,
		In:        in,
		Out:       out,
		TrimIn:    in,
		TrimOut:   out,
		Fps:       fps,
		Frame:     in,
		Selection: make(map[int]bool),
	}
}

// ID returns the node's pool-assigned identifier.
func (c *CompNode) ID() uint32 { return c.id }

// Range returns [In, Out].
func (c *CompNode) Range() (int, int) { return c.In, c.Out }

// Dirty reports whether the comp has unpropagated render-affecting edits.
func (c *CompNode) Dirty() bool { return c.dirty }

// MarkDirty sets the dirty flag (spec §4.5: "every CompNode mutation that
// affects render ... sets the comp's dirty flag").
func (c *CompNode) MarkDirty() { c.dirty = true }

// ClearDirty resets the dirty flag after the controller has propagated the
// edit (epoch bump + scoped cache clear, spec §4.5).
func (c *CompNode) ClearDirty() { c.dirty = false }

// ClampFrame clamps f to [In, Out] (scrubbing may exceed the work area,
// spec §3's invariant for the current frame).
func (c *CompNode) ClampFrame(f int) int {
	if f < c.In {
		return c.In
	}
	if f > c.Out {
		return c.Out
	}
	return f
}

// Select adds one layer index to the comp's selection set and makes it the
// selection anchor. (Spec §3's "selection set" is over the layer list,
// indexed by position; supplemented from original_source per SPEC_FULL
// §12's Select/SelectRange feature.)
func (c *CompNode) Select(layerIndex int) {
	c.Selection[layerIndex] = true
	c.SelectionAnchor = layerIndex
}

// SelectRange selects every layer index in [a, b] inclusive, regardless of
// order, and sets the anchor to b (the most recently touched end).
func (c *CompNode) SelectRange(a, b int) {
	if a > b {
		a, b = b, a
	}
	for i := a; i <= b; i++ {
		if i >= 0 && i < len(c.Layers) {
			c.Selection[i] = true
		}
	}
	c.SelectionAnchor = b
}

// ClearSelection empties the selection set.
func (c *CompNode) ClearSelection() {
	c.Selection = make(map[int]bool)
}

// AddLayer appends a new layer referencing source, rejecting the edit if
// it would introduce a cycle (spec §4.5: "add_layer rejects a layer if
// the target source, and transitively its descendants, contains the
// parent CompNode's id"). Commits a whole-comp invalidation on success
// (SPEC_FULL §13: every structural edit calls ClearComp).
func (c *CompNode) AddLayer(pool *MediaPool, ctx *Context, layer *Layer) error {
	if pool.reachableFrom(layer.SourceID, c.id) {
		return fmt.Errorf("node: add layer source=%d to comp=%d: %w", layer.SourceID, c.id, ErrCycle)
	}
	c.Layers = append(c.Layers, layer)
	c.MarkDirty()
	c.CommitEdit(ctx, true, 0, 0)
	return nil
}

// RemoveLayer removes the layer at index i and commits a whole-comp
// invalidation (SPEC_FULL §13).
func (c *CompNode) RemoveLayer(i int, ctx *Context) {
	if i < 0 || i >= len(c.Layers) {
		return
	}
	c.Layers = append(c.Layers[:i], c.Layers[i+1:]...)
	c.MarkDirty()
	c.CommitEdit(ctx, true, 0, 0)
}

// MoveLayer relocates the layer at index from to index to, preserving the
// relative order of the rest, and commits a whole-comp invalidation
// (SPEC_FULL §13).
func (c *CompNode) MoveLayer(from, to int, ctx *Context) {
	if from < 0 || from >= len(c.Layers) || to < 0 || to >= len(c.Layers) || from == to {
		return
	}
	l := c.Layers[from]
	c.Layers = append(c.Layers[:from], c.Layers[from+1:]...)
	c.Layers = append(c.Layers[:to], append([]*Layer{l}, c.Layers[to:]...)...)
	c.MarkDirty()
	c.CommitEdit(ctx, true, 0, 0)
}

// SetLayerOpacity sets the opacity of the layer at index i and commits a
// range-scoped invalidation over that layer's visible range (SPEC_FULL
// §13: opacity/blend-mode edits call ClearRange, not ClearComp).
func (c *CompNode) SetLayerOpacity(i int, ctx *Context, opacity float64) {
	if i < 0 || i >= len(c.Layers) {
		return
	}
	c.Layers[i].Opacity = opacity
	c.MarkDirty()
	a, b := c.Layers[i].VisibleRange()
	c.CommitEdit(ctx, false, a, b)
}

// SetLayerBlend sets the blend mode of the layer at index i, committing
// the same range-scoped invalidation as SetLayerOpacity.
func (c *CompNode) SetLayerBlend(i int, ctx *Context, mode BlendMode) {
	if i < 0 || i >= len(c.Layers) {
		return
	}
	c.Layers[i].Blend = mode
	c.MarkDirty()
	a, b := c.Layers[i].VisibleRange()
	c.CommitEdit(ctx, false, a, b)
}

// CommitEdit implements spec §4.5's edit-commit controller: bump the
// cache epoch (so any work already enqueued under the old epoch writes
// nothing, spec §5), scope-clear the affected cached frames, emit
// LayersChanged, and clear the dirty flag. structural selects the
// SPEC_FULL §13 dispatch: true clears the whole comp (add/remove/move
// layer, comp in/out/trim/fps change); false clears only [a, b] (an
// opacity/blend-mode edit). No-op if the comp isn't dirty or ctx is nil
// (tests that don't wire a cache/bus).
func (c *CompNode) CommitEdit(ctx *Context, structural bool, a, b int) {
	if !c.dirty || ctx == nil || ctx.Cache == nil {
		return
	}
	ctx.Cache.Manager().BumpEpoch()
	if structural {
		ctx.Cache.ClearComp(c.id)
	} else {
		ctx.Cache.ClearRange(c.id, a, b)
	}
	if ctx.Events != nil {
		ctx.Events.EmitLayersChanged(c.id, !structural, a, b)
	}
	c.ClearDirty()
}

// activeLayer pairs a Layer with its computed source-local frame index.
type activeLayer struct {
	layer *Layer
	local int
}

// activeLayersAt collects the layers active at comp-time frame, in
// bottom-to-top painting order: the CompNode's children list has index 0
// as the topmost layer for display, so painting order is the reverse of
// the children list (spec §4.5 step 3).
func (c *CompNode) activeLayersAt(frame int) []activeLayer {
	var out []activeLayer
	for i := len(c.Layers) - 1; i >= 0; i-- {
		l := c.Layers[i]
		if !l.Visible {
			continue
		}
		a, b := l.VisibleRange()
		if frame < a || frame > b {
			continue
		}
		out = append(out, activeLayer{layer: l, local: l.localFrame(frame)})
	}
	return out
}

// Compute implements CompNode.compute(frame, ctx) per spec §4.5.
func (c *CompNode) Compute(frame int, ctx *Context) (*pixel.Frame, error) {
	f, _, err := ctx.Cache.GetOrInsert(c.id, frame, func() (*pixel.Frame, error) {
		return c.composeFrame(frame, ctx)
	})
	return f, err
}

func (c *CompNode) composeFrame(frame int, ctx *Context) (*pixel.Frame, error) {
	var acc *pixel.PixelBuffer

	for _, al := range c.activeLayersAt(frame) {
		source, ok := ctx.Media.Get(al.layer.SourceID)
		if !ok {
			continue
		}
		srcIn, srcOut := source.Range()
		if al.local < srcIn || al.local > srcOut {
			continue
		}
		srcFrame, err := source.Compute(al.local, ctx)
		if err != nil {
			continue // per-frame decode errors stay inside that Frame (spec §7)
		}
		buf := srcFrame.Payload()
		if buf == nil {
			continue
		}

		if acc == nil {
			acc = clonePixelBuffer(buf)
			continue
		}
		if !acc.SameShape(buf) {
			logger.Printf("%v", fmt.Errorf("comp=%d frame=%d layer=%q: %w", c.id, frame, al.layer.Name, ErrFormatMismatch))
			continue // FormatMismatch: skip the layer, compose proceeds (spec §4.5, §7)
		}
		blended, err := compositor.Cpu.Over(acc, buf, al.layer.Opacity)
		if err != nil {
			continue
		}
		acc = blended
	}

	if acc == nil {
		return pixel.NewPlaceholder(0, 0, pixel.FormatU8, nil), nil
	}
	out := pixel.NewLoaded(acc)
	out.SetStatus(pixel.StatusLoaded)
	return out, nil
}

func clonePixelBuffer(p *pixel.PixelBuffer) *pixel.PixelBuffer {
	data := make([]byte, len(p.Data))
	copy(data, p.Data)
	return &pixel.PixelBuffer{Format: p.Format, Width: p.Width, Height: p.Height, Stride: p.Stride, Data: data}
}
