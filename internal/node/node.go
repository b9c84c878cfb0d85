// Package node implements the media-pool compute graph: FileNode, CompNode,
// and the Layer records that wire CompNode children together (spec §3-4.5).
//
// Grounded on the teacher's node.go: a single flat struct carrying both
// identity/hierarchy fields and type-specific payload, with ZIndex-style
// child ordering and invalidate-on-mutation setters. Here the graph is
// polymorphic over two concrete node kinds rather than one flat struct,
// because FileNode and CompNode have disjoint fields and only CompNode
// has children — a flat struct would mostly be unused fields either way.
package node

import (
	"fmt"
	"log"
	"os"

	"github.com/playa/core/internal/attrs"
	"github.com/playa/core/internal/events"
	"github.com/playa/core/internal/framecache"
	"github.com/playa/core/internal/pixel"
)

// logger is the package's component-scoped log.Logger (SPEC_FULL §10.2:
// "one per major component: cache, workers, compositor, node", a prefixed
// stdlib log.Logger matching how willow/debug.go tags diagnostic output
// per subsystem — no third-party structured logger appears anywhere in
// the retrieval pack for this kind of engine-core code).
var logger = log.New(os.Stderr, "node: ", log.LstdFlags)

// Context is everything a Node.Compute call needs to resolve children and
// cache its result (spec §4.5's "ctx"). Events is optional: nil means no
// one is listening (e.g. in tests), and CommitEdit skips emitting.
type Context struct {
	Cache  *framecache.Cache
	Media  *MediaPool
	Decode DecodeFunc
	Events *events.Bus
	Epoch  uint64
}

// DecodeFunc is the external decode capability boundary (spec §1: "the
// core only calls a decode(path, frame) -> PixelBuffer capability").
type DecodeFunc func(path string, frameIndex int) (*pixel.PixelBuffer, error)

// Node is the polymorphic compute entity (spec §3: "FileNode | CompNode").
type Node interface {
	ID() uint32
	// Range returns the node's [in, out] time range.
	Range() (in, out int)
	// Compute returns the Frame for comp-time frame index i.
	Compute(i int, ctx *Context) (*pixel.Frame, error)
}

// BlendMode selects the per-layer compositing operator. The core's
// reference compositor implements Normal (alpha-over, spec §4.6); other
// modes are recognized but fall back to Normal until a backend adds them.
type BlendMode uint8

const (
	BlendNormal BlendMode = iota
	BlendAdd
	BlendMultiply
	BlendScreen
)

func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "normal"
	case BlendAdd:
		return "add"
	case BlendMultiply:
		return "multiply"
	case BlendScreen:
		return "screen"
	default:
		return fmt.Sprintf("BlendMode(%d)", m)
	}
}

// ErrCycle is returned when adding a layer would introduce a cycle in the
// media pool DAG (spec §7: CycleRejected).
var ErrCycle = fmt.Errorf("node: adding this layer would introduce a cycle")

// ErrFormatMismatch marks a layer skipped during composition because its
// frame's dimensions or pixel format differ from the running accumulator
// (spec §4.5 step 5, §7: FormatMismatch — scoped to one layer at one
// frame, composition proceeds without it).
var ErrFormatMismatch = fmt.Errorf("node: layer frame format or size mismatch")

// attrsNode is embedded by both node kinds to carry an arbitrary-attribute
// bag alongside their performance-critical typed fields, mirroring
// particle.go's EmitterConfig-plus-escape-hatch style generalized to a
// dynamic Attrs bag (see DESIGN.md).
type attrsNode struct {
	attrs *attrs.Attrs
}

func newAttrsNode() attrsNode {
	return attrsNode{attrs: attrs.New()}
}

// Attrs returns the node's attribute bag.
func (a *attrsNode) Attrs() *attrs.Attrs { return a.attrs }
