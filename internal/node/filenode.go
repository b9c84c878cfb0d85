package node

import (
	"fmt"
	"strings"

	"github.com/playa/core/internal/pixel"
)

// FileNode is a sequence of media files matching a pattern, with no
// children (spec §3, §4.4).
type FileNode struct {
	attrsNode

	id     uint32
	Name   string
	// Pattern contains a run of '#' characters marking the zero-padded
	// frame index position, e.g. "plate.####.exr".
	Pattern string
	Padding int
	In, Out int
	Fps     float64
	Width   int
	Height  int
}

// NewFileNode constructs a FileNode. id is assigned by the owning
// MediaPool via AddFileNode.
func NewFileNode(name, pattern string, padding, in, out int, fps float64, width, height int) *FileNode {
	return &FileNode{
		attrsNode: newAttrsNode(),
		Name:      name,
		Pattern:   pattern,
		Padding:   padding,
		In:        in,
		Out:       out,
		Fps:       fps,
		Width:     width,
		Height:    height,
	}
}

// ID returns the node's pool-assigned identifier.
func (f *FileNode) ID() uint32 { return f.id }

// Range returns [In, Out].
func (f *FileNode) Range() (int, int) { return f.In, f.Out }

// Path resolves the on-disk path for frame i by substituting the padded
// frame index into Pattern (spec §4.4: "resolve path from pattern + i,
// honoring zero-padding").
func (f *FileNode) Path(i int) string {
	digits := fmt.Sprintf("%0*d", f.Padding, i)
	idx := strings.Index(f.Pattern, strings.Repeat("#", f.Padding))
	if idx < 0 {
		// Fall back to replacing the first maximal run of '#' regardless
		// of exact count, tolerating a pattern/padding mismatch.
		start := strings.IndexByte(f.Pattern, '#')
		if start < 0 {
			return f.Pattern
		}
		end := start
		for end < len(f.Pattern) && f.Pattern[end] == '#' {
			end++
		}
		return f.Pattern[:start] + digits + f.Pattern[end:]
	}
	return f.Pattern[:idx] + digits + f.Pattern[idx+f.Padding:]
}

// Compute decodes frame i via ctx.Decode (spec §4.4). Out-of-range i is a
// decode error, not a panic: the caller (a CompNode layer) is responsible
// for only requesting in-range indices, but FileNode defends the
// boundary anyway since it may be queried directly by the UI/REST layer.
func (f *FileNode) Compute(i int, ctx *Context) (*pixel.Frame, error) {
	if i < f.In || i > f.Out {
		fr := pixel.NewHeader(f.Width, f.Height, pixel.FormatU8)
		fr.SetStatus(pixel.StatusError)
		return fr, fmt.Errorf("node: frame %d out of range [%d,%d] for file node %d", i, f.In, f.Out, f.id)
	}
	buf, err := ctx.Decode(f.Path(i), i)
	if err != nil {
		fr := pixel.NewHeader(f.Width, f.Height, pixel.FormatU8)
		fr.SetStatus(pixel.StatusError)
		return fr, fmt.Errorf("node: decode %s: %w", f.Path(i), err)
	}
	return pixel.NewLoaded(buf), nil
}
