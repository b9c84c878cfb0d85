// Package compositor implements the alpha-over blend of one top buffer
// onto one bottom buffer at a given opacity, with a Cpu reference backend
// always available and an optional Gpu backend (spec §4.6). The bottom-up
// fold over a comp's layers is done by the caller (node.CompNode).
//
// Cpu is grounded on original_source's compositor.rs scalar blend
// translated into Go, cross-checked against the teacher's willow.go
// BlendMode list (Normal maps to the spec's one defined operator,
// alpha-over) — see DESIGN.md.
package compositor

import (
	"fmt"

	"github.com/playa/core/internal/pixel"
)

// Backend blends two same-shape buffers with the top layer's opacity.
type Backend interface {
	Over(bottom, top *pixel.PixelBuffer, opacity float64) (*pixel.PixelBuffer, error)
}

// cpuBackend is the reference scalar implementation; correctness is
// defined relative to it (spec §4.6).
type cpuBackend struct{}

// Cpu is the always-available reference backend.
var Cpu Backend = cpuBackend{}

// Over implements the formula from spec §4.6:
//
//	at = top.alpha * o
//	ai = 1 - at
//	out.rgb = bottom.rgb*ai + top.rgb*at
//	out.a   = bottom.a*ai + at
func (cpuBackend) Over(bottom, top *pixel.PixelBuffer, opacity float64) (*pixel.PixelBuffer, error) {
	if !bottom.SameShape(top) {
		return nil, fmt.Errorf("compositor: shape mismatch: %dx%d/%s vs %dx%d/%s",
			bottom.Width, bottom.Height, bottom.Format, top.Width, top.Height, top.Format)
	}
	out := pixel.NewPixelBuffer(bottom.Format, bottom.Width, bottom.Height)
	switch bottom.Format {
	case pixel.FormatU8:
		blendU8(out, bottom, top, opacity)
	case pixel.FormatF16:
		blendF16(out, bottom, top, opacity)
	case pixel.FormatF32:
		blendF32(out, bottom, top, opacity)
	default:
		return nil, pixel.ErrUnsupportedFormat
	}
	return out, nil
}

func blendU8(out, bottom, top *pixel.PixelBuffer, opacity float64) {
	for y := 0; y < bottom.Height; y++ {
		for x := 0; x < bottom.Width; x++ {
			bpx := bottom.At(x, y)
			tpx := top.At(x, y)
			opx := out.At(x, y)
			topA := float64(tpx[3]) / 255
			at := topA * opacity
			ai := 1 - at
			for c := 0; c < 3; c++ {
				b := float64(bpx[c]) / 255
				t := float64(tpx[c]) / 255
				v := b*ai + t*at
				opx[c] = clampByte(v * 255)
			}
			ba := float64(bpx[3]) / 255
			oa := ba*ai + at
			opx[3] = clampByte(oa * 255)
		}
	}
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v + 0.5)
}

func blendF16(out, bottom, top *pixel.PixelBuffer, opacity float64) {
	for y := 0; y < bottom.Height; y++ {
		for x := 0; x < bottom.Width; x++ {
			bpx := bottom.At(x, y)
			tpx := top.At(x, y)
			opx := out.At(x, y)
			var bf, tf [4]float32
			for c := 0; c < 4; c++ {
				bf[c] = pixel.DecodeF16(bpx[c*2 : c*2+2])
				tf[c] = pixel.DecodeF16(tpx[c*2 : c*2+2])
			}
			at := float64(tf[3]) * opacity
			ai := 1 - at
			var of [4]float32
			for c := 0; c < 3; c++ {
				of[c] = float32(float64(bf[c])*ai + float64(tf[c])*at)
			}
			of[3] = float32(float64(bf[3])*ai + at)
			for c := 0; c < 4; c++ {
				pixel.EncodeF16(opx[c*2:c*2+2], of[c])
			}
		}
	}
}

func blendF32(out, bottom, top *pixel.PixelBuffer, opacity float64) {
	for y := 0; y < bottom.Height; y++ {
		for x := 0; x < bottom.Width; x++ {
			bpx := bottom.At(x, y)
			tpx := top.At(x, y)
			opx := out.At(x, y)
			var bf, tf [4]float32
			for c := 0; c < 4; c++ {
				bf[c] = pixel.DecodeF32(bpx[c*4 : c*4+4])
				tf[c] = pixel.DecodeF32(tpx[c*4 : c*4+4])
			}
			at := float64(tf[3]) * opacity
			ai := 1 - at
			var of [4]float32
			for c := 0; c < 3; c++ {
				of[c] = float32(float64(bf[c])*ai + float64(tf[c])*at)
			}
			of[3] = float32(float64(bf[3])*ai + at)
			for c := 0; c < 4; c++ {
				pixel.EncodeF32(opx[c*4:c*4+4], of[c])
			}
		}
	}
}
