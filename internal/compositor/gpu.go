//go:build gpu

// Package compositor's Gpu backend is built only with the "gpu" build tag:
// it pulls in ebiten/v2 and requires a display or headless GL context to
// run, which most CI and worker-only deployments don't have (spec §4.6:
// "the core must run correctly with Cpu alone").
package compositor

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/playa/core/internal/pixel"
)

// gpuBackend blends via an ebiten offscreen draw, grounded on the
// teacher's filter.go offscreen pipeline (render to an ebiten.Image, read
// back) and willow.go's BlendMode.EbitenBlend() table for the blend-factor
// mapping. Spec §4.6 requires Gpu results within ±1 ulp (F32) / ±1 lsb
// (U8) of Cpu; since ebiten composites in sRGB-encoded U8 internally, this
// backend accepts FormatU8 buffers only and blends them with the Normal
// (source-over) ebiten.Blend. F16/F32 input is rejected with an error; it
// does not tonemap.
type gpuBackend struct{}

// Gpu is the optional hardware-accelerated backend (spec §4.6). It is
// only linked in when building with -tags gpu.
var Gpu Backend = gpuBackend{}

func (gpuBackend) Over(bottom, top *pixel.PixelBuffer, opacity float64) (*pixel.PixelBuffer, error) {
	if !bottom.SameShape(top) {
		return nil, fmt.Errorf("compositor: shape mismatch: %dx%d/%s vs %dx%d/%s",
			bottom.Width, bottom.Height, bottom.Format, top.Width, top.Height, top.Format)
	}
	if bottom.Format != pixel.FormatU8 {
		// F16/F32 are tonemapped before reaching the GPU path; the CPU
		// reference is the source of truth for the linear blend (spec
		// §4.6's scalar formula), the GPU path only needs to match it in
		// display (U8) space.
		return nil, fmt.Errorf("compositor: gpu backend only accepts FormatU8 (tonemap first)")
	}

	bottomImg := imageFromBuffer(bottom)
	topImg := imageFromBuffer(top)

	dst := ebiten.NewImage(bottom.Width, bottom.Height)
	dst.DrawImage(bottomImg, nil)

	op := &ebiten.DrawImageOptions{}
	op.ColorScale.ScaleAlpha(float32(opacity))
	op.Blend = ebiten.BlendSourceOver
	dst.DrawImage(topImg, op)

	out := pixel.NewPixelBuffer(pixel.FormatU8, bottom.Width, bottom.Height)
	dst.ReadPixels(out.Data)
	return out, nil
}

func imageFromBuffer(p *pixel.PixelBuffer) *ebiten.Image {
	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	copy(img.Pix, p.Data)
	return ebiten.NewImageFromImage(img)
}
