package compositor

import (
	"testing"

	"github.com/playa/core/internal/pixel"
)

func solidU8(w, h int, r, g, b, a byte) *pixel.PixelBuffer {
	buf := pixel.NewPixelBuffer(pixel.FormatU8, w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := buf.At(x, y)
			px[0], px[1], px[2], px[3] = r, g, b, a
		}
	}
	return buf
}

func withinOne(got, want byte) bool {
	d := int(got) - int(want)
	if d < 0 {
		d = -d
	}
	return d <= 1
}

// TestTwoLayerBlend mirrors spec scenario S2: solid red bottom, solid
// green/half-alpha top, opacity=1.
func TestTwoLayerBlend(t *testing.T) {
	bottom := solidU8(10, 10, 255, 0, 0, 255)
	top := solidU8(10, 10, 0, 255, 0, 128)

	out, err := Cpu.Over(bottom, top, 1)
	if err != nil {
		t.Fatalf("Over: %v", err)
	}
	px := out.At(0, 0)
	wantR, wantG, wantB, wantA := byte(128), byte(128), byte(0), byte(255)
	if !withinOne(px[0], wantR) || !withinOne(px[1], wantG) || !withinOne(px[2], wantB) || !withinOne(px[3], wantA) {
		t.Fatalf("blended pixel = %v, want ~[%d %d %d %d]", px, wantR, wantG, wantB, wantA)
	}
}

func TestOverOpacityZeroIsNoOp(t *testing.T) {
	bottom := solidU8(4, 4, 10, 20, 30, 255)
	top := solidU8(4, 4, 200, 200, 200, 255)

	out, err := Cpu.Over(bottom, top, 0)
	if err != nil {
		t.Fatalf("Over: %v", err)
	}
	px := out.At(0, 0)
	if px[0] != 10 || px[1] != 20 || px[2] != 30 {
		t.Fatalf("opacity=0 should leave bottom unchanged, got %v", px)
	}
}

func TestOverShapeMismatchErrors(t *testing.T) {
	bottom := solidU8(4, 4, 0, 0, 0, 255)
	top := solidU8(5, 5, 0, 0, 0, 255)
	if _, err := Cpu.Over(bottom, top, 1); err == nil {
		t.Fatal("expected an error for mismatched shapes")
	}
}

func TestOverF32MatchesU8WithinTolerance(t *testing.T) {
	bottomU8 := solidU8(2, 2, 255, 0, 0, 255)
	topU8 := solidU8(2, 2, 0, 255, 0, 128)
	gotU8, err := Cpu.Over(bottomU8, topU8, 1)
	if err != nil {
		t.Fatalf("Over(u8): %v", err)
	}

	bottomF32 := pixel.NewPixelBuffer(pixel.FormatF32, 2, 2)
	topF32 := pixel.NewPixelBuffer(pixel.FormatF32, 2, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			pixel.EncodeF32(bottomF32.At(x, y)[0:4], 1)
			pixel.EncodeF32(bottomF32.At(x, y)[12:16], 1)
			pixel.EncodeF32(topF32.At(x, y)[4:8], 1)
			pixel.EncodeF32(topF32.At(x, y)[12:16], 128.0/255)
		}
	}
	gotF32, err := Cpu.Over(bottomF32, topF32, 1)
	if err != nil {
		t.Fatalf("Over(f32): %v", err)
	}

	u8px := gotU8.At(0, 0)
	f32px := gotF32.At(0, 0)
	r := pixel.DecodeF32(f32px[0:4])
	g := pixel.DecodeF32(f32px[4:8])
	wantR := float32(u8px[0]) / 255
	wantG := float32(u8px[1]) / 255
	if diff := r - wantR; diff > 0.01 || diff < -0.01 {
		t.Fatalf("r = %v, want ~%v", r, wantR)
	}
	if diff := g - wantG; diff > 0.01 || diff < -0.01 {
		t.Fatalf("g = %v, want ~%v", g, wantG)
	}
}
