package decode

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 1, color.RGBA{0, 255, 0, 128})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "test.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStdDecoderDecodesPNG(t *testing.T) {
	path := writeTestPNG(t, t.TempDir())
	d := StdDecoder{}
	buf, err := d.Decode(path, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if buf.Width != 2 || buf.Height != 2 {
		t.Fatalf("dims = %dx%d, want 2x2", buf.Width, buf.Height)
	}
	px := buf.At(0, 0)
	if px[0] != 255 || px[1] != 0 || px[2] != 0 || px[3] != 255 {
		t.Fatalf("pixel(0,0) = %v, want [255 0 0 255]", px)
	}
}

func TestStdDecoderMissingFileErrors(t *testing.T) {
	d := StdDecoder{}
	if _, err := d.Decode("/nonexistent/path.png", 0); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
