// Package decode implements the `decode(path, frame) -> PixelBuffer`
// external capability boundary the core calls into (spec §1, §4.4): the
// core names this interface but treats actual codecs as external
// collaborators.
//
// Grounded on willow/screenshot.go's and willow/debug.go's stdlib
// image/png decode path, extended with golang.org/x/image/tiff for TIFF
// (the EXR/video paths spec §4.4 describes are not implemented here,
// since no EXR or video-container library appears anywhere in the
// retrieval pack).
package decode

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/playa/core/internal/pixel"
)

// Decoder is the external decode capability the core calls into.
type Decoder interface {
	Decode(path string, frame int) (*pixel.PixelBuffer, error)
}

// StdDecoder decodes PNG, JPEG, and TIFF via stdlib image codecs plus
// golang.org/x/image/tiff, always producing a FormatU8 buffer: none of
// these three container formats carry a float pixel format in practice,
// so the "decode pixels into the smallest fitting PixelBuffer variant"
// rule from spec §4.4 always selects U8 here.
type StdDecoder struct{}

// Decode implements Decoder. frame is unused for single-image formats;
// it is accepted to satisfy the core's uniform contract across FileNode
// media kinds (image sequences vs. video).
func (StdDecoder) Decode(path string, frame int) (*pixel.PixelBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decode: open %s: %w", path, err)
	}
	defer f.Close()

	img, err := decodeByExt(f, path)
	if err != nil {
		return nil, fmt.Errorf("decode: %s: %w", path, err)
	}
	return toU8Buffer(img), nil
}

func decodeByExt(r io.Reader, path string) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Decode(r)
	case ".jpg", ".jpeg":
		return jpeg.Decode(r)
	case ".tif", ".tiff":
		return tiff.Decode(r)
	default:
		img, _, err := image.Decode(r)
		return img, err
	}
}

func toU8Buffer(img image.Image) *pixel.PixelBuffer {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	buf := pixel.NewPixelBuffer(pixel.FormatU8, w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bb, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			px := buf.At(x, y)
			px[0] = byte(r >> 8)
			px[1] = byte(g >> 8)
			px[2] = byte(bb >> 8)
			px[3] = byte(a >> 8)
		}
	}
	return buf
}
