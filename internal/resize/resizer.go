package resize

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"log"

	"golang.org/x/image/draw"

	"github.com/xaco47/wedding-archive-go/internal/imgurl"
)

// ContentType of every resized payload.
const ContentType = "image/webp"

// DefaultQuality applies when the caller passes quality <= 0.
const DefaultQuality = 80

// Resizer scales originals down to a width tier and re-encodes them as lossy
// WebP.
type Resizer struct {
	enc WebPEncoder
}

func NewResizer(enc WebPEncoder) *Resizer {
	log.Println("initialising resizer...")
	return &Resizer{enc: enc}
}

// Resize decodes r, scales it to the requested width and encodes WebP at the
// given quality. Height always follows the source aspect ratio; only the fit
// mode decides whether the image may grow:
//   - FitScaleDown never upscales: a width past the source keeps the source size.
//   - FitContain and FitCover scale to the exact width, up or down.
//
// width <= 0 re-encodes at the source size.
func (rz *Resizer) Resize(r io.Reader, width, quality int, fit imgurl.Fit) ([]byte, error) {
	if quality <= 0 {
		quality = DefaultQuality
	}

	img, _, err := rz.enc.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("resize: failed to decode image: %w", err)
	}

	src := img.Bounds()
	targetW := targetWidth(src.Dx(), width, fit)
	if targetW != src.Dx() {
		targetH := src.Dy() * targetW / src.Dx()
		if targetH < 1 {
			targetH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
		img = dst
	}

	buf := &bytes.Buffer{}
	if err := rz.enc.Encode(buf, img, quality); err != nil {
		return nil, fmt.Errorf("resize: failed to encode WebP: %w", err)
	}
	return buf.Bytes(), nil
}

func targetWidth(srcW, want int, fit imgurl.Fit) int {
	if want <= 0 {
		return srcW
	}
	if fit == imgurl.FitScaleDown && want > srcW {
		return srcW
	}
	return want
}
