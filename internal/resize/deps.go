package resize

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/chai2010/webp"
	_ "golang.org/x/image/webp"
)

type WebPEncoder interface {
	Encode(w io.Writer, img image.Image, quality int) error
	Decode(r io.Reader) (image.Image, string, error)
}

type chaiEncoder struct{}

func NewWebPEncoder() WebPEncoder {
	return chaiEncoder{}
}

func (chaiEncoder) Encode(w io.Writer, img image.Image, quality int) error {
	return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
}

func (chaiEncoder) Decode(r io.Reader) (image.Image, string, error) {
	return image.Decode(r)
}
