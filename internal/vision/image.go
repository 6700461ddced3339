package vision

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	_ "golang.org/x/image/webp"

	"smartkitchen/pkg/errors"
)

// Decode reads an uploaded image in any registered format (png, jpeg, gif, webp)
func Decode(r io.Reader) (image.Image, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", errors.Wrap(err, "read image")
	}
	if len(data) == 0 {
		return nil, "", errors.NewValidationError("file", "empty upload", 0)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.NewValidationError("file", "not a decodable image: "+err.Error(), len(data))
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, "", errors.NewValidationError("file", "image has no pixels", b.String())
	}
	return img, format, nil
}

// Prepare converts an image to RGBA and scales it so its longer side is at most maxSide.
// Smaller images keep their size.
func Prepare(img image.Image, maxSide int) *image.RGBA {
	rgba := clone.AsRGBA(img)

	w, h := rgba.Bounds().Dx(), rgba.Bounds().Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if maxSide <= 0 || longest <= maxSide {
		return rgba
	}

	scale := float64(maxSide) / float64(longest)
	nw, nh := int(float64(w)*scale), int(float64(h)*scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return transform.Resize(rgba, nw, nh, transform.Linear)
}
