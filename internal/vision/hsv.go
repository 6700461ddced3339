package vision

import (
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// HSV is an 8-bit HSV triple on the OpenCV scale: H in [0,180], S and V in [0,255]
type HSV struct {
	H, S, V uint8
}

// Range is an inclusive HSV bound pair
type Range struct {
	Lo, Hi HSV
}

func (r Range) contains(p HSV) bool {
	return p.H >= r.Lo.H && p.H <= r.Hi.H &&
		p.S >= r.Lo.S && p.S <= r.Hi.S &&
		p.V >= r.Lo.V && p.V <= r.Hi.V
}

// HSVImage is a per-pixel HSV conversion of an RGBA image
type HSVImage struct {
	Width, Height int
	Pix           []HSV
}

// ToHSV converts every pixel once; masks are evaluated on the result
func ToHSV(img *image.RGBA) *HSVImage {
	b := img.Bounds()
	out := &HSVImage{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    make([]HSV, b.Dx()*b.Dy()),
	}

	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			c, _ := colorful.MakeColor(img.RGBAAt(b.Min.X+x, b.Min.Y+y))
			h, s, v := c.Hsv()
			out.Pix[y*out.Width+x] = HSV{
				H: uint8(math.Min(180, math.Round(h/2))),
				S: uint8(math.Round(s * 255)),
				V: uint8(math.Round(v * 255)),
			}
		}
	}
	return out
}

// Region returns the sub-rectangle given as fractions of width and height
func (m *HSVImage) Region(x0, y0, x1, y1 float64) image.Rectangle {
	return image.Rect(
		int(float64(m.Width)*x0), int(float64(m.Height)*y0),
		int(float64(m.Width)*x1), int(float64(m.Height)*y1),
	)
}

// Bounds returns the full image rectangle
func (m *HSVImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// Coverage returns the percentage of pixels in rect falling in any of the ranges.
// A pixel matching several ranges counts once per range, as summed OpenCV masks do.
func (m *HSVImage) Coverage(rect image.Rectangle, ranges ...Range) float64 {
	rect = rect.Intersect(m.Bounds())
	total := rect.Dx() * rect.Dy()
	if total == 0 {
		return 0
	}

	hits := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x := rect.Min.X; x < rect.Max.X; x++ {
			for _, r := range ranges {
				if r.contains(row[x]) {
					hits++
				}
			}
		}
	}
	return float64(hits) / float64(total) * 100
}

// MeanSaturation returns the average S channel over rect
func (m *HSVImage) MeanSaturation(rect image.Rectangle) float64 {
	return m.mean(rect, func(p HSV) uint8 { return p.S })
}

// MeanValue returns the average V channel (brightness) over rect
func (m *HSVImage) MeanValue(rect image.Rectangle) float64 {
	return m.mean(rect, func(p HSV) uint8 { return p.V })
}

func (m *HSVImage) mean(rect image.Rectangle, channel func(HSV) uint8) float64 {
	rect = rect.Intersect(m.Bounds())
	total := rect.Dx() * rect.Dy()
	if total == 0 {
		return 0
	}
	sum := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			sum += int(channel(m.Pix[y*m.Width+x]))
		}
	}
	return float64(sum) / float64(total)
}
