package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartkitchen/pkg/errors"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func checkerboard(w, h, square int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/square+y/square)%2 == 0 {
				img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
			}
		}
	}
	return img
}

func TestDecode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(10, 6, color.RGBA{10, 200, 10, 255})))

	img, format, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 10, img.Bounds().Dx())

	_, _, err = Decode(bytes.NewReader([]byte("definitely not an image")))
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, _, err = Decode(bytes.NewReader(nil))
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestPrepare(t *testing.T) {
	big := Prepare(solid(1600, 800, color.RGBA{1, 2, 3, 255}), 800)
	assert.Equal(t, 800, big.Bounds().Dx())
	assert.Equal(t, 400, big.Bounds().Dy())

	small := Prepare(solid(100, 50, color.RGBA{1, 2, 3, 255}), 800)
	assert.Equal(t, 100, small.Bounds().Dx())
	assert.Equal(t, 50, small.Bounds().Dy())
}

func TestToHSV_OpenCVScale(t *testing.T) {
	hsv := ToHSV(solid(1, 1, color.RGBA{0, 200, 0, 255}))
	assert.Equal(t, HSV{H: 60, S: 255, V: 200}, hsv.Pix[0])

	hsv = ToHSV(solid(1, 1, color.RGBA{0, 0, 0, 255}))
	assert.Equal(t, HSV{}, hsv.Pix[0])
}

func TestSpoilageSignals(t *testing.T) {
	tests := []struct {
		name  string
		img   *image.RGBA
		score float64
	}{
		{name: "fresh green", img: solid(40, 40, color.RGBA{0, 200, 0, 255}), score: 0},
		// brown 100% only
		{name: "brown", img: solid(40, 40, color.RGBA{100, 50, 10, 255}), score: 30},
		// dark + low saturation + low brightness
		{name: "black", img: solid(40, 40, color.RGBA{0, 0, 0, 255}), score: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals := AnalyzeSpoilage(tt.img, ToHSV(tt.img))
			assert.Equal(t, 0.0, signals.EdgeDensity, "uniform images have no edges")
			assert.Equal(t, 0.0, signals.TextureVariance)
			assert.Equal(t, tt.score, signals.Score())
		})
	}
}

func TestSpoilageSignals_Texture(t *testing.T) {
	img := checkerboard(64, 64, 4)
	signals := AnalyzeSpoilage(img, ToHSV(img))

	assert.Greater(t, signals.EdgeDensity, 15.0)
	assert.InDelta(t, 255.0*255.0/4, signals.TextureVariance, 1)
	assert.InDelta(t, 50.0, signals.DarkPct, 0.01)
}

func TestSpoilageScore_Capped(t *testing.T) {
	s := SpoilageSignals{BrownPct: 50, DarkPct: 50, AvgSaturation: 0, AvgBrightness: 0, EdgeDensity: 90, TextureVariance: 9000}
	assert.Equal(t, 100.0, s.Score())

	s = SpoilageSignals{BrownPct: 3, DarkPct: 6, AvgSaturation: 100, AvgBrightness: 200}
	assert.Equal(t, 27.0, s.Score())
}

func TestItemCategory(t *testing.T) {
	tests := []struct {
		name string
		img  *image.RGBA
		want string
	}{
		{name: "green", img: solid(50, 50, color.RGBA{0, 200, 0, 255}), want: "vegetables"},
		{name: "red", img: solid(50, 50, color.RGBA{220, 20, 20, 255}), want: "fruits"},
		{name: "black", img: solid(50, 50, color.RGBA{0, 0, 0, 255}), want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnalyzeItem(ToHSV(tt.img)).Category())
		})
	}
}

func TestItemCategory_CenterWeighting(t *testing.T) {
	// Green border, red centre: centre dominates
	img := solid(100, 100, color.RGBA{0, 200, 0, 255})
	for y := 20; y < 80; y++ {
		for x := 20; x < 80; x++ {
			img.SetRGBA(x, y, color.RGBA{220, 20, 20, 255})
		}
	}
	signals := AnalyzeItem(ToHSV(img))

	// centre is fully red: 0.7*100 + 0.3*36
	assert.InDelta(t, 80.8, signals.WeightedFruit, 0.01)
	// green covers 64% of the frame and none of the centre
	assert.InDelta(t, 19.2, signals.WeightedGreen, 0.01)
	assert.Equal(t, "vegetables", signals.Category(), "any green above 5% wins")
}

func TestTensor(t *testing.T) {
	out := Tensor(solid(8, 8, color.RGBA{255, 255, 255, 255}), 4, ImageNet)
	require.Len(t, out, 3*4*4)

	for c := 0; c < 3; c++ {
		want := (1 - ImageNetMean[c]) / ImageNetStd[c]
		assert.InDelta(t, want, out[c*16], 1e-5)
		assert.InDelta(t, want, out[c*16+15], 1e-5)
	}

	unit := Tensor(solid(2, 2, color.RGBA{0, 0, 0, 255}), 2, Unit)
	for _, v := range unit {
		assert.Equal(t, float32(0), v)
	}
}
