package vision

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"gonum.org/v1/gonum/stat"
)

// Colour masks on the OpenCV HSV scale
var (
	BrownRange = Range{Lo: HSV{10, 50, 0}, Hi: HSV{20, 255, 100}}
	DarkRange  = Range{Lo: HSV{0, 0, 0}, Hi: HSV{180, 255, 50}}
	GreenRange = Range{Lo: HSV{35, 30, 30}, Hi: HSV{85, 255, 255}}

	FruitRanges = []Range{
		{Lo: HSV{0, 30, 30}, Hi: HSV{10, 255, 255}},    // red
		{Lo: HSV{170, 30, 30}, Hi: HSV{180, 255, 255}}, // red, wrapped hue
		{Lo: HSV{5, 30, 30}, Hi: HSV{25, 255, 255}},    // orange
		{Lo: HSV{20, 30, 30}, Hi: HSV{35, 255, 255}},   // yellow
		{Lo: HSV{120, 30, 30}, Hi: HSV{150, 255, 255}}, // purple
	}
)

// edgeThreshold marks a Sobel response as an edge; stands in for Canny's 50/150 hysteresis
const edgeThreshold = 64

// SpoilageSignals are the colour and texture statistics of a produce photo
type SpoilageSignals struct {
	BrownPct        float64 `json:"brown_pct"`
	DarkPct         float64 `json:"dark_pct"`
	AvgSaturation   float64 `json:"avg_saturation"`
	AvgBrightness   float64 `json:"avg_brightness"`
	EdgeDensity     float64 `json:"edge_density"`
	TextureVariance float64 `json:"texture_variance"`
}

// AnalyzeSpoilage computes the spoilage signals of an image
func AnalyzeSpoilage(img *image.RGBA, hsv *HSVImage) SpoilageSignals {
	full := hsv.Bounds()

	gray := grayValues(img)
	return SpoilageSignals{
		BrownPct:        hsv.Coverage(full, BrownRange),
		DarkPct:         hsv.Coverage(full, DarkRange),
		AvgSaturation:   hsv.MeanSaturation(full),
		AvgBrightness:   hsv.MeanValue(full),
		EdgeDensity:     edgeDensity(img),
		TextureVariance: stat.PopVariance(gray, nil),
	}
}

// Score applies the fixed weights and caps the result at 100
func (s SpoilageSignals) Score() float64 {
	score := 0.0

	switch {
	case s.BrownPct > 5:
		score += 30
	case s.BrownPct > 2:
		score += 15
	}

	switch {
	case s.DarkPct > 10:
		score += 25
	case s.DarkPct > 5:
		score += 12
	}

	if s.AvgSaturation < 50 {
		score += 15
	}
	if s.AvgBrightness < 80 {
		score += 10
	}
	if s.EdgeDensity > 15 {
		score += 10
	}
	if s.TextureVariance > 2000 {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}

// ItemSignals are the colour coverages used to guess produce category
type ItemSignals struct {
	WeightedGreen    float64 `json:"weighted_green"`
	WeightedFruit    float64 `json:"weighted_fruit"`
	CenterSaturation float64 `json:"center_saturation"`
}

// AnalyzeItem weights the centre region (20%..80% on both axes) at 0.7 and the whole frame at 0.3
func AnalyzeItem(hsv *HSVImage) ItemSignals {
	full := hsv.Bounds()
	center := hsv.Region(0.2, 0.2, 0.8, 0.8)

	green := hsv.Coverage(full, GreenRange)
	fruit := hsv.Coverage(full, FruitRanges...)
	centerGreen := hsv.Coverage(center, GreenRange)
	centerFruit := hsv.Coverage(center, FruitRanges...)

	return ItemSignals{
		WeightedGreen:    centerGreen*0.7 + green*0.3,
		WeightedFruit:    centerFruit*0.7 + fruit*0.3,
		CenterSaturation: hsv.MeanSaturation(center),
	}
}

// Category returns "vegetables", "fruits" or "unknown"
func (s ItemSignals) Category() string {
	switch {
	case s.WeightedGreen > 5:
		return "vegetables"
	case s.WeightedFruit > 4:
		return "fruits"
	case s.WeightedGreen > s.WeightedFruit:
		return "vegetables"
	case s.CenterSaturation > 40:
		return "fruits"
	default:
		return "unknown"
	}
}

// grayValues returns luma per pixel with the ITU-R 601 weights
func grayValues(img *image.RGBA) []float64 {
	g := effect.GrayscaleWithWeights(img, 0.299, 0.587, 0.114)
	out := make([]float64, 0, len(g.Pix)/4)
	for i := 0; i < len(g.Pix); i += 4 {
		out = append(out, float64(g.Pix[i]))
	}
	return out
}

// edgeDensity returns the percentage of pixels on an edge of the smoothed grayscale image
func edgeDensity(img *image.RGBA) float64 {
	gray := effect.GrayscaleWithWeights(img, 0.299, 0.587, 0.114)
	edges := effect.Sobel(blur.Gaussian(gray, 1.0))

	total := len(edges.Pix) / 4
	if total == 0 {
		return 0
	}
	hits := 0
	for i := 0; i < len(edges.Pix); i += 4 {
		if edges.Pix[i] >= edgeThreshold {
			hits++
		}
	}
	return float64(hits) / float64(total) * 100
}
