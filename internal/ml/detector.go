package ml

import (
	"image"

	onnxruntime "github.com/yalue/onnxruntime_go"

	"smartkitchen/internal/vision"
	"smartkitchen/pkg/errors"
)

const (
	detectorInput   = "images"
	detectorOutput  = "output0"
	detectorSize    = 640
	detectorAnchors = 8400

	// DefaultDetectionThreshold keeps boxes with confidence above it
	DefaultDetectionThreshold = 0.3
)

// Detection is one box above the confidence threshold, in source image pixels
type Detection struct {
	Label      string     `json:"item_name"`
	Confidence float64    `json:"confidence"`
	Box        [4]float64 `json:"bbox"` // x1, y1, x2, y2
}

// Detector runs a YOLOv8 export with output shape [1, 4+classes, 8400]
type Detector struct {
	session   *Session
	labels    []string
	threshold float64
}

// NewDetector loads a YOLOv8 model with one label per class
func NewDetector(rt *Runtime, modelPath string, labels []string) (*Detector, error) {
	if len(labels) == 0 {
		return nil, errors.Wrapf(errors.ErrModelUnavailable, "no labels for %s", modelPath)
	}
	session, err := rt.OpenSession(modelPath, []string{detectorInput}, []string{detectorOutput})
	if err != nil {
		return nil, err
	}
	return &Detector{session: session, labels: labels, threshold: DefaultDetectionThreshold}, nil
}

// Detect returns every box above the threshold
func (d *Detector) Detect(img image.Image) ([]Detection, error) {
	input := vision.Tensor(img, detectorSize, vision.Unit)

	rows := 4 + len(d.labels)
	out, err := d.session.runFloat(input,
		onnxruntime.NewShape(1, 3, detectorSize, detectorSize),
		onnxruntime.NewShape(1, int64(rows), detectorAnchors),
	)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	sx := float64(b.Dx()) / detectorSize
	sy := float64(b.Dy()) / detectorSize
	return DecodeYOLO(out, d.labels, detectorAnchors, d.threshold, sx, sy), nil
}

// Primary returns the most confident detection or ErrNoResult
func (d *Detector) Primary(img image.Image) (Detection, error) {
	detections, err := d.Detect(img)
	if err != nil {
		return Detection{}, err
	}
	return MostConfident(detections)
}

// Close releases the session
func (d *Detector) Close() error {
	return d.session.Close()
}

// DecodeYOLO reads a channel-major YOLOv8 output: rows 0..3 are cx, cy, w, h
// and the following rows are per-class scores for each anchor.
func DecodeYOLO(out []float32, labels []string, anchors int, threshold, scaleX, scaleY float64) []Detection {
	rows := 4 + len(labels)
	if len(out) < rows*anchors {
		return nil
	}

	var detections []Detection
	for a := 0; a < anchors; a++ {
		best, bestScore := -1, float32(0)
		for c := range labels {
			score := out[(4+c)*anchors+a]
			if score > bestScore {
				best, bestScore = c, score
			}
		}
		if best < 0 || float64(bestScore) <= threshold {
			continue
		}

		cx, cy := float64(out[a]), float64(out[anchors+a])
		w, h := float64(out[2*anchors+a]), float64(out[3*anchors+a])
		detections = append(detections, Detection{
			Label:      labels[best],
			Confidence: float64(bestScore),
			Box: [4]float64{
				(cx - w/2) * scaleX, (cy - h/2) * scaleY,
				(cx + w/2) * scaleX, (cy + h/2) * scaleY,
			},
		})
	}
	return detections
}

// MostConfident picks the highest-confidence detection
func MostConfident(detections []Detection) (Detection, error) {
	if len(detections) == 0 {
		return Detection{}, errors.Wrap(errors.ErrNoResult, "no detections above threshold")
	}
	primary := detections[0]
	for _, d := range detections[1:] {
		if d.Confidence > primary.Confidence {
			primary = d
		}
	}
	return primary, nil
}
