package ml

import (
	"image"
	"math"
	"sort"

	onnxruntime "github.com/yalue/onnxruntime_go"

	"smartkitchen/internal/vision"
	"smartkitchen/pkg/errors"
)

// ImageSpec describes the tensor contract of an exported image classifier
type ImageSpec struct {
	Input  string
	Output string
	Size   int
	Norm   vision.Normalization
}

// ClassifierImageSpec matches Hugging Face and torchvision exports: 224x224 ImageNet-normalised pixels in, logits out
var ClassifierImageSpec = ImageSpec{
	Input:  "pixel_values",
	Output: "logits",
	Size:   224,
	Norm:   vision.ImageNet,
}

// ClassScore is one class probability
type ClassScore struct {
	Index       int     `json:"-"`
	Label       string  `json:"item_name"`
	Probability float64 `json:"-"`
}

// ImageClassifier runs a softmax classifier over an image
type ImageClassifier struct {
	session *Session
	labels  []string
	spec    ImageSpec
}

// NewImageClassifier loads a classifier whose output has len(labels) logits
func NewImageClassifier(rt *Runtime, modelPath string, labels []string, spec ImageSpec) (*ImageClassifier, error) {
	if len(labels) == 0 {
		return nil, errors.Wrapf(errors.ErrModelUnavailable, "no labels for %s", modelPath)
	}
	session, err := rt.OpenSession(modelPath, []string{spec.Input}, []string{spec.Output})
	if err != nil {
		return nil, err
	}
	return &ImageClassifier{session: session, labels: labels, spec: spec}, nil
}

// Labels returns the class names in index order
func (m *ImageClassifier) Labels() []string {
	return m.labels
}

// Classify returns every class sorted by descending probability
func (m *ImageClassifier) Classify(img image.Image) ([]ClassScore, error) {
	size := int64(m.spec.Size)
	input := vision.Tensor(img, m.spec.Size, m.spec.Norm)

	logits, err := m.session.runFloat(input,
		onnxruntime.NewShape(1, 3, size, size),
		onnxruntime.NewShape(1, int64(len(m.labels))),
	)
	if err != nil {
		return nil, err
	}
	return Rank(Softmax(logits), m.labels), nil
}

// Close releases the session
func (m *ImageClassifier) Close() error {
	return m.session.Close()
}

// Softmax converts logits to probabilities
func Softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := float64(logits[0])
	for _, l := range logits[1:] {
		if float64(l) > maxLogit {
			maxLogit = float64(l)
		}
	}

	out := make([]float64, len(logits))
	sum := 0.0
	for i, l := range logits {
		out[i] = math.Exp(float64(l) - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Rank pairs probabilities with labels, most probable first
func Rank(probs []float64, labels []string) []ClassScore {
	scores := make([]ClassScore, len(probs))
	for i, p := range probs {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		scores[i] = ClassScore{Index: i, Label: label, Probability: p}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Probability > scores[j].Probability })
	return scores
}

// TopK returns at most k leading scores
func TopK(scores []ClassScore, k int) []ClassScore {
	if k < len(scores) {
		return scores[:k]
	}
	return scores
}
