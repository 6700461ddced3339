package ml

import (
	"image"
	"image/color"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartkitchen/pkg/errors"
)

func TestSoftmaxAndRank(t *testing.T) {
	probs := Softmax([]float32{1, 3, 2})
	require.Len(t, probs, 3)

	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	ranked := Rank(probs, []string{"apple", "banana", "carrot"})
	assert.Equal(t, "banana", ranked[0].Label)
	assert.Equal(t, "carrot", ranked[1].Label)
	assert.Equal(t, 1, ranked[0].Index)
	assert.Len(t, TopK(ranked, 2), 2)
	assert.Len(t, TopK(ranked, 10), 3)

	assert.Nil(t, Softmax(nil))
}

func TestDecodeYOLO(t *testing.T) {
	labels := []string{"apple", "tomato"}
	anchors := 3
	out := make([]float32, (4+len(labels))*anchors)
	set := func(row, anchor int, v float32) { out[row*anchors+anchor] = v }

	// anchor 0: apple 0.9 at (100,100) 20x40
	set(0, 0, 100)
	set(1, 0, 100)
	set(2, 0, 20)
	set(3, 0, 40)
	set(4, 0, 0.9)
	// anchor 1: tomato 0.25, below threshold
	set(5, 1, 0.25)
	// anchor 2: tomato 0.6
	set(0, 2, 10)
	set(1, 2, 10)
	set(5, 2, 0.6)

	detections := DecodeYOLO(out, labels, anchors, DefaultDetectionThreshold, 2, 0.5)
	require.Len(t, detections, 2)

	assert.Equal(t, "apple", detections[0].Label)
	assert.InDelta(t, 0.9, detections[0].Confidence, 1e-6)
	assert.Equal(t, [4]float64{180, 40, 220, 60}, detections[0].Box)

	primary, err := MostConfident(detections)
	require.NoError(t, err)
	assert.Equal(t, "apple", primary.Label)

	_, err = MostConfident(nil)
	assert.True(t, errors.Is(err, errors.ErrNoResult))

	assert.Nil(t, DecodeYOLO(out[:5], labels, anchors, 0.3, 1, 1))
}

func TestParseLabels(t *testing.T) {
	labels, err := ParseLabels([]byte(`["fresh","rotten"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh", "rotten"}, labels)

	labels, err = ParseLabels([]byte(`{"id2label":{"1":"rottenapples","0":"freshapples"}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"freshapples", "rottenapples"}, labels)

	_, err = ParseLabels([]byte(`{"id2label":{"x":"a"}}`))
	assert.True(t, errors.Is(err, errors.ErrSchema))

	_, err = ParseLabels([]byte(`[]`))
	assert.True(t, errors.Is(err, errors.ErrSchema))

	_, err = LoadLabels("does/not/exist.json")
	assert.True(t, errors.Is(err, errors.ErrModelUnavailable))
}

func TestClassification_Confidence(t *testing.T) {
	c := Classification{Label: 1, Probabilities: []float32{0.2, 0.8}}
	assert.InDelta(t, 0.8, c.Confidence(), 1e-6)
	assert.Equal(t, 0.0, Classification{Label: 3}.Confidence())
}

func TestOpenSession_MissingArtifact(t *testing.T) {
	_, err := NewRuntime("").OpenSession("does/not/exist.onnx", []string{"input"}, []string{"variable"})
	assert.True(t, errors.Is(err, errors.ErrModelUnavailable))
}

func TestImageClassifier_Artifact(t *testing.T) {
	// Skip if model file doesn't exist
	modelPath := "../../models/spoilage_classifier.onnx"
	labelsPath := "../../models/spoilage_classifier.labels.json"
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		t.Skip("Model file not found, skipping test. Export the spoilage classifier to ONNX first")
	}

	labels, err := LoadLabels(labelsPath)
	require.NoError(t, err)

	rt := NewRuntime(os.Getenv("ONNXRUNTIME_LIB_PATH"))
	classifier, err := NewImageClassifier(rt, modelPath, labels, ClassifierImageSpec)
	require.NoError(t, err)
	defer classifier.Close()

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.SetRGBA(0, 0, color.RGBA{0, 0, 0, 255})

	scores, err := classifier.Classify(img)
	require.NoError(t, err)
	require.Len(t, scores, len(labels))
	assert.GreaterOrEqual(t, scores[0].Probability, scores[len(scores)-1].Probability)
}
