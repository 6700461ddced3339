package ml

import (
	onnxruntime "github.com/yalue/onnxruntime_go"

	"smartkitchen/pkg/errors"
)

// Tensor names of sklearn exports (skl2onnx defaults)
const (
	tabularInput       = "input"
	regressorOutput    = "variable"
	classifierLabel    = "output_label"
	classifierProbsOut = "output_probability"
)

// TabularRegressor runs a single-output regression model over one feature row
type TabularRegressor struct {
	session  *Session
	features int
}

// NewTabularRegressor loads a regressor expecting rows of n features
func NewTabularRegressor(rt *Runtime, modelPath string, features int) (*TabularRegressor, error) {
	session, err := rt.OpenSession(modelPath, []string{tabularInput}, []string{regressorOutput})
	if err != nil {
		return nil, err
	}
	return &TabularRegressor{session: session, features: features}, nil
}

// Predict returns the model output for one row
func (m *TabularRegressor) Predict(row []float32) (float64, error) {
	if len(row) != m.features {
		return 0, errors.Wrapf(errors.ErrPrediction, "expected %d features, got %d", m.features, len(row))
	}

	out, err := m.session.runFloat(row,
		onnxruntime.NewShape(1, int64(len(row))),
		onnxruntime.NewShape(1, 1),
	)
	if err != nil {
		return 0, err
	}
	return float64(out[0]), nil
}

// Close releases the session
func (m *TabularRegressor) Close() error {
	return m.session.Close()
}

// TabularClassifier runs a classifier exported without zipmap
type TabularClassifier struct {
	session  *Session
	features int
	classes  int
}

// Classification is the predicted class index and per-class probabilities
type Classification struct {
	Label         int64
	Probabilities []float32
}

// Confidence returns the probability of the predicted label
func (c Classification) Confidence() float64 {
	if c.Label < 0 || int(c.Label) >= len(c.Probabilities) {
		return 0
	}
	return float64(c.Probabilities[c.Label])
}

// NewTabularClassifier loads a classifier over n features and k classes
func NewTabularClassifier(rt *Runtime, modelPath string, features, classes int) (*TabularClassifier, error) {
	session, err := rt.OpenSession(modelPath,
		[]string{tabularInput},
		[]string{classifierLabel, classifierProbsOut},
	)
	if err != nil {
		return nil, err
	}
	return &TabularClassifier{session: session, features: features, classes: classes}, nil
}

// Predict classifies one row
func (m *TabularClassifier) Predict(row []float32) (Classification, error) {
	if len(row) != m.features {
		return Classification{}, errors.Wrapf(errors.ErrPrediction, "expected %d features, got %d", m.features, len(row))
	}

	inputTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, int64(len(row))), row)
	if err != nil {
		return Classification{}, errors.Wrap(err, "failed to create input tensor")
	}
	defer inputTensor.Destroy()

	// Output 1: predicted class (int64, shape [1])
	labelTensor, err := onnxruntime.NewEmptyTensor[int64](onnxruntime.NewShape(1))
	if err != nil {
		return Classification{}, errors.Wrap(err, "failed to create label output tensor")
	}
	defer labelTensor.Destroy()

	// Output 2: probabilities (float32, shape [1, classes])
	probTensor, err := onnxruntime.NewEmptyTensor[float32](onnxruntime.NewShape(1, int64(m.classes)))
	if err != nil {
		return Classification{}, errors.Wrap(err, "failed to create probabilities output tensor")
	}
	defer probTensor.Destroy()

	err = m.session.Run(
		[]onnxruntime.Value{inputTensor},
		[]onnxruntime.Value{labelTensor, probTensor},
	)
	if err != nil {
		return Classification{}, err
	}

	probs := make([]float32, m.classes)
	copy(probs, probTensor.GetData())

	label := labelTensor.GetData()[0]
	if label < 0 || int(label) >= m.classes {
		return Classification{}, errors.Wrapf(errors.ErrPrediction, "invalid class index: %d", label)
	}

	return Classification{Label: label, Probabilities: probs}, nil
}

// Close releases the session
func (m *TabularClassifier) Close() error {
	return m.session.Close()
}
