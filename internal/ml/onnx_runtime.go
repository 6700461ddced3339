package ml

import (
	"os"
	"sync"

	onnxruntime "github.com/yalue/onnxruntime_go"

	"smartkitchen/pkg/errors"
)

// Model is anything the registry can own
type Model interface {
	Close() error
}

// Runtime initialises the ONNX Runtime environment once per process
type Runtime struct {
	libraryPath string

	once sync.Once
	err  error
}

// NewRuntime creates a runtime; libraryPath may be empty to use the default lookup
func NewRuntime(libraryPath string) *Runtime {
	return &Runtime{libraryPath: libraryPath}
}

// Init initialises the environment. Safe for concurrent use; the first result sticks.
func (r *Runtime) Init() error {
	r.once.Do(func() {
		if onnxruntime.IsInitialized() {
			return
		}
		if r.libraryPath != "" {
			onnxruntime.SetSharedLibraryPath(r.libraryPath)
		}
		if err := onnxruntime.InitializeEnvironment(); err != nil {
			r.err = errors.Wrapf(errors.ErrModelUnavailable, "initialize ONNX runtime: %v", err)
		}
	})
	return r.err
}

// Close tears down the environment
func (r *Runtime) Close() error {
	if !onnxruntime.IsInitialized() {
		return nil
	}
	return onnxruntime.DestroyEnvironment()
}

// Session wraps an ONNX Runtime session with fixed input and output names
type Session struct {
	session     *onnxruntime.DynamicAdvancedSession
	path        string
	inputNames  []string
	outputNames []string
	mu          sync.Mutex
}

// OpenSession loads a model file. A missing file is ErrModelUnavailable.
func (r *Runtime) OpenSession(modelPath string, inputNames, outputNames []string) (*Session, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, errors.Wrapf(errors.ErrModelUnavailable, "model file not found at %s", modelPath)
	}
	if err := r.Init(); err != nil {
		return nil, err
	}

	options, err := onnxruntime.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session options")
	}
	defer options.Destroy()

	// Dynamic session allows runtime tensor creation per request
	session, err := onnxruntime.NewDynamicAdvancedSession(modelPath, inputNames, outputNames, options)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrModelUnavailable, "load %s: %v", modelPath, err)
	}

	return &Session{
		session:     session,
		path:        modelPath,
		inputNames:  inputNames,
		outputNames: outputNames,
	}, nil
}

// Path returns the model file the session was loaded from
func (s *Session) Path() string {
	return s.path
}

// Run executes the session. Outputs must be preallocated tensors.
func (s *Session) Run(inputs, outputs []onnxruntime.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return errors.Wrap(errors.ErrModelUnavailable, "model session is closed")
	}
	if err := s.session.Run(inputs, outputs); err != nil {
		return errors.Wrapf(errors.ErrPrediction, "inference failed: %v", err)
	}
	return nil
}

// Close destroys the session
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return err
}

// runFloat feeds one float32 input and reads one float32 output of outLen values
func (s *Session) runFloat(input []float32, inShape onnxruntime.Shape, outShape onnxruntime.Shape) ([]float32, error) {
	inputTensor, err := onnxruntime.NewTensor(inShape, input)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create input tensor")
	}
	defer inputTensor.Destroy()

	outputTensor, err := onnxruntime.NewEmptyTensor[float32](outShape)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create output tensor")
	}
	defer outputTensor.Destroy()

	if err := s.Run([]onnxruntime.Value{inputTensor}, []onnxruntime.Value{outputTensor}); err != nil {
		return nil, err
	}

	out := make([]float32, len(outputTensor.GetData()))
	copy(out, outputTensor.GetData())
	return out, nil
}
