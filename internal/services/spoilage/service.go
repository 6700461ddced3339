package spoilage

import (
	"context"
	"image"
	"io"
	"slices"
	"strings"
	"time"

	"smartkitchen/internal/domain/prediction"
	"smartkitchen/internal/domain/spoilage"
	"smartkitchen/internal/fallback"
	"smartkitchen/internal/features"
	"smartkitchen/internal/metrics"
	"smartkitchen/internal/ml"
	"smartkitchen/internal/vision"
	"smartkitchen/pkg/errors"
	"smartkitchen/pkg/logger"
)

// Registry names of the detection models
const (
	DetectorModel       = "yolo_detector"
	TrainedModel        = "trained_spoilage_model"
	ItemClassifierModel = "item_model"
	ClassifierModel     = "spoilage_model"
)

// topPredictions is how many item classes are reported
const topPredictions = 3

// ItemDetector finds the most confident produce box in an image
type ItemDetector interface {
	ml.Model
	Primary(img image.Image) (ml.Detection, error)
}

// ImageClassifier ranks the classes of an image, most probable first
type ImageClassifier interface {
	ml.Model
	Classify(img image.Image) ([]ml.ClassScore, error)
}

// Config holds the service settings
type Config struct {
	MaxImageSide int
	// RuntimeAvailable reports whether the inference runtime initialised
	RuntimeAvailable bool
}

// Frame is a decoded upload ready for analysis
type Frame struct {
	Image  *image.RGBA
	HSV    *vision.HSVImage
	Format string
}

// Service detects the produce item and its spoilage in a photo
type Service struct {
	cfg      Config
	registry *ml.Registry
	recorder prediction.Recorder
	log      *logger.Logger

	items    *fallback.Chain[*Frame, spoilage.ItemDetection]
	spoilage *fallback.Chain[*Frame, spoilage.Assessment]
}

// NewService creates the service
func NewService(cfg Config, registry *ml.Registry, recorder prediction.Recorder) *Service {
	if cfg.MaxImageSide <= 0 {
		cfg.MaxImageSide = 800
	}
	s := &Service{
		cfg:      cfg,
		registry: registry,
		recorder: recorder,
		log:      logger.Get().Component("spoilage_service"),
	}

	s.items = fallback.NewChain[*Frame, spoilage.ItemDetection]("item_detection",
		fallback.Func(spoilage.ItemModelYOLO, s.detectItem),
		fallback.Func(spoilage.ItemModelClassifier, s.classifyItem),
		fallback.Func(spoilage.ItemModelHeuristic, s.colourItem),
	)
	s.spoilage = fallback.NewChain[*Frame, spoilage.Assessment]("spoilage_detection",
		fallback.Func(spoilage.ModelTrainedCNN, s.trainedSpoilage),
		fallback.Func(spoilage.ModelNeuralNetwork, s.classifierSpoilage),
		fallback.Func(spoilage.ModelHeuristic, s.heuristicSpoilage),
	)
	return s
}

// Load decodes an upload, converts it to RGB and bounds its longest side
func (s *Service) Load(r io.Reader) (*Frame, error) {
	img, format, err := vision.Decode(r)
	if err != nil {
		return nil, err
	}
	rgba := vision.Prepare(img, s.cfg.MaxImageSide)
	return &Frame{Image: rgba, HSV: vision.ToHSV(rgba), Format: format}, nil
}

// Detect runs item detection and spoilage assessment on one upload.
// A non-empty itemType skips item detection and is echoed back.
func (s *Service) Detect(ctx context.Context, r io.Reader, itemType string) (result *spoilage.Result, err error) {
	start := time.Now()
	model := ""
	var frame *Frame
	defer func() { s.observe(ctx, frame, itemType, model, result, start, err) }()

	frame, err = s.Load(r)
	if err != nil {
		return nil, err
	}

	item, err := s.DetectItem(ctx, frame, itemType)
	if err != nil {
		return nil, err
	}

	outcome, err := s.spoilage.Run(ctx, frame)
	if err != nil {
		return nil, err
	}
	model = outcome.Value.ModelUsed

	merged := spoilage.Merge(item, outcome.Value)
	return &merged, nil
}

// DetectItem identifies the produce in a frame
func (s *Service) DetectItem(ctx context.Context, frame *Frame, itemType string) (spoilage.ItemDetection, error) {
	if itemType = strings.TrimSpace(itemType); itemType != "" {
		return spoilage.ItemDetection{
			ItemName:  itemType,
			Category:  itemType,
			ModelUsed: spoilage.ItemModelProvided,
		}, nil
	}

	outcome, err := s.items.Run(ctx, frame)
	if err != nil {
		return spoilage.ItemDetection{}, err
	}
	return outcome.Value, nil
}

func (s *Service) detectItem(ctx context.Context, f *Frame) (spoilage.ItemDetection, error) {
	detector, err := ml.Lookup[ItemDetector](ctx, s.registry, DetectorModel)
	if err != nil {
		return spoilage.ItemDetection{}, err
	}
	d, err := detector.Primary(f.Image)
	if err != nil {
		return spoilage.ItemDetection{}, err
	}

	confidence := features.Round(d.Confidence*100, 2)
	return spoilage.ItemDetection{
		ItemName:   d.Label,
		Category:   spoilage.CategoryOf(d.Label),
		Confidence: &confidence,
		BBox:       d.Box[:],
		ModelUsed:  spoilage.ItemModelYOLO,
	}, nil
}

func (s *Service) classifyItem(ctx context.Context, f *Frame) (spoilage.ItemDetection, error) {
	classifier, err := ml.Lookup[ImageClassifier](ctx, s.registry, ItemClassifierModel)
	if err != nil {
		return spoilage.ItemDetection{}, err
	}
	scores, err := classifier.Classify(f.Image)
	if err != nil {
		return spoilage.ItemDetection{}, err
	}
	if len(scores) == 0 {
		return spoilage.ItemDetection{}, errors.ErrNoResult
	}

	top := ml.TopK(scores, topPredictions)
	predictions := make([]spoilage.Prediction, len(top))
	for i, sc := range top {
		predictions[i] = spoilage.Prediction{ItemName: sc.Label, Confidence: *spoilage.Percent(sc.Probability)}
	}

	return spoilage.ItemDetection{
		ItemName:       predictions[0].ItemName,
		Category:       spoilage.CategoryOf(predictions[0].ItemName),
		Confidence:     &predictions[0].Confidence,
		AllPredictions: predictions,
		ModelUsed:      spoilage.ItemModelClassifier,
	}, nil
}

func (s *Service) colourItem(_ context.Context, f *Frame) (spoilage.ItemDetection, error) {
	return spoilage.ItemDetection{
		ItemName:  "Unknown",
		Category:  vision.AnalyzeItem(f.HSV).Category(),
		ModelUsed: spoilage.ItemModelHeuristic,
	}, nil
}

// trainedSpoilage runs the 2-class fresh/rotten CNN; class 1 is rotten
func (s *Service) trainedSpoilage(ctx context.Context, f *Frame) (spoilage.Assessment, error) {
	top, err := s.topClass(ctx, TrainedModel, f)
	if err != nil {
		return spoilage.Assessment{}, err
	}

	rotten := top.Index == 1
	a := spoilage.NewAssessment(spoilage.FromConfidence(rotten, top.Probability), rotten, spoilage.ModelTrainedCNN)
	a.Confidence = spoilage.Percent(top.Probability)
	return a, nil
}

func (s *Service) classifierSpoilage(ctx context.Context, f *Frame) (spoilage.Assessment, error) {
	top, err := s.topClass(ctx, ClassifierModel, f)
	if err != nil {
		return spoilage.Assessment{}, err
	}

	rotten := spoilage.IsRottenLabel(top.Label)
	grade := spoilage.FromConfidence(rotten, top.Probability)
	a := spoilage.NewAssessment(grade, rotten || grade.Score >= 20, spoilage.ModelNeuralNetwork)
	a.Confidence = spoilage.Percent(top.Probability)
	a.ClassLabel = top.Label
	return a, nil
}

func (s *Service) heuristicSpoilage(_ context.Context, f *Frame) (spoilage.Assessment, error) {
	score := features.Round(vision.AnalyzeSpoilage(f.Image, f.HSV).Score(), 2)
	return spoilage.NewAssessment(spoilage.FromScore(score), score >= 20, spoilage.ModelHeuristic), nil
}

func (s *Service) topClass(ctx context.Context, name string, f *Frame) (ml.ClassScore, error) {
	classifier, err := ml.Lookup[ImageClassifier](ctx, s.registry, name)
	if err != nil {
		return ml.ClassScore{}, err
	}
	scores, err := classifier.Classify(f.Image)
	if err != nil {
		return ml.ClassScore{}, err
	}
	if len(scores) == 0 {
		return ml.ClassScore{}, errors.ErrNoResult
	}
	return scores[0], nil
}

type detectInput struct {
	ItemType string `json:"item_type,omitempty"`
	Format   string `json:"format,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

func (s *Service) observe(ctx context.Context, f *Frame, itemType, model string, out *spoilage.Result, start time.Time, err error) {
	latency := time.Since(start)
	metrics.RecordPrediction(prediction.ServiceSpoilage, model, latency, err)

	in := detectInput{ItemType: itemType}
	if f != nil {
		b := f.Image.Bounds()
		in.Format, in.Width, in.Height = f.Format, b.Dx(), b.Dy()
	}

	entry := prediction.NewLog(prediction.ServiceSpoilage, model)
	entry.Latency = latency
	if out != nil {
		entry.SetPayload(in, out)
	} else {
		entry.SetPayload(in, nil)
	}
	entry.Fail(err)
	if rerr := s.recorder.Record(ctx, entry); rerr != nil {
		s.log.Warn("failed to record prediction", "error", rerr)
	}
}

// Health reports which models are loaded
type Health struct {
	Status              string `json:"status"`
	DetectorLoaded      bool   `json:"yolo_detector_loaded"`
	TrainedModelLoaded  bool   `json:"trained_spoilage_model_loaded"`
	ItemModelLoaded     bool   `json:"item_model_loaded"`
	SpoilageModelLoaded bool   `json:"spoilage_model_loaded"`
	Device              string `json:"device"`
	DetectorAvailable   bool   `json:"yolo_available"`
	ModelsAvailable     bool   `json:"models_available"`
}

// Health returns the readiness flags of every model
func (s *Service) Health() Health {
	return Health{
		Status:              "Complete Detection API is running",
		DetectorLoaded:      s.registry.Loaded(DetectorModel),
		TrainedModelLoaded:  s.registry.Loaded(TrainedModel),
		ItemModelLoaded:     s.registry.Loaded(ItemClassifierModel),
		SpoilageModelLoaded: s.registry.Loaded(ClassifierModel),
		Device:              "cpu",
		DetectorAvailable:   slices.Contains(s.registry.Names(), DetectorModel),
		ModelsAvailable:     s.cfg.RuntimeAvailable,
	}
}
