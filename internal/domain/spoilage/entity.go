package spoilage

import (
	"strings"
)

// Level is the spoilage severity; the zero value is fresh
type Level int

const (
	LevelFresh Level = iota
	LevelSlightlySpoiled
	LevelModeratelySpoiled
	LevelSpoiled
	LevelHighlySpoiled
)

var levelNames = [...]string{
	LevelFresh:             "fresh",
	LevelSlightlySpoiled:   "slightly_spoiled",
	LevelModeratelySpoiled: "moderately_spoiled",
	LevelSpoiled:           "spoiled",
	LevelHighlySpoiled:     "highly_spoiled",
}

// String returns the API name of the level
func (l Level) String() string {
	if l < LevelFresh || l > LevelHighlySpoiled {
		return "unknown"
	}
	return levelNames[l]
}

// MarshalText encodes the level by name
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Grade is a level with its shelf-life estimate and score
type Grade struct {
	Level         Level
	DaysRemaining int
	Score         float64
}

// FromConfidence grades a binary fresh/rotten classification.
// Rotten severity rises with confidence; fresh severity falls with it.
func FromConfidence(rotten bool, confidence float64) Grade {
	if rotten {
		switch {
		case confidence > 0.85:
			return Grade{LevelHighlySpoiled, 0, 90}
		case confidence > 0.70:
			return Grade{LevelSpoiled, 1, 75}
		case confidence > 0.55:
			return Grade{LevelModeratelySpoiled, 2, 60}
		default:
			return Grade{LevelSlightlySpoiled, 3, 40}
		}
	}

	switch {
	case confidence > 0.85:
		return Grade{LevelFresh, 5, 10}
	case confidence > 0.70:
		return Grade{LevelFresh, 4, 15}
	default:
		return Grade{LevelSlightlySpoiled, 3, 25}
	}
}

// FromScore grades a heuristic score in [0,100]
func FromScore(score float64) Grade {
	switch {
	case score < 20:
		return Grade{LevelFresh, 5, score}
	case score < 40:
		return Grade{LevelSlightlySpoiled, 3, score}
	case score < 60:
		return Grade{LevelModeratelySpoiled, 2, score}
	case score < 80:
		return Grade{LevelSpoiled, 1, score}
	default:
		return Grade{LevelHighlySpoiled, 0, score}
	}
}

var rottenKeywords = []string{"rotten", "diseased", "spoiled", "bad", "unhealthy"}

// IsRottenLabel reports whether a classifier label names a spoiled class
func IsRottenLabel(label string) bool {
	lower := strings.ToLower(label)
	for _, k := range rottenKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

var vegetableKeywords = []string{
	"tomato", "pepper", "cucumber", "carrot", "potato", "onion",
	"broccoli", "lettuce", "cabbage", "spinach", "celery", "corn",
	"peas", "bean", "cauliflower", "eggplant", "zucchini",
}

// Item categories
const (
	CategoryVegetables = "vegetables"
	CategoryFruits     = "fruits"
	CategoryUnknown    = "unknown"
)

// CategoryOf returns vegetables when the item name contains a vegetable keyword, fruits otherwise
func CategoryOf(itemName string) string {
	lower := strings.ToLower(itemName)
	for _, k := range vegetableKeywords {
		if strings.Contains(lower, k) {
			return CategoryVegetables
		}
	}
	return CategoryFruits
}

// Model names reported in responses
const (
	ModelTrainedCNN    = "trained_cnn"
	ModelNeuralNetwork = "neural_network"
	ModelHeuristic     = "color_texture_analysis"

	ItemModelYOLO       = "yolo"
	ItemModelClassifier = "item_classifier"
	ItemModelHeuristic  = "color_analysis"
	ItemModelProvided   = "provided"
)

// Prediction is one ranked item class
type Prediction struct {
	ItemName   string  `json:"item_name"`
	Confidence float64 `json:"confidence"`
}

// ItemDetection is what the item chain found
type ItemDetection struct {
	ItemName       string       `json:"item_name"`
	Category       string       `json:"category"`
	Confidence     *float64     `json:"confidence"`
	AllPredictions []Prediction `json:"all_predictions"`
	BBox           []float64    `json:"bbox,omitempty"`
	ModelUsed      string       `json:"model_used"`
}

// Assessment is what the spoilage chain found
type Assessment struct {
	Level         Level    `json:"spoilage_level"`
	Score         float64  `json:"spoilage_score"`
	DaysRemaining int      `json:"days_remaining"`
	HasSpoilage   bool     `json:"has_spoilage"`
	Confidence    *float64 `json:"confidence,omitempty"`
	ClassLabel    string   `json:"class_label,omitempty"`
	ModelUsed     string   `json:"model_used"`
}

// NewAssessment fills an assessment from a grade
func NewAssessment(g Grade, hasSpoilage bool, modelUsed string) Assessment {
	return Assessment{
		Level:         g.Level,
		Score:         g.Score,
		DaysRemaining: g.DaysRemaining,
		HasSpoilage:   hasSpoilage,
		ModelUsed:     modelUsed,
	}
}

// Result is the merged response of one detection request
type Result struct {
	Success                 bool         `json:"success"`
	ItemName                string       `json:"item_name"`
	ItemType                string       `json:"item_type"`
	DetectedItemType        string       `json:"detected_item_type"`
	DetectedItemName        string       `json:"detected_item_name"`
	ItemDetectionConfidence *float64     `json:"item_detection_confidence"`
	AllItemPredictions      []Prediction `json:"all_item_predictions"`
	ItemModelUsed           string       `json:"item_model_used"`

	SpoilageLevel Level    `json:"spoilage_level"`
	SpoilageScore float64  `json:"spoilage_score"`
	DaysRemaining int      `json:"days_remaining"`
	HasSpoilage   bool     `json:"has_spoilage"`
	Confidence    *float64 `json:"confidence,omitempty"`
	ClassLabel    string   `json:"class_label,omitempty"`
	ModelUsed     string   `json:"model_used"`
}

// Merge combines an item detection and a spoilage assessment
func Merge(item ItemDetection, a Assessment) Result {
	preds := item.AllPredictions
	if preds == nil {
		preds = []Prediction{}
	}
	return Result{
		Success:                 true,
		ItemName:                item.ItemName,
		ItemType:                item.Category,
		DetectedItemType:        item.Category,
		DetectedItemName:        item.ItemName,
		ItemDetectionConfidence: item.Confidence,
		AllItemPredictions:      preds,
		ItemModelUsed:           item.ModelUsed,
		SpoilageLevel:           a.Level,
		SpoilageScore:           a.Score,
		DaysRemaining:           a.DaysRemaining,
		HasSpoilage:             a.HasSpoilage,
		Confidence:              a.Confidence,
		ClassLabel:              a.ClassLabel,
		ModelUsed:               a.ModelUsed,
	}
}

// Percent converts a probability to a 2-decimal percentage pointer
func Percent(p float64) *float64 {
	v := float64(int64(p*10000+0.5)) / 100
	return &v
}
