package kafka

// Topics
const (
	// every served prediction, consumed into the ClickHouse prediction log
	TopicPredictions = "smartkitchen.predictions"

	TopicWasteAlerts       = "smartkitchen.waste.at_risk"
	TopicForecastRefreshed = "smartkitchen.forecast.refreshed"
)

// ConsumerGroupPredictionLog is the group that persists prediction events
const ConsumerGroupPredictionLog = "smartkitchen-prediction-log"
