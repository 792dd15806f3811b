package history

import "time"

// Config defines the learner's corpus limits, matching thresholds and
// retraining triggers. All values are design parameters, not contracts.
type Config struct {
	// MaxRoutes caps the retained corpus; the oldest record is evicted first.
	MaxRoutes int `json:"max_routes"`
	// MinCorpusForPrediction gates PredictFromSimilar.
	MinCorpusForPrediction int `json:"min_corpus_for_prediction"`
	// MinCorpusForPatterns gates AnalyzePatterns.
	MinCorpusForPatterns int `json:"min_corpus_for_patterns"`
	// SimilarityThreshold is the minimum score for a record to count as a match.
	SimilarityThreshold float64 `json:"similarity_threshold"`
	// TopK bounds how many matches feed the prediction.
	TopK int `json:"top_k"`
	// AccuracyAlpha is the EMA coefficient of the rolling accuracy.
	AccuracyAlpha float64 `json:"accuracy_alpha"`
	// RetrainWindowDays is the recent window compared against the long-run accuracy.
	RetrainWindowDays int `json:"retrain_window_days"`
	// RetrainMargin triggers retraining when the recent mean falls this far below the long run.
	RetrainMargin float64 `json:"retrain_margin"`
	// RetrainVolume triggers retraining after this many new records regardless of accuracy.
	RetrainVolume int `json:"retrain_volume"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.MaxRoutes == 0 {
		c.MaxRoutes = 1000
	}
	if c.MinCorpusForPrediction == 0 {
		c.MinCorpusForPrediction = 5
	}
	if c.MinCorpusForPatterns == 0 {
		c.MinCorpusForPatterns = 10
	}
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = 0.6
	}
	if c.TopK == 0 {
		c.TopK = 10
	}
	if c.AccuracyAlpha == 0 {
		c.AccuracyAlpha = 0.2
	}
	if c.RetrainWindowDays == 0 {
		c.RetrainWindowDays = 7
	}
	if c.RetrainMargin == 0 {
		c.RetrainMargin = 0.05
	}
	if c.RetrainVolume == 0 {
		c.RetrainVolume = 50
	}
}

func (c Config) retrainWindow() time.Duration {
	return time.Duration(c.RetrainWindowDays) * 24 * time.Hour
}
