package engine

import "time"

// Config defines the orchestrator's blending weights and ledger policy.
// The blend weights are heuristic design parameters, deliberately
// configuration rather than hard-coded contract.
type Config struct {
	// LocalWeight and HistoricalWeight blend the personalized+vehicle
	// factor with the historical-similarity prediction. They should
	// sum to 1.
	LocalWeight      float64 `json:"local_weight"`
	HistoricalWeight float64 `json:"historical_weight"`
	// RetentionHours bounds how long an unreported prediction stays in
	// the pending ledger.
	RetentionHours int `json:"retention_hours"`
	// SweepIntervalMinutes drives the periodic ledger sweep.
	SweepIntervalMinutes int `json:"sweep_interval_minutes"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.LocalWeight == 0 {
		c.LocalWeight = 0.7
	}
	if c.HistoricalWeight == 0 {
		c.HistoricalWeight = 0.3
	}
	if c.RetentionHours == 0 {
		c.RetentionHours = 24
	}
	if c.SweepIntervalMinutes == 0 {
		c.SweepIntervalMinutes = 10
	}
}

func (c Config) retention() time.Duration {
	return time.Duration(c.RetentionHours) * time.Hour
}

func (c Config) sweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}
