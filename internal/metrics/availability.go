package metrics

import (
	"math"
	"time"

	"gamepulse/internal/models"
)

// Availability summarises health-check outcomes over a window of samples.
type Availability struct {
	TotalChecks         int     `json:"total_checks"`
	Passing             int     `json:"passing"`
	Failing             int     `json:"failing"`
	AvailabilityPercent float64 `json:"availability_percent"`
	LastState           string  `json:"last_state,omitempty"`
	LastChecked         string  `json:"last_checked,omitempty"`
}

// ComputeAvailability aggregates ping samples into an availability summary.
func ComputeAvailability(samples []models.PingOutcome) Availability {
	summary := Availability{}
	var lastChecked time.Time

	for _, sample := range samples {
		if sample.OK {
			summary.Passing++
		} else {
			summary.Failing++
		}
		if sample.CheckedAt.After(lastChecked) {
			lastChecked = sample.CheckedAt
			if sample.OK {
				summary.LastState = models.PingOK
			} else {
				summary.LastState = models.PingFailed
			}
		}
	}

	summary.TotalChecks = summary.Passing + summary.Failing
	if summary.TotalChecks > 0 {
		summary.AvailabilityPercent = round2(float64(summary.Passing) / float64(summary.TotalChecks) * 100)
	}
	if !lastChecked.IsZero() {
		summary.LastChecked = lastChecked.UTC().Format(time.RFC3339)
	}
	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
