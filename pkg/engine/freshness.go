package engine

import (
	"time"

	"github.com/cypherlabdev/betdesk-service/internal/models"
)

// Tier boundaries in whole elapsed minutes.
const (
	freshnessAgingAfter = 5
	freshnessStaleAfter = 15
)

// GradeFreshness maps the reference-feed timestamp (unix seconds) to a
// staleness tier at the given wall-clock instant. A zero timestamp is the
// "never received" sentinel and grades Unknown without touching the clock.
// The grade is a step function of elapsed whole minutes with no hysteresis;
// it must be recomputed on every evaluation pass, never cached.
func (e *Engine) GradeFreshness(referenceUnix int64, now time.Time) models.FreshnessTier {
	if referenceUnix == 0 {
		return models.FreshnessUnknown
	}
	minutes := (now.Unix() - referenceUnix) / 60
	switch {
	case minutes < freshnessAgingAfter:
		return models.FreshnessFresh
	case minutes < freshnessStaleAfter:
		return models.FreshnessAging
	default:
		return models.FreshnessStale
	}
}
