package engine

import (
	"github.com/cypherlabdev/betdesk-service/internal/models"
)

// ClassifyExposure classifies an opportunity against the full position book.
// An exact BetKey match wins: an already-placed bet is never additionally
// reported as correlated, even though it also shares the match name. With no
// recorded bet on the same match the opportunity is clear. An empty book
// yields clear for everything.
func (e *Engine) ClassifyExposure(o *models.Opportunity, book []models.PlacedBet) models.ExposureStatus {
	key := o.Key()
	correlated := false
	for i := range book {
		b := &book[i]
		if key.Equal(b.Key()) {
			return models.ExposureAlreadyPlaced
		}
		if b.MatchName == o.MatchName {
			correlated = true
		}
	}
	if correlated {
		return models.ExposureCorrelated
	}
	return models.ExposureClear
}
