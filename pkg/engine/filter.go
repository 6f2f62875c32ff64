package engine

import (
	"time"

	"github.com/cypherlabdev/betdesk-service/internal/models"
)

// EvaluateFeed produces the presented subset of one feed snapshot: items below
// the minimum EV threshold are dropped, then (when hidePlaced is set) items
// already in the book are dropped, and each survivor is annotated with its
// exposure classification. Feed order is preserved, never re-sorted, and the
// freshness tier is graded once for the whole snapshot, not per item. Both
// inputs are taken as one consistent pair: the caller supplies the snapshot
// and book it wants classified against each other.
func (e *Engine) EvaluateFeed(snap models.FeedSnapshot, book []models.PlacedBet, params models.FilterParams, now time.Time) models.EvaluatedFeed {
	items := make([]models.EvaluatedOpportunity, 0, len(snap.Opportunities))

	for i := range snap.Opportunities {
		o := snap.Opportunities[i]
		if o.EVPercent.LessThan(params.MinEVPercent) {
			continue
		}
		exposure := e.ClassifyExposure(&o, book)
		if params.HidePlaced && exposure == models.ExposureAlreadyPlaced {
			continue
		}
		items = append(items, models.EvaluatedOpportunity{
			Opportunity: o,
			Exposure:    exposure,
		})
	}

	e.logger.Debug().
		Int("input_count", len(snap.Opportunities)).
		Int("output_count", len(items)).
		Int("book_size", len(book)).
		Msg("evaluated feed snapshot")

	return models.EvaluatedFeed{
		ReferenceTimestamp: snap.ReferenceTimestamp,
		Freshness:          e.GradeFreshness(snap.ReferenceTimestamp, now),
		EvaluatedAt:        now,
		Opportunities:      items,
	}
}
