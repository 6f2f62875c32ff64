package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExposureStatus classifies an opportunity against the operator's book.
type ExposureStatus string

const (
	// ExposureClear means no recorded bet touches this opportunity's match.
	ExposureClear ExposureStatus = "clear"
	// ExposureAlreadyPlaced means a recorded bet has the identical BetKey.
	ExposureAlreadyPlaced ExposureStatus = "already_placed"
	// ExposureCorrelated means a recorded bet shares the match but not the key.
	ExposureCorrelated ExposureStatus = "correlated"
)

// FreshnessTier grades how stale the reference prices behind a feed
// snapshot are. Advisory UI state, recomputed on every evaluation pass.
type FreshnessTier string

const (
	FreshnessUnknown FreshnessTier = "unknown" // reference never received
	FreshnessFresh   FreshnessTier = "fresh"   // under 5 minutes old
	FreshnessAging   FreshnessTier = "aging"   // 5 to 15 minutes old
	FreshnessStale   FreshnessTier = "stale"   // 15 minutes or older
)

// FilterParams are the operator-chosen presentation rules for one
// evaluation pass.
type FilterParams struct {
	MinEVPercent decimal.Decimal
	HidePlaced   bool
}

// StakeParams are the inputs to one stake suggestion.
type StakeParams struct {
	OfferedOdds  decimal.Decimal
	EVPercent    decimal.Decimal
	Bankroll     decimal.Decimal
	RiskFraction decimal.Decimal // multiplier on full Kelly, (0,1]
}

// StakeSuggestion is the fractional-Kelly sizing result. The stake is
// advisory: the operator edits it freely before recording.
type StakeSuggestion struct {
	NetOdds           decimal.Decimal `json:"net_odds"`
	FullKellyFraction decimal.Decimal `json:"full_kelly_fraction"`
	AdjustedFraction  decimal.Decimal `json:"adjusted_fraction"`
	SuggestedStake    decimal.Decimal `json:"suggested_stake"`
}

// EvaluatedOpportunity is a feed item annotated with its exposure
// classification for presentation.
type EvaluatedOpportunity struct {
	Opportunity
	Exposure ExposureStatus `json:"exposure"`
}

// EvaluatedFeed is the presented subset of one feed snapshot: threshold- and
// exposure-filtered items in original feed order, with one feed-level
// freshness grade. An empty Opportunities slice is a valid result, distinct
// from "no snapshot loaded yet".
type EvaluatedFeed struct {
	ReferenceTimestamp int64                  `json:"reference_timestamp"`
	Freshness          FreshnessTier          `json:"freshness"`
	EvaluatedAt        time.Time              `json:"evaluated_at"`
	Opportunities      []EvaluatedOpportunity `json:"opportunities"`
}
