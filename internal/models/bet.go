package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BetStatus is the settlement state of a recorded bet.
type BetStatus string

const (
	BetStatusPending BetStatus = "pending"
	BetStatusWon     BetStatus = "won"
	BetStatusLost    BetStatus = "lost"
	BetStatusVoid    BetStatus = "void"
)

// IsSettlement reports whether the status is a terminal settlement outcome.
func (s BetStatus) IsSettlement() bool {
	switch s {
	case BetStatusWon, BetStatusLost, BetStatusVoid:
		return true
	}
	return false
}

// PlacedBet is the position-book view of a recorded stake: just the identity
// fields the exposure detector matches on.
type PlacedBet struct {
	MatchName  string              `json:"match_name"`
	MarketType string              `json:"market_type"`
	Selection  string              `json:"selection"`
	Line       decimal.NullDecimal `json:"line"`
}

// Validate checks the identity fields are present.
func (b *PlacedBet) Validate() error {
	if b.MatchName == "" {
		return fmt.Errorf("missing match_name")
	}
	if b.MarketType == "" {
		return fmt.Errorf("missing market_type")
	}
	if b.Selection == "" {
		return fmt.Errorf("missing selection")
	}
	return nil
}

// BetRecord is a fully recorded bet: the position-book identity plus the
// prices it was taken at, the stake, and its settlement lifecycle.
type BetRecord struct {
	ID          uuid.UUID           `json:"id"`
	MatchName   string              `json:"match_name"`
	MarketType  string              `json:"market_type"`
	Selection   string              `json:"selection"`
	Line        decimal.NullDecimal `json:"line"`
	OfferedOdds decimal.Decimal     `json:"offered_odds"`
	FairOdds    decimal.Decimal     `json:"fair_odds"`
	EVPercent   decimal.Decimal     `json:"ev_percent"`
	Stake       decimal.Decimal     `json:"stake"`
	Status      BetStatus           `json:"status"`
	ResultScore string              `json:"result_score,omitempty"`
	PlacedAt    time.Time           `json:"placed_at"`
	SettledAt   *time.Time          `json:"settled_at,omitempty"`
}

// Position returns the book entry the exposure detector matches against.
func (r *BetRecord) Position() PlacedBet {
	return PlacedBet{
		MatchName:  r.MatchName,
		MarketType: r.MarketType,
		Selection:  r.Selection,
		Line:       r.Line,
	}
}

// Profit returns the realized profit of the bet: stake*(odds-1) when won,
// -stake when lost, zero while pending or voided.
func (r *BetRecord) Profit() decimal.Decimal {
	switch r.Status {
	case BetStatusWon:
		return r.Stake.Mul(r.OfferedOdds.Sub(decimal.NewFromInt(1)))
	case BetStatusLost:
		return r.Stake.Neg()
	}
	return decimal.Zero
}
