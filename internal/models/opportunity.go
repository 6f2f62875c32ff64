package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Opportunity is a candidate bet surfaced by the upstream analysis feed.
// Fair odds and EV arrive pre-computed; this service never derives them.
type Opportunity struct {
	ID           string              `json:"id"`
	MatchName    string              `json:"match_name"`
	MarketType   string              `json:"market_type"`
	Selection    string              `json:"selection"`
	Line         decimal.NullDecimal `json:"line"` // absent for markets without a point line
	OfferedOdds  decimal.Decimal     `json:"offered_odds"`
	FairOdds     decimal.Decimal     `json:"fair_odds"`
	EVPercent    decimal.Decimal     `json:"ev_percent"` // signed percentage edge
	CommenceTime time.Time           `json:"commence_time"`
}

// Validate checks the well-formed-entity contract: identity fields present and
// both prices above 1.0 (decimal-odds convention). EVPercent may be negative.
func (o *Opportunity) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("missing id")
	}
	if o.MatchName == "" {
		return fmt.Errorf("missing match_name")
	}
	if o.MarketType == "" {
		return fmt.Errorf("missing market_type")
	}
	if o.Selection == "" {
		return fmt.Errorf("missing selection")
	}
	one := decimal.NewFromInt(1)
	if o.OfferedOdds.LessThanOrEqual(one) {
		return fmt.Errorf("invalid offered odds: %s", o.OfferedOdds.String())
	}
	if o.FairOdds.LessThanOrEqual(one) {
		return fmt.Errorf("invalid fair odds: %s", o.FairOdds.String())
	}
	return nil
}

// FeedSnapshot is one point-in-time capture of the opportunity feed.
// ReferenceTimestamp is the unix-seconds age anchor of the sharp reference
// prices behind the feed; zero means the reference was never received.
type FeedSnapshot struct {
	ReferenceTimestamp int64         `json:"reference_timestamp"`
	Opportunities      []Opportunity `json:"opportunities"`
	ReceivedAt         time.Time     `json:"received_at"`
}

// KafkaFeedMessage is the wire format published by the analysis service.
type KafkaFeedMessage struct {
	ReferenceTimestamp int64         `json:"reference_timestamp"`
	Opportunities      []Opportunity `json:"opportunities"`
	PublishedAt        time.Time     `json:"published_at"`
	BatchID            string        `json:"batch_id"`
}
