package models

import "github.com/shopspring/decimal"

// BetKey identifies a position: (match, market, selection, line). Opportunities
// and placed bets with equal keys are the same bet.
type BetKey struct {
	MatchName  string
	MarketType string
	Selection  string
	Line       decimal.NullDecimal
}

// Equal reports whether two keys identify the same position. Lines match when
// both are absent, or both present with the same numeric value. Equality is
// exact, with no tolerance: the feed and book quantize lines identically
// upstream, so 2.5 and 2.50 are equal but 2.5 and 2.75 are not.
func (k BetKey) Equal(other BetKey) bool {
	if k.MatchName != other.MatchName ||
		k.MarketType != other.MarketType ||
		k.Selection != other.Selection {
		return false
	}
	if k.Line.Valid != other.Line.Valid {
		return false
	}
	if !k.Line.Valid {
		return true
	}
	return k.Line.Decimal.Equal(other.Line.Decimal)
}

// Key derives the matching key of an opportunity.
func (o *Opportunity) Key() BetKey {
	return BetKey{
		MatchName:  o.MatchName,
		MarketType: o.MarketType,
		Selection:  o.Selection,
		Line:       o.Line,
	}
}

// Key derives the matching key of a placed bet.
func (b *PlacedBet) Key() BetKey {
	return BetKey{
		MatchName:  b.MatchName,
		MarketType: b.MarketType,
		Selection:  b.Selection,
		Line:       b.Line,
	}
}
