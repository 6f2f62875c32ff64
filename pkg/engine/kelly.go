package engine

import (
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/betdesk-service/internal/models"
)

// SuggestStake converts offered odds, EV, bankroll and a risk fraction into a
// fractional-Kelly stake suggestion:
//
//	b        = offeredOdds - 1
//	full     = (evPercent / 100) / b
//	adjusted = full * riskFraction
//	stake    = round(bankroll * adjusted)
//
// Offered odds at or below 1 carry no Kelly signal and resolve to an all-zero
// suggestion rather than an error. Negative EV yields a negative stake, read
// as "no bet". The stake is rounded to whole units and not capped at any
// fraction of bankroll.
func (e *Engine) SuggestStake(params models.StakeParams) models.StakeSuggestion {
	netOdds := params.OfferedOdds.Sub(decimal.NewFromInt(1))
	if netOdds.LessThanOrEqual(decimal.Zero) {
		return models.StakeSuggestion{
			NetOdds:           netOdds,
			FullKellyFraction: decimal.Zero,
			AdjustedFraction:  decimal.Zero,
			SuggestedStake:    decimal.Zero,
		}
	}

	evDecimal := params.EVPercent.Div(decimal.NewFromInt(100))
	fullKelly := evDecimal.Div(netOdds)
	adjusted := fullKelly.Mul(params.RiskFraction)
	stake := params.Bankroll.Mul(adjusted).Round(0)

	return models.StakeSuggestion{
		NetOdds:           netOdds,
		FullKellyFraction: fullKelly,
		AdjustedFraction:  adjusted,
		SuggestedStake:    stake,
	}
}
