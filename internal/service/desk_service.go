package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/betdesk-service/internal/models"
	"github.com/cypherlabdev/betdesk-service/pkg/engine"
)

// StakingDefaults holds the operator-level staking and filter parameters.
// Requests may override individual values per call.
type StakingDefaults struct {
	Bankroll     decimal.Decimal
	RiskFraction decimal.Decimal
	MinEVPercent decimal.Decimal
	HidePlaced   bool
}

// FilterOverrides carries optional per-request filter overrides. Nil fields
// fall back to the operator defaults.
type FilterOverrides struct {
	MinEVPercent *decimal.Decimal
	HidePlaced   *bool
}

// StakeRequest carries the inputs for a stake suggestion. Bankroll and
// RiskFraction fall back to the operator defaults when nil.
type StakeRequest struct {
	OfferedOdds  decimal.Decimal
	EVPercent    decimal.Decimal
	Bankroll     *decimal.Decimal
	RiskFraction *decimal.Decimal
}

// RecordBetRequest carries the fields of a bet the operator placed with the
// bookmaker and wants tracked in the book.
type RecordBetRequest struct {
	MatchName   string
	MarketType  string
	Selection   string
	Line        decimal.NullDecimal
	OfferedOdds decimal.Decimal
	FairOdds    decimal.Decimal
	EVPercent   decimal.Decimal
	Stake       decimal.Decimal
}

// DeskService orchestrates feed evaluation, stake sizing and the position book
type DeskService struct {
	engine   *engine.Engine
	cache    FeedCache
	book     BetBook
	defaults StakingDefaults
	logger   zerolog.Logger
}

// NewDeskService creates a new desk service
func NewDeskService(
	engine *engine.Engine,
	cache FeedCache,
	book BetBook,
	defaults StakingDefaults,
	logger zerolog.Logger,
) *DeskService {
	return &DeskService{
		engine:   engine,
		cache:    cache,
		book:     book,
		defaults: defaults,
		logger:   logger.With().Str("component", "desk_service").Logger(),
	}
}

// EvaluateOpportunities loads the latest feed snapshot and the position book
// and runs one evaluation pass over them.
func (s *DeskService) EvaluateOpportunities(ctx context.Context, overrides FilterOverrides) (*models.EvaluatedFeed, error) {
	snap, err := s.cache.GetSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed snapshot: %w", err)
	}

	records, err := s.book.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load position book: %w", err)
	}

	positions := make([]models.PlacedBet, len(records))
	for i := range records {
		positions[i] = records[i].Position()
	}

	params := models.FilterParams{
		MinEVPercent: s.defaults.MinEVPercent,
		HidePlaced:   s.defaults.HidePlaced,
	}
	if overrides.MinEVPercent != nil {
		params.MinEVPercent = *overrides.MinEVPercent
	}
	if overrides.HidePlaced != nil {
		params.HidePlaced = *overrides.HidePlaced
	}

	feed := s.engine.EvaluateFeed(*snap, positions, params, time.Now().UTC())

	s.logger.Debug().
		Int("snapshot_count", len(snap.Opportunities)).
		Int("result_count", len(feed.Opportunities)).
		Int("book_size", len(positions)).
		Str("freshness", string(feed.Freshness)).
		Msg("evaluated opportunities")

	return &feed, nil
}

// SuggestStake computes a stake suggestion, using the operator defaults for
// any parameter the request leaves unset.
func (s *DeskService) SuggestStake(req StakeRequest) models.StakeSuggestion {
	params := models.StakeParams{
		OfferedOdds:  req.OfferedOdds,
		EVPercent:    req.EVPercent,
		Bankroll:     s.defaults.Bankroll,
		RiskFraction: s.defaults.RiskFraction,
	}
	if req.Bankroll != nil {
		params.Bankroll = *req.Bankroll
	}
	if req.RiskFraction != nil {
		params.RiskFraction = *req.RiskFraction
	}

	suggestion := s.engine.SuggestStake(params)

	s.logger.Info().
		Str("offered_odds", params.OfferedOdds.String()).
		Str("ev_percent", params.EVPercent.String()).
		Str("bankroll", params.Bankroll.String()).
		Str("risk_fraction", params.RiskFraction.String()).
		Str("suggested_stake", suggestion.SuggestedStake.String()).
		Msg("suggested stake")

	return suggestion
}

// RecordBet records a bet the operator placed with the bookmaker
func (s *DeskService) RecordBet(ctx context.Context, req RecordBetRequest) (*models.BetRecord, error) {
	rec := &models.BetRecord{
		ID:          uuid.New(),
		MatchName:   req.MatchName,
		MarketType:  req.MarketType,
		Selection:   req.Selection,
		Line:        req.Line,
		OfferedOdds: req.OfferedOdds,
		FairOdds:    req.FairOdds,
		EVPercent:   req.EVPercent,
		Stake:       req.Stake,
		Status:      models.BetStatusPending,
		PlacedAt:    time.Now().UTC(),
	}

	if err := s.book.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to record bet: %w", err)
	}

	s.logger.Info().
		Str("bet_id", rec.ID.String()).
		Str("match_name", rec.MatchName).
		Str("market_type", rec.MarketType).
		Str("selection", rec.Selection).
		Str("stake", rec.Stake.String()).
		Msg("recorded bet")

	return rec, nil
}

// ListBets returns every recorded bet, newest first
func (s *DeskService) ListBets(ctx context.Context) ([]models.BetRecord, error) {
	records, err := s.book.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}

	s.logger.Debug().
		Int("count", len(records)).
		Msg("listed bets")

	return records, nil
}

// SettleBet moves a pending bet to its final status
func (s *DeskService) SettleBet(ctx context.Context, id uuid.UUID, status models.BetStatus, resultScore string) (*models.BetRecord, error) {
	rec, err := s.book.Settle(ctx, id, status, resultScore)
	if err != nil {
		return nil, fmt.Errorf("failed to settle bet: %w", err)
	}

	s.logger.Info().
		Str("bet_id", id.String()).
		Str("status", string(status)).
		Str("profit", rec.Profit().String()).
		Msg("settled bet")

	return rec, nil
}
