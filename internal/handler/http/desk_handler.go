package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/betdesk-service/internal/book"
	"github.com/cypherlabdev/betdesk-service/internal/cache"
	"github.com/cypherlabdev/betdesk-service/internal/models"
	"github.com/cypherlabdev/betdesk-service/internal/service"
)

// DeskHandler handles HTTP requests for the betting desk
type DeskHandler struct {
	service *service.DeskService
	logger  zerolog.Logger
}

// NewDeskHandler creates a new desk HTTP handler
func NewDeskHandler(service *service.DeskService, logger zerolog.Logger) *DeskHandler {
	return &DeskHandler{
		service: service,
		logger:  logger.With().Str("component", "desk_handler").Logger(),
	}
}

// RegisterRoutes registers HTTP routes with the provided mux
func (h *DeskHandler) RegisterRoutes(mux *http.ServeMux) {
	// GET /api/v1/opportunities - Evaluate the latest feed snapshot
	mux.HandleFunc("/api/v1/opportunities", h.handleOpportunities)

	// POST /api/v1/stake - Suggest a stake for given odds and edge
	mux.HandleFunc("/api/v1/stake", h.handleSuggestStake)

	// GET|POST /api/v1/bets - List or record bets
	mux.HandleFunc("/api/v1/bets", h.handleBets)

	// POST /api/v1/bets/:id/settle - Settle a pending bet
	mux.HandleFunc("/api/v1/bets/", h.handleSettleBet)
}

// handleOpportunities handles GET /api/v1/opportunities?min_ev=&hide_placed=
func (h *DeskHandler) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var overrides service.FilterOverrides

	if raw := r.URL.Query().Get("min_ev"); raw != "" {
		minEV, err := decimal.NewFromString(raw)
		if err != nil {
			h.errorResponse(w, http.StatusBadRequest, "invalid min_ev: must be a number")
			return
		}
		overrides.MinEVPercent = &minEV
	}

	if raw := r.URL.Query().Get("hide_placed"); raw != "" {
		hidePlaced, err := strconv.ParseBool(raw)
		if err != nil {
			h.errorResponse(w, http.StatusBadRequest, "invalid hide_placed: must be a boolean")
			return
		}
		overrides.HidePlaced = &hidePlaced
	}

	feed, err := h.service.EvaluateOpportunities(r.Context(), overrides)
	if err != nil {
		if errors.Is(err, cache.ErrNoSnapshot) {
			h.errorResponse(w, http.StatusServiceUnavailable, "feed snapshot not loaded yet")
			return
		}
		h.logger.Error().Err(err).Msg("failed to evaluate opportunities")
		h.errorResponse(w, http.StatusInternalServerError, "failed to evaluate opportunities")
		return
	}

	h.jsonResponse(w, http.StatusOK, ToOpportunitiesResponse(feed))
}

// handleSuggestStake handles POST /api/v1/stake
func (h *DeskHandler) handleSuggestStake(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req SuggestStakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !req.OfferedOdds.Valid || !req.EVPercent.Valid {
		h.errorResponse(w, http.StatusBadRequest, "offered_odds and ev_percent are required")
		return
	}

	stakeReq := service.StakeRequest{
		OfferedOdds: req.OfferedOdds.Decimal,
		EVPercent:   req.EVPercent.Decimal,
	}
	if req.Bankroll.Valid {
		if req.Bankroll.Decimal.IsNegative() {
			h.errorResponse(w, http.StatusBadRequest, "bankroll must not be negative")
			return
		}
		stakeReq.Bankroll = &req.Bankroll.Decimal
	}
	if req.RiskFraction.Valid {
		rf := req.RiskFraction.Decimal
		if rf.LessThanOrEqual(decimal.Zero) || rf.GreaterThan(decimal.NewFromInt(1)) {
			h.errorResponse(w, http.StatusBadRequest, "risk_fraction must be in (0, 1]")
			return
		}
		stakeReq.RiskFraction = &rf
	}

	suggestion := h.service.SuggestStake(stakeReq)

	h.jsonResponse(w, http.StatusOK, suggestion)
}

// handleBets dispatches GET and POST /api/v1/bets
func (h *DeskHandler) handleBets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListBets(w, r)
	case http.MethodPost:
		h.handlePlaceBet(w, r)
	default:
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleListBets handles GET /api/v1/bets
func (h *DeskHandler) handleListBets(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListBets(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list bets")
		h.errorResponse(w, http.StatusInternalServerError, "failed to list bets")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"count": len(records),
		"data":  ToBetResponses(records),
	})
}

// handlePlaceBet handles POST /api/v1/bets
func (h *DeskHandler) handlePlaceBet(w http.ResponseWriter, r *http.Request) {
	var req PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	position := models.PlacedBet{
		MatchName:  req.MatchName,
		MarketType: req.MarketType,
		Selection:  req.Selection,
		Line:       req.Line,
	}
	if err := position.Validate(); err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	one := decimal.NewFromInt(1)
	if !req.OfferedOdds.Valid || req.OfferedOdds.Decimal.LessThanOrEqual(one) {
		h.errorResponse(w, http.StatusBadRequest, "offered_odds must exceed 1")
		return
	}
	if !req.FairOdds.Valid || req.FairOdds.Decimal.LessThanOrEqual(one) {
		h.errorResponse(w, http.StatusBadRequest, "fair_odds must exceed 1")
		return
	}
	if !req.EVPercent.Valid {
		h.errorResponse(w, http.StatusBadRequest, "ev_percent is required")
		return
	}
	if !req.Stake.Valid || !req.Stake.Decimal.IsPositive() {
		h.errorResponse(w, http.StatusBadRequest, "stake must be positive")
		return
	}

	rec, err := h.service.RecordBet(r.Context(), service.RecordBetRequest{
		MatchName:   req.MatchName,
		MarketType:  req.MarketType,
		Selection:   req.Selection,
		Line:        req.Line,
		OfferedOdds: req.OfferedOdds.Decimal,
		FairOdds:    req.FairOdds.Decimal,
		EVPercent:   req.EVPercent.Decimal,
		Stake:       req.Stake.Decimal,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to record bet")
		h.errorResponse(w, http.StatusInternalServerError, "failed to record bet")
		return
	}

	h.jsonResponse(w, http.StatusCreated, rec)
}

// handleSettleBet handles POST /api/v1/bets/:id/settle
func (h *DeskHandler) handleSettleBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Parse path: /api/v1/bets/:id/settle
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/bets/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[1] != "settle" {
		h.errorResponse(w, http.StatusBadRequest, "invalid path: expected /api/v1/bets/:id/settle")
		return
	}

	id, err := uuid.Parse(parts[0])
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid bet id")
		return
	}

	var req SettleBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := models.BetStatus(req.Status)
	if !status.IsSettlement() {
		h.errorResponse(w, http.StatusBadRequest, "status must be one of won, lost, void")
		return
	}

	rec, err := h.service.SettleBet(r.Context(), id, status, req.ResultScore)
	if err != nil {
		switch {
		case errors.Is(err, book.ErrBetNotFound):
			h.errorResponse(w, http.StatusNotFound, "bet not found")
		case errors.Is(err, book.ErrAlreadySettled):
			h.errorResponse(w, http.StatusConflict, "bet already settled")
		default:
			h.logger.Error().Err(err).Str("bet_id", id.String()).Msg("failed to settle bet")
			h.errorResponse(w, http.StatusInternalServerError, "failed to settle bet")
		}
		return
	}

	h.jsonResponse(w, http.StatusOK, rec)
}

// jsonResponse writes a JSON response
func (h *DeskHandler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes a JSON error response
func (h *DeskHandler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}

// SuggestStakeRequest is the request body for a stake suggestion. Bankroll
// and risk fraction fall back to the operator defaults when omitted.
type SuggestStakeRequest struct {
	OfferedOdds  decimal.NullDecimal `json:"offered_odds"`
	EVPercent    decimal.NullDecimal `json:"ev_percent"`
	Bankroll     decimal.NullDecimal `json:"bankroll"`
	RiskFraction decimal.NullDecimal `json:"risk_fraction"`
}

// PlaceBetRequest is the request body for recording a placed bet
type PlaceBetRequest struct {
	MatchName   string              `json:"match_name"`
	MarketType  string              `json:"market_type"`
	Selection   string              `json:"selection"`
	Line        decimal.NullDecimal `json:"line"`
	OfferedOdds decimal.NullDecimal `json:"offered_odds"`
	FairOdds    decimal.NullDecimal `json:"fair_odds"`
	EVPercent   decimal.NullDecimal `json:"ev_percent"`
	Stake       decimal.NullDecimal `json:"stake"`
}

// SettleBetRequest is the request body for settling a bet
type SettleBetRequest struct {
	Status      string `json:"status"`
	ResultScore string `json:"result_score"`
}

// OpportunitiesResponse represents the API response for an evaluated feed
type OpportunitiesResponse struct {
	ReferenceTimestamp int64                         `json:"reference_timestamp"`
	Freshness          models.FreshnessTier          `json:"freshness"`
	EvaluatedAt        time.Time                     `json:"evaluated_at"`
	Count              int                           `json:"count"`
	Data               []models.EvaluatedOpportunity `json:"data"`
}

// ToOpportunitiesResponse converts an evaluated feed to API response format
func ToOpportunitiesResponse(feed *models.EvaluatedFeed) *OpportunitiesResponse {
	return &OpportunitiesResponse{
		ReferenceTimestamp: feed.ReferenceTimestamp,
		Freshness:          feed.Freshness,
		EvaluatedAt:        feed.EvaluatedAt,
		Count:              len(feed.Opportunities),
		Data:               feed.Opportunities,
	}
}

// BetResponse is a book entry as served over the API, with the realized
// profit materialized alongside the stored fields
type BetResponse struct {
	models.BetRecord
	Profit decimal.Decimal `json:"profit"`
}

// ToBetResponses converts book records to API response format
func ToBetResponses(records []models.BetRecord) []BetResponse {
	out := make([]BetResponse, len(records))
	for i, rec := range records {
		out[i] = BetResponse{BetRecord: rec, Profit: rec.Profit()}
	}
	return out
}
