// Package engine is the opportunity evaluation and staking decision core:
// exposure classification against the position book, feed freshness grading,
// fractional-Kelly stake sizing, and the presentation filter pipeline. Every
// method is a pure function over the inputs it is handed, with no I/O and no
// retained state, so one Engine is safe for concurrent evaluation passes.
package engine

import (
	"github.com/rs/zerolog"
)

// Engine evaluates feed opportunities against the operator's position book
// and sizes stakes. Operator parameters (threshold, bankroll, risk fraction)
// are threaded into each call rather than held on the struct, so one Engine
// serves every request.
type Engine struct {
	logger zerolog.Logger
}

// NewEngine creates a new decision engine.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{
		logger: logger.With().Str("component", "engine").Logger(),
	}
}
