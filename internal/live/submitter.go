package live

import (
	"context"

	"github.com/rs/zerolog"

	"short-trade-lab/internal/domain"
)

// OrderIntent describes an order the loop wants placed. Prices are
// model fills, not venue acks; a real submitter would translate this
// into venue order parameters.
type OrderIntent struct {
	SessionID string
	Symbol    string
	Side      domain.Side
	Qty       float64
	Price     float64
	Leverage  float64
	Reduce    bool
	Reason    string
	BarTime   int64
}

// OrderSubmitter receives order intents produced by the loop.
type OrderSubmitter interface {
	Submit(ctx context.Context, intent OrderIntent) error
}

// PaperSubmitter logs intents without routing them anywhere. It is
// the default submitter for paper sessions.
type PaperSubmitter struct {
	log zerolog.Logger
}

var _ OrderSubmitter = (*PaperSubmitter)(nil)

// NewPaperSubmitter creates a logging submitter.
func NewPaperSubmitter(log zerolog.Logger) *PaperSubmitter {
	return &PaperSubmitter{log: log.With().Str("component", "paper_submitter").Logger()}
}

// Submit logs the intent.
func (p *PaperSubmitter) Submit(ctx context.Context, intent OrderIntent) error {
	p.log.Info().
		Str("session_id", intent.SessionID).
		Str("symbol", intent.Symbol).
		Str("side", string(intent.Side)).
		Float64("qty", intent.Qty).
		Float64("price", intent.Price).
		Float64("leverage", intent.Leverage).
		Bool("reduce", intent.Reduce).
		Str("reason", intent.Reason).
		Int64("bar_time", intent.BarTime).
		Msg("paper order")
	return nil
}
