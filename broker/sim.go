package broker

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rustyeddy/quantcore/market"
	"github.com/rustyeddy/quantcore/pkg/id"
)

// Sim is an in-process OrderPlacer that fills against prices the test
// or replay harness feeds it. Market and stop orders slip by SlipBps
// against the direction of the trade; limit orders fill at the quoted
// price.
type Sim struct {
	mu     sync.Mutex
	prices map[string]float64
	open   map[string]OrderRequest
	now    func() time.Time

	SlipBps float64
}

func NewSim() *Sim {
	return &Sim{
		prices: make(map[string]float64),
		open:   make(map[string]OrderRequest),
		now:    time.Now,
	}
}

// SetPrice updates the quoted price for an instrument.
func (s *Sim) SetPrice(instrument string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[instrument] = price
}

func (s *Sim) PlaceOrder(ctx context.Context, req OrderRequest) (Fill, error) {
	if err := ctx.Err(); err != nil {
		return Fill{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Lots <= 0 {
		return Fill{}, &RejectError{Instrument: req.Instrument, Reason: "lots must be positive"}
	}
	price, ok := s.prices[req.Instrument]
	if !ok {
		return Fill{}, &RejectError{Instrument: req.Instrument, Reason: "no quote"}
	}

	fillPrice := s.fillPrice(req.Instrument, price, req.Side, req.OrderType)

	orderID := id.New()
	s.open[orderID] = req

	return Fill{
		OrderID:     orderID,
		Instrument:  req.Instrument,
		FilledPrice: fillPrice,
		FilledLots:  req.Lots,
		Time:        s.now(),
	}, nil
}

func (s *Sim) CloseOrder(ctx context.Context, orderID string, reason string) (Fill, error) {
	if err := ctx.Err(); err != nil {
		return Fill{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.open[orderID]
	if !ok {
		return Fill{}, &RejectError{Instrument: orderID, Reason: "unknown order"}
	}
	price, ok := s.prices[req.Instrument]
	if !ok {
		return Fill{}, &RejectError{Instrument: req.Instrument, Reason: "no quote"}
	}
	delete(s.open, orderID)

	// Closing reverses the side, so slippage flips too.
	return Fill{
		OrderID:     orderID,
		Instrument:  req.Instrument,
		FilledPrice: s.fillPrice(req.Instrument, price, -req.Side, market.Market),
		FilledLots:  req.Lots,
		Time:        s.now(),
	}, nil
}

// OpenOrders reports how many placed orders have not been closed.
func (s *Sim) OpenOrders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}

// fillPrice applies adverse slippage and snaps to the instrument's
// tick size.
func (s *Sim) fillPrice(instrument string, price float64, side market.Side, ot market.OrderType) float64 {
	if ot != market.Limit && s.SlipBps > 0 {
		price += float64(side) * price * s.SlipBps / 10_000
	}
	if meta, ok := market.Instruments[instrument]; ok && meta.TickSize > 0 {
		price = math.Round(price/meta.TickSize) * meta.TickSize
	}
	return price
}
