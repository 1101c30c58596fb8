// Package broker defines the order-placement collaborator the live
// wrapper talks to. The core never assumes a request fills at the
// requested price; every acted-on decision waits for a fill
// confirmation or a typed failure.
package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/quantcore/market"
)

// OrderRequest is an approved trade handed to the broker.
type OrderRequest struct {
	Instrument string
	Side       market.Side
	Lots       int
	OrderType  market.OrderType
	Price      float64 // limit/stop reference, ignored for market orders
	Stop       float64
	Target     float64
}

// Fill is the broker's confirmation. FilledLots may be less than
// requested on a partial fill.
type Fill struct {
	OrderID     string
	Instrument  string
	FilledPrice float64
	FilledLots  int
	Time        time.Time
}

// RejectError reports an order the broker refused.
type RejectError struct {
	Instrument string
	Reason     string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("broker rejected %s order: %s", e.Instrument, e.Reason)
}

// OrderPlacer places orders and closes open ones.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (Fill, error)
	CloseOrder(ctx context.Context, orderID string, reason string) (Fill, error)
}
