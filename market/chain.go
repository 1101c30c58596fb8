package market

import "time"

// OptionKind is the contract right, call or put.
type OptionKind int8

const (
	Call OptionKind = iota
	Put
)

func (k OptionKind) String() string {
	if k == Put {
		return "PUT"
	}
	return "CALL"
}

// OptionQuote is one row of an option-chain snapshot.
type OptionQuote struct {
	Time         time.Time
	Underlying   string
	Strike       float64
	Expiry       time.Time
	Kind         OptionKind
	LastPrice    float64
	ImpliedVol   float64
	OpenInterest int64
}

// ChainSnapshot pairs an underlying spot with its option quotes at an
// instant. Snapshots arrive from the market-data collaborator alongside
// bars and are never mutated by the core.
type ChainSnapshot struct {
	Time       time.Time
	Underlying string
	Spot       float64
	Quotes     []OptionQuote
}

// TimeToExpiry returns the year fraction between now and expiry, floored
// at one day so same-day contracts still price.
func TimeToExpiry(expiry, now time.Time) float64 {
	years := expiry.Sub(now).Hours() / 24 / 365
	if years < 1.0/365 {
		return 1.0 / 365
	}
	return years
}
