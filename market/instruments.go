package market

// InstrumentClass distinguishes the cost and tax treatment of a contract.
type InstrumentClass int8

const (
	IndexOption InstrumentClass = iota
	StockOption
	Future
)

func (c InstrumentClass) String() string {
	switch c {
	case StockOption:
		return "STOCK_OPTION"
	case Future:
		return "FUTURE"
	default:
		return "INDEX_OPTION"
	}
}

// IsOption reports whether sell-side-only transaction tax applies.
func (c InstrumentClass) IsOption() bool {
	return c == IndexOption || c == StockOption
}

type InstrumentMeta struct {
	Name     string
	Class    InstrumentClass
	LotSize  int
	TickSize float64
}

// Instruments holds contract metadata for the instruments the core knows
// about. External collaborators may register more at run start.
var Instruments = map[string]InstrumentMeta{
	"NIFTY": {
		Name:     "NIFTY",
		Class:    IndexOption,
		LotSize:  50,
		TickSize: 0.05,
	},
	"BANKNIFTY": {
		Name:     "BANKNIFTY",
		Class:    IndexOption,
		LotSize:  15,
		TickSize: 0.05,
	},
	"FINNIFTY": {
		Name:     "FINNIFTY",
		Class:    IndexOption,
		LotSize:  40,
		TickSize: 0.05,
	},
	"NIFTY_FUT": {
		Name:     "NIFTY_FUT",
		Class:    Future,
		LotSize:  50,
		TickSize: 0.05,
	},
}

// LotSize returns the lot size for an instrument, defaulting to 1 for
// unknown instruments so unregistered contracts degrade to unit lots.
func LotSize(instrument string) int {
	if meta, ok := Instruments[instrument]; ok {
		return meta.LotSize
	}
	return 1
}
