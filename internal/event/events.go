package event

import (
	"crypto_dash/pkg/quant"

	"github.com/shopspring/decimal"
)

// Type defines the type of event.
type Type uint16

const (
	EvPriceUpdate Type = iota + 1
)

func (t Type) String() string {
	switch t {
	case EvPriceUpdate:
		return "price_update"
	default:
		return "unknown"
	}
}

// Event is the interface for all sequencer events.
type Event interface {
	GetSeq() uint64
	GetTs() quant.TimeStamp
	GetType() Type
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	Seq uint64          `json:"seq"`
	Ts  quant.TimeStamp `json:"ts"`
}

func (e BaseEvent) GetSeq() uint64         { return e.Seq }
func (e BaseEvent) GetTs() quant.TimeStamp { return e.Ts }

// PriceUpdateEvent asks the ledger to move one asset to a new price.
type PriceUpdateEvent struct {
	BaseEvent
	AssetID string          `json:"asset_id"`
	Price   decimal.Decimal `json:"price"`
	Source  string          `json:"source"`
}

func (e PriceUpdateEvent) GetType() Type { return EvPriceUpdate }
