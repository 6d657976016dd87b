package event

import (
	"sync"

	"github.com/shopspring/decimal"
)

var priceUpdatePool = sync.Pool{
	New: func() any { return new(PriceUpdateEvent) },
}

// AcquirePriceUpdateEvent returns a zeroed event from the pool.
func AcquirePriceUpdateEvent() *PriceUpdateEvent {
	return priceUpdatePool.Get().(*PriceUpdateEvent)
}

// ReleasePriceUpdateEvent resets ev and returns it to the pool.
// ev must not be used after release.
func ReleasePriceUpdateEvent(ev *PriceUpdateEvent) {
	if ev == nil {
		return
	}
	ev.Seq = 0
	ev.Ts = 0
	ev.AssetID = ""
	ev.Price = decimal.Decimal{}
	ev.Source = ""
	priceUpdatePool.Put(ev)
}

// Warmup pre-allocates n events.
func Warmup(n int) {
	evs := make([]*PriceUpdateEvent, n)
	for i := range evs {
		evs[i] = AcquirePriceUpdateEvent()
	}
	for _, ev := range evs {
		ReleasePriceUpdateEvent(ev)
	}
}
