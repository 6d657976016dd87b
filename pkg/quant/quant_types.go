package quant

import (
	"strconv"
	"sync/atomic"
	"time"
)

// TimeStamp represents Unix Microseconds.
type TimeStamp int64

// Now returns the current wall clock as a TimeStamp.
func Now() TimeStamp {
	return FromTime(time.Now())
}

// FromTime converts a time.Time to TimeStamp.
func FromTime(t time.Time) TimeStamp {
	return TimeStamp(t.UnixMicro())
}

// Time converts the TimeStamp back to a UTC time.Time.
func (ts TimeStamp) Time() time.Time {
	return time.UnixMicro(int64(ts)).UTC()
}

// NextSeq generates the next sequence number atomically.
func NextSeq(ptr *uint64) uint64 {
	return atomic.AddUint64(ptr, 1)
}

// ParseTimeStamp converts a string (ms) to TimeStamp (micros).
func ParseTimeStamp(s string) (TimeStamp, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return TimeStamp(ms * 1000), nil
}
