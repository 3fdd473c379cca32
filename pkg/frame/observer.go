package frame

import (
	"log/slog"
	"time"
)

// Observation describes one accepted write.
type Observation struct {
	Count      uint64    // accepted count after this write
	Timestamp  time.Time // advisory client timestamp, zero if not supplied
	ReceivedAt time.Time // when the store applied the write
	Size       int       // encoded payload length in bytes
}

// Observer receives progress observations from a Store.
// Observe is called outside the store's lock and may run concurrently.
type Observer interface {
	Observe(Observation)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Observation)

// Observe calls f(o).
func (f ObserverFunc) Observe(o Observation) { f(o) }

// Nop discards every observation.
var Nop Observer = ObserverFunc(func(Observation) {})

// EveryN forwards only observations whose count is a multiple of n.
// n <= 0 disables forwarding entirely.
func EveryN(n int, next Observer) Observer {
	if n <= 0 || next == nil {
		return Nop
	}
	step := uint64(n)
	return ObserverFunc(func(o Observation) {
		if o.Count%step == 0 {
			next.Observe(o)
		}
	})
}

// Multi fans an observation out to every non-nil observer in order.
func Multi(observers ...Observer) Observer {
	list := make([]Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	return ObserverFunc(func(o Observation) {
		for _, obs := range list {
			obs.Observe(o)
		}
	})
}

// LogObserver logs each observation at info level.
func LogObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return ObserverFunc(func(o Observation) {
		latest := "unknown"
		if !o.Timestamp.IsZero() {
			latest = o.Timestamp.Local().Format(time.TimeOnly)
		}
		logger.Info("frames received",
			"count", o.Count,
			"latest", latest,
			"bytes", o.Size,
		)
	})
}
