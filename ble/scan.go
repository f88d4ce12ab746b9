package ble

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-ble/ble"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robertof/go-tilt-logger/utils"
	"github.com/rs/zerolog/log"
)

var (
	advertisementsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tilt_logger_ble_advertisements_total",
		Help: "Advertisements received, per adapter.",
	}, []string{"adapter"})
	scanErrorsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tilt_logger_ble_scan_errors_total",
		Help: "Scans that terminated with an error, per adapter.",
	}, []string{"adapter"})
)

func WrapContextWithSigHandler(ctx context.Context, cancel func()) context.Context {
	return ble.WithSigHandler(ctx, cancel)
}

// Scan runs an unfiltered scan (duplicates included, since Tilts advertise continuously)
// until ctx is done, converting every advertisement into an Event. Cancellation is not
// reported as an error.
//
// go-ble dispatches every advertising report on its own goroutine. Scan calls onEvent
// serially, but the order is only as good as the scheduling of those goroutines. onEvent
// is never called once Scan has returned.
func (h *Handle) Scan(ctx context.Context, onEvent func(Event)) error {
	adapter := h.String()
	counter := advertisementsCounter.WithLabelValues(adapter)

	var mu sync.Mutex
	stopped := false

	log.Info().Stringer("Adapter", h).Msg("ble: starting scan")

	err := h.dev.Scan(ctx, true, func(a Advertisement) {
		ev := EventFromAdvertisement(h.id, a)

		mu.Lock()
		defer mu.Unlock()

		// the BLE lib could send an advertisement even after `Scan()` returns.
		if stopped {
			return
		}

		counter.Inc()

		if e := log.Trace(); e.Enabled() {
			e.Stringer("Adapter", h).
				Str("Addr", ev.Addr).
				Stringer("Kind", ev.Kind).
				Int("RSSI", ev.RSSI).
				Msg("ble: received advertisement")
		}

		onEvent(ev)
	})

	mu.Lock()
	stopped = true
	mu.Unlock()

	if err == nil || utils.ErrorIsAnyOf(err, context.Canceled, context.DeadlineExceeded) {
		log.Debug().Stringer("Adapter", h).Msg("ble: scan stopped")
		return nil
	}

	scanErrorsCounter.WithLabelValues(adapter).Inc()

	return fmt.Errorf("scan on %v failed: %w", h, err)
}
