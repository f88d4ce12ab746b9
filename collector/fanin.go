package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robertof/go-tilt-logger/ble"
	"github.com/robertof/go-tilt-logger/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Scanner is a source of advertisement events, typically one Bluetooth adapter. Scan blocks
// until ctx is done or the scanner fails. Events are delivered in the order onEvent is
// called; for ble.Handle that is arrival order only as far as go-ble keeps it.
type Scanner interface {
	Scan(ctx context.Context, onEvent func(ble.Event)) error
	String() string
}

// FanIn starts every scanner and merges their events into a single channel. Events from
// the same scanner keep their relative order; events from different scanners are
// interleaved as they arrive.
//
// The returned channel is closed once all the scanners have returned (immediately when
// there are none). wait blocks until then and returns the scanners' errors.
func FanIn(ctx context.Context, scanners []Scanner) (events <-chan ble.Event, wait func() error) {
	// not errgroup.WithContext: a failing adapter must not stop the others.
	var eg errgroup.Group
	out := make(chan ble.Event, len(scanners)*16)
	errs := make([]error, len(scanners))

	log.Debug().
		Array("Scanners", utils.ToZeroLogArray(scanners)).
		Msg("Starting scanners")

	for i, scanner := range scanners {
		i, scanner := i, scanner

		// scanners may still call onEvent after Scan returns; those events are dropped so
		// nothing is sent on out after it is closed.
		var mu sync.RWMutex
		stopped := false

		eg.Go(func() error {
			err := scanner.Scan(ctx, func(ev ble.Event) {
				mu.RLock()
				defer mu.RUnlock()

				if stopped {
					return
				}

				select {
				case out <- ev:
				case <-ctx.Done():
				}
			})

			mu.Lock()
			stopped = true
			mu.Unlock()

			if err != nil {
				log.Error().Err(err).Stringer("Scanner", scanner).Msg("Scanner stopped with an error")
				errs[i] = fmt.Errorf("%v: %w", scanner, err)
			} else {
				log.Debug().Stringer("Scanner", scanner).Msg("Scanner finished")
			}

			return nil
		})
	}

	done := make(chan struct{})

	go func() {
		eg.Wait()
		close(out)
		close(done)
	}()

	return out, func() error {
		<-done
		return errors.Join(errs...)
	}
}
