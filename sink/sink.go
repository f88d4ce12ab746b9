package sink

import (
	"context"
	"errors"

	"github.com/robertof/go-tilt-logger/device"
	"github.com/rs/zerolog/log"
)

var ErrClosed = errors.New("sink is closed")

type Sink interface {
	Write(ctx context.Context, r device.Reading) error
}

// Multi writes every reading to all of its sinks, even if some of them fail.
type Multi []Sink

func (m Multi) Write(ctx context.Context, r device.Reading) error {
	var errs []error

	for _, s := range m {
		if err := s.Write(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Log only logs readings. Used for dry runs.
type Log struct{}

func (Log) Write(_ context.Context, r device.Reading) error {
	log.Info().
		Str("Color", r.Tag()).
		Str("Name", r.Name).
		Uint16("Temperature", r.Temperature).
		Float64("Gravity", r.Gravity).
		Time("Time", r.Time).
		Msg("tilt")

	return nil
}
