package collector

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robertof/go-tilt-logger/ble"
	"github.com/robertof/go-tilt-logger/device"
	"github.com/robertof/go-tilt-logger/device/tilt"
	"github.com/rs/zerolog/log"
)

const (
	reasonNotManufacturerData = "not_manufacturer_data"
	reasonNotApple            = "not_apple"
	reasonNotTilt             = "not_tilt"
	reasonUnknownColor        = "unknown_color"
	reasonThrottled           = "throttled"
)

var (
	readingsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tilt_logger_readings_total",
		Help: "Tilt readings decoded and handed to the sink, per color.",
	}, []string{"color"})
	ignoredCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tilt_logger_ignored_advertisements_total",
		Help: "Advertisements that did not produce a reading, per reason.",
	}, []string{"reason"})
	sinkFailuresCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tilt_logger_sink_failures_total",
		Help: "Readings the sink refused synchronously. They are not retried.",
	})
)

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		readingsCounter,
		ignoredCounter,
		sinkFailuresCounter,
	)
}

// Sink persists readings. Failures are reported but never retried by the Ingester.
type Sink interface {
	Write(ctx context.Context, r device.Reading) error
}

// Stats summarizes a Run.
type Stats struct {
	Events       int
	Readings     int
	Ignored      int
	SinkFailures int
}

type Ingester struct {
	// Names maps a color to a user-provided alias, attached to every reading of that color.
	Names map[device.Color]string

	// If set, readings of the same color arriving less than MinInterval after the last
	// accepted one are dropped.
	MinInterval time.Duration

	// Now is the clock used to timestamp readings. Defaults to time.Now.
	Now func() time.Time

	sink     Sink
	lastSeen map[device.Color]time.Time
}

func NewIngester(sink Sink) *Ingester {
	return &Ingester{
		sink:     sink,
		Now:      time.Now,
		lastSeen: make(map[device.Color]time.Time),
	}
}

func (in *Ingester) ignore(reason string, ev ble.Event, err error) {
	ignoredCounter.WithLabelValues(reason).Inc()

	log.Trace().
		Stringer("Event", ev).
		Str("Reason", reason).
		Err(err).
		Msg("Ignoring advertisement")
}

// Decode turns an event into a reading without passing it to the sink.
func (in *Ingester) Decode(ev ble.Event) (reading device.Reading, ok bool) {
	if ev.Kind != ble.EventKindManufacturerData {
		in.ignore(reasonNotManufacturerData, ev, nil)
		return reading, false
	}

	if _, ok := ev.ManufacturerData[tilt.ManufacturerID]; !ok {
		in.ignore(reasonNotApple, ev, nil)
		return reading, false
	}

	now := time.Now
	if in.Now != nil {
		now = in.Now
	}

	reading, err := tilt.Parse(ev.ManufacturerData, now())

	switch {
	case errors.Is(err, device.ErrUnknownColor):
		in.ignore(reasonUnknownColor, ev, err)
		return reading, false
	case err != nil:
		in.ignore(reasonNotTilt, ev, err)
		return reading, false
	}

	if in.MinInterval > 0 {
		if last, ok := in.lastSeen[reading.Color]; ok && reading.Time.Sub(last) < in.MinInterval {
			in.ignore(reasonThrottled, ev, nil)
			return reading, false
		}

		if in.lastSeen == nil {
			in.lastSeen = make(map[device.Color]time.Time)
		}

		in.lastSeen[reading.Color] = reading.Time
	}

	reading.Name = in.Names[reading.Color]

	return reading, true
}

// Handle processes a single event. It returns the reading handed to the sink, if any.
// Sink failures are logged and otherwise ignored.
func (in *Ingester) Handle(ctx context.Context, ev ble.Event) (device.Reading, bool) {
	reading, ok, _ := in.handle(ctx, ev)
	return reading, ok
}

func (in *Ingester) handle(ctx context.Context, ev ble.Event) (reading device.Reading, ok bool, err error) {
	reading, ok = in.Decode(ev)

	if !ok {
		return reading, false, nil
	}

	readingsCounter.WithLabelValues(reading.Tag()).Inc()

	log.Debug().
		Stringer("Reading", reading).
		Int("Adapter", ev.Adapter).
		Str("Addr", ev.Addr).
		Int("RSSI", ev.RSSI).
		Msg("Received tilt reading")

	if err = in.sink.Write(ctx, reading); err != nil {
		sinkFailuresCounter.Inc()

		log.Warn().
			Err(err).
			Stringer("Reading", reading).
			Msg("Failed to write reading, dropping it")
	}

	return reading, true, err
}

// Run consumes events until the channel is closed. Nothing that happens to a single event
// stops the loop.
func (in *Ingester) Run(ctx context.Context, events <-chan ble.Event) (stats Stats) {
	log.Info().Msg("Ingester started")

	for ev := range events {
		stats.Events += 1

		_, ok, err := in.handle(ctx, ev)

		if ok {
			stats.Readings += 1
		} else {
			stats.Ignored += 1
		}

		if err != nil {
			stats.SinkFailures += 1
		}
	}

	log.Info().
		Int("Events", stats.Events).
		Int("Readings", stats.Readings).
		Int("Ignored", stats.Ignored).
		Int("SinkFailures", stats.SinkFailures).
		Msg("Ingester finished: event stream closed")

	return stats
}
