package sink

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robertof/go-tilt-logger/device"
	"github.com/rs/zerolog/log"
)

const (
	Measurement = "tilt"

	DefaultBucket        = "brewery"
	DefaultFlushInterval = time.Second
)

var writeFailuresCounter = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "tilt_logger_write_failures_total",
	Help: "Batches the time-series database failed to store. Readings in them are lost.",
})

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(writeFailuresCounter)
}

type InfluxOptions struct {
	URL string

	// For InfluxDB 1.x, Token is `username:password` and Bucket is `database[/retention]`.
	Token  string
	Org    string
	Bucket string

	BatchSize     uint
	FlushInterval time.Duration
}

// the non-blocking subset of api.WriteAPI.
type pointWriter interface {
	WritePoint(point *write.Point)
	Flush()
	Errors() <-chan error
}

// Influx writes readings to InfluxDB without waiting for the result: points are batched
// and flushed in the background, failures are logged and counted but never retried.
type Influx struct {
	client influxdb2.Client
	writer pointWriter

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func NewInflux(opts InfluxOptions) (*Influx, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("influx: missing server URL")
	}

	if opts.Bucket == "" {
		opts.Bucket = DefaultBucket
	}

	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultFlushInterval
	}

	clientOpts := influxdb2.DefaultOptions().
		SetFlushInterval(uint(opts.FlushInterval.Milliseconds())).
		SetPrecision(time.Millisecond)

	if opts.BatchSize > 0 {
		clientOpts.SetBatchSize(opts.BatchSize)
	}

	log.Debug().
		Str("URL", opts.URL).
		Str("Org", opts.Org).
		Str("Bucket", opts.Bucket).
		Dur("FlushInterval", opts.FlushInterval).
		Msg("influx: creating client")

	client := influxdb2.NewClientWithOptions(opts.URL, opts.Token, clientOpts)

	return newInflux(client, client.WriteAPI(opts.Org, opts.Bucket)), nil
}

func newInflux(client influxdb2.Client, writer pointWriter) *Influx {
	i := &Influx{
		client: client,
		writer: writer,
		done:   make(chan struct{}),
	}

	go i.drainErrors()

	return i
}

func (i *Influx) drainErrors() {
	defer close(i.done)

	for err := range i.writer.Errors() {
		writeFailuresCounter.Inc()
		log.Warn().Err(err).Msg("influx: write failed, readings dropped")
	}
}

// Ping checks that the server is reachable.
func (i *Influx) Ping(ctx context.Context) error {
	ok, err := i.client.Ping(ctx)

	if err != nil {
		return fmt.Errorf("influx: ping failed: %w", err)
	}

	if !ok {
		return fmt.Errorf("influx: server is not ready")
	}

	return nil
}

func Point(r device.Reading) *write.Point {
	tags := map[string]string{
		"color": r.Tag(),
	}

	if r.Name != "" {
		tags["name"] = r.Name
	}

	return write.NewPoint(
		Measurement,
		tags,
		map[string]interface{}{
			"temp": int64(r.Temperature),
			"sg":   r.Gravity,
		},
		r.Time,
	)
}

func (i *Influx) Write(_ context.Context, r device.Reading) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return ErrClosed
	}

	i.writer.WritePoint(Point(r))

	return nil
}

// Close flushes pending points and releases the client.
func (i *Influx) Close() {
	i.mu.Lock()

	if i.closed {
		i.mu.Unlock()
		return
	}

	i.closed = true
	i.mu.Unlock()

	log.Debug().Msg("influx: flushing pending writes")

	i.writer.Flush()

	if i.client != nil {
		i.client.Close()
	}

	select {
	case <-i.done:
	case <-time.After(2 * time.Second):
		log.Warn().Msg("influx: timed out waiting for pending write errors")
	}
}
