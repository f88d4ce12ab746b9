package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertof/go-tilt-logger/ble"
	"github.com/robertof/go-tilt-logger/collector"
	"github.com/robertof/go-tilt-logger/metrics"
	"github.com/robertof/go-tilt-logger/sink"
	"github.com/robertof/go-tilt-logger/utils"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.DurationFieldUnit = time.Second
	zerolog.TimeFieldFormat = time.RFC3339Nano

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05.000",
	})

	cfg := ParseArgs(os.Args[1:])

	if cfg.Trace || os.Getenv("TRACE") != "" {
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	} else if cfg.Debug || os.Getenv("DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx := ble.WrapContextWithSigHandler(context.WithCancel(context.Background()))
	handles := initBle(cfg)

	defer func() {
		for _, h := range handles {
			h.Stop()
		}
	}()

	if cfg.DiscoverDevices {
		doDeviceDiscovery(ctx, handles)
		return
	}

	log.Info().
		Str("BindAddr", cfg.BindAddress).
		Array("Adapters", utils.ToZeroLogArray(handles)).
		Str("InfluxDB", cfg.Influx.URL).
		Str("Bucket", cfg.Influx.Bucket).
		Bool("DryRun", cfg.DryRun).
		Dur("MinInterval", cfg.MinInterval).
		Msg("Starting with the specified configuration")

	registry := prometheus.NewRegistry()
	ble.RegisterMetrics(registry)
	collector.RegisterMetrics(registry)
	sink.RegisterMetrics(registry)

	latest := metrics.NewLatest()
	metrics.RegisterCollector(latest.Snapshot, registry)

	out, closeSink := initSink(ctx, cfg, latest)
	defer closeSink()

	if cfg.BindAddress != "" {
		go serveMetrics(cfg.BindAddress, registry)
	}

	scanners := make([]collector.Scanner, len(handles))

	for i, h := range handles {
		scanners[i] = h
	}

	events, wait := collector.FanIn(ctx, scanners)

	ingester := collector.NewIngester(out)
	ingester.Names = cfg.Names
	ingester.MinInterval = cfg.MinInterval

	ingester.Run(ctx, events)

	if err := wait(); err != nil {
		log.Error().Err(err).Msg("Scanning stopped with errors")
	}

	log.Info().Msg("Shutting down")
}

func initBle(cfg config) []*ble.Handle {
	var flags ble.Flags

	if cfg.ActiveScan {
		flags |= ble.FlagScanTypeActive
	}

	ids := cfg.Adapters

	if len(ids) == 0 {
		var err error

		if ids, err = ble.ListAdapters(); err != nil {
			log.Fatal().Err(err).Msg("Failed to enumerate Bluetooth devices")
		}
	}

	handles, err := ble.InitAll(ids, flags)

	if err != nil {
		log.Fatal().Err(err).Ints("DeviceIDs", ids).Msg("Failed to initialize Bluetooth devices")
	}

	return handles
}

func initSink(ctx context.Context, cfg config, latest *metrics.Latest) (collector.Sink, func()) {
	if cfg.DryRun {
		log.Warn().Msg("Dry run: readings will be logged and not stored")
		return sink.Multi{sink.Log{}, latest}, func() {}
	}

	influx, err := sink.NewInflux(cfg.Influx)

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up InfluxDB")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// not fatal: writes are best effort and the server may come up later.
	if err := influx.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("URL", cfg.Influx.URL).Msg("InfluxDB is not reachable")
	}

	return sink.Multi{influx, latest}, influx.Close
}

func serveMetrics(addr string, registry *prometheus.Registry) {
	log.Info().
		Str("ListenAddress", addr).
		Msg("Starting Prometheus server")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal().Err(err).Msg("Unable to bind on requested address")
	}
}
