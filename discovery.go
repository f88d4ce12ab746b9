package main

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"

	"github.com/robertof/go-tilt-logger/ble"
	"github.com/robertof/go-tilt-logger/collector"
	"github.com/robertof/go-tilt-logger/device"
	"github.com/robertof/go-tilt-logger/device/tilt"
)

type discoveredTilt struct {
	reading  device.Reading
	adapters map[int]int // adapter -> best RSSI
	seen     int
}

func doDeviceDiscovery(parentCtx context.Context, handles []*ble.Handle) {
	log.Info().Msg("Starting in device discovery mode - collecting Tilts for 5 seconds...")

	ctx, cancel := context.WithTimeout(parentCtx, 5*time.Second)
	defer cancel()

	scanners := make([]collector.Scanner, len(handles))

	for i, h := range handles {
		scanners[i] = h
	}

	devices := make(map[string]*discoveredTilt)
	events, wait := collector.FanIn(ctx, scanners)

	for ev := range events {
		if ev.Kind != ble.EventKindManufacturerData {
			continue
		}

		reading, err := tilt.Parse(ev.ManufacturerData, time.Now())

		if err != nil {
			log.Trace().Err(err).Stringer("Event", ev).Msg("Not a tilt")
			continue
		}

		info, ok := devices[ev.Addr]

		if !ok {
			info = &discoveredTilt{adapters: make(map[int]int)}
			devices[ev.Addr] = info
		}

		info.reading = reading
		info.seen += 1

		if rssi, ok := info.adapters[ev.Adapter]; !ok || ev.RSSI > rssi {
			info.adapters[ev.Adapter] = ev.RSSI
		}

		log.Debug().
			Str("Addr", ev.Addr).
			Int("Adapter", ev.Adapter).
			Int("RSSI", ev.RSSI).
			Stringer("Reading", reading).
			Msg("Received tilt advertisement")
	}

	if err := wait(); err != nil {
		log.Fatal().Err(err).Msg("Failed to scan")
	}

	log.Info().Int("Found", len(devices)).Msg("Finished device discovery")

	addrs := maps.Keys(devices)
	sort.Strings(addrs)

	for _, addr := range addrs {
		info := devices[addr]
		adapters := maps.Keys(info.adapters)
		sort.Ints(adapters)

		log.Info().
			Str("Addr", addr).
			Str("Color", info.reading.Tag()).
			Uint16("Temperature", info.reading.Temperature).
			Float64("Gravity", info.reading.Gravity).
			Ints("Adapters", adapters).
			Int("Advertisements", info.seen).
			Msg("Found tilt")
	}
}
