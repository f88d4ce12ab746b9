package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/robertof/go-tilt-logger/device"
	"github.com/robertof/go-tilt-logger/sink"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var ErrMissingDatabaseURL = errors.New("the InfluxDB URL is required (set INFLUXDB_URL or --influxdb-url)")

type config struct {
	Debug, Trace    bool
	BindAddress     string
	DiscoverDevices bool
	DryRun          bool
	ActiveScan      bool
	Adapters        []int
	MinInterval     time.Duration
	Influx          sink.InfluxOptions
	Names           map[device.Color]string
}

// boundTiltNames collects `--tilt color=red,name=ipa` flags.
type boundTiltNames struct {
	names *map[device.Color]string
}

func (b *boundTiltNames) String() string {
	if b.names == nil || *b.names == nil {
		return ""
	}

	var entries []string

	for c, name := range *b.names {
		entries = append(entries, c.String()+"="+name)
	}

	sort.Strings(entries)

	return strings.Join(entries, ";")
}

func (b *boundTiltNames) Set(v string) error {
	ds := device.NewDeviceSpec(v)

	color, err := ds.Color()
	if err != nil {
		return fmt.Errorf("invalid tilt spec %q: %w", v, err)
	}

	if ds.Name() == "" {
		return fmt.Errorf("invalid tilt spec %q: missing name", v)
	}

	if *b.names == nil {
		*b.names = make(map[device.Color]string)
	}

	(*b.names)[color] = ds.Name()

	return nil
}

func (b *boundTiltNames) Type() string {
	return "spec"
}

func parseArgs(args []string) (cfg config, err error) {
	fs := pflag.NewFlagSet("tilt-logger", pflag.ContinueOnError)
	v := viper.New()

	fs.StringVar(&cfg.BindAddress, "bind", "localhost:9102",
		"Where the Prometheus metrics endpoint will bind to (empty to disable)")
	fs.IntSliceVar(&cfg.Adapters, "adapter", nil,
		"Bluetooth (HCI) device IDs to scan with. Defaults to all the available adapters")
	fs.BoolVar(&cfg.ActiveScan, "active-scan", false, "Run active scans instead of passive ones")
	fs.BoolVar(&cfg.DiscoverDevices, "discover", false, "Discover Tilt devices for 5 seconds and quit")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Log readings instead of writing them to InfluxDB")
	fs.DurationVar(&cfg.MinInterval, "min-interval", 0,
		"Minimum time between two stored readings of the same Tilt (0 stores everything)")
	fs.DurationVar(&cfg.Influx.FlushInterval, "flush-interval", sink.DefaultFlushInterval,
		"How often buffered readings are written to InfluxDB")
	fs.Var(&boundTiltNames{names: &cfg.Names}, "tilt",
		"Name a Tilt in the form of `color=red,name=ipa`. Can be repeated")
	fs.BoolVar(&cfg.Debug, "debug", false, "Enable debug logs")
	fs.BoolVar(&cfg.Trace, "trace", false, "Enable trace logs")

	fs.String("influxdb-url", "", "InfluxDB server URL (env: INFLUXDB_URL)")
	fs.String("influxdb-token", "", "InfluxDB token, `user:password` for 1.x (env: INFLUXDB_TOKEN)")
	fs.String("influxdb-org", "", "InfluxDB organization (env: INFLUXDB_ORG)")
	fs.String("influxdb-bucket", sink.DefaultBucket, "InfluxDB bucket or `database/retention` for 1.x (env: INFLUXDB_BUCKET)")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	for _, key := range []string{"url", "token", "org", "bucket"} {
		if err := v.BindPFlag("influxdb."+key, fs.Lookup("influxdb-"+key)); err != nil {
			return cfg, fmt.Errorf("failed to bind flag: %w", err)
		}

		if err := v.BindEnv("influxdb."+key, "INFLUXDB_"+strings.ToUpper(key)); err != nil {
			return cfg, fmt.Errorf("failed to bind environment: %w", err)
		}
	}

	cfg.Influx.URL = v.GetString("influxdb.url")
	cfg.Influx.Token = v.GetString("influxdb.token")
	cfg.Influx.Org = v.GetString("influxdb.org")
	cfg.Influx.Bucket = v.GetString("influxdb.bucket")

	return cfg, cfg.validate()
}

func (c config) validate() error {
	if c.MinInterval < 0 {
		return fmt.Errorf("--min-interval must not be negative")
	}

	if c.Influx.URL == "" && !c.DiscoverDevices && !c.DryRun {
		return ErrMissingDatabaseURL
	}

	return nil
}

func ParseArgs(args []string) config {
	cfg, err := parseArgs(args)

	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	return cfg
}
