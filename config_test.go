package main

import (
	"testing"
	"time"

	"github.com/robertof/go-tilt-logger/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs_FromEnvironment(t *testing.T) {
	t.Setenv("INFLUXDB_URL", "http://influx:8086")
	t.Setenv("INFLUXDB_TOKEN", "brewer:hops")

	cfg, err := parseArgs(nil)
	require.NoError(t, err)

	assert.Equal(t, "http://influx:8086", cfg.Influx.URL)
	assert.Equal(t, "brewer:hops", cfg.Influx.Token)
	assert.Equal(t, "brewery", cfg.Influx.Bucket)
	assert.Equal(t, "localhost:9102", cfg.BindAddress)
	assert.Empty(t, cfg.Adapters)
	assert.Equal(t, time.Second, cfg.Influx.FlushInterval)
}

func TestParseArgs_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("INFLUXDB_URL", "http://influx:8086")

	cfg, err := parseArgs([]string{
		"--influxdb-url", "http://other:8086",
		"--influxdb-bucket", "cellar/autogen",
		"--adapter", "0", "--adapter", "2",
		"--tilt", "color=red,name=ipa",
		"--tilt", "color=Pink, name=cider",
		"--min-interval", "30s",
		"--bind", "",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://other:8086", cfg.Influx.URL)
	assert.Equal(t, "cellar/autogen", cfg.Influx.Bucket)
	assert.Equal(t, []int{0, 2}, cfg.Adapters)
	assert.Equal(t, 30*time.Second, cfg.MinInterval)
	assert.Equal(t, "", cfg.BindAddress)
	assert.Equal(t, map[device.Color]string{
		device.ColorRed:  "ipa",
		device.ColorPink: "cider",
	}, cfg.Names)
}

func TestParseArgs_MissingDatabaseURL(t *testing.T) {
	t.Setenv("INFLUXDB_URL", "")

	_, err := parseArgs(nil)
	assert.ErrorIs(t, err, ErrMissingDatabaseURL)

	// not needed when nothing is written.
	_, err = parseArgs([]string{"--dry-run"})
	assert.NoError(t, err)

	_, err = parseArgs([]string{"--discover"})
	assert.NoError(t, err)
}

func TestParseArgs_InvalidTilt(t *testing.T) {
	t.Setenv("INFLUXDB_URL", "http://influx:8086")

	_, err := parseArgs([]string{"--tilt", "color=mauve,name=x"})
	assert.Error(t, err)

	_, err = parseArgs([]string{"--tilt", "color=red"})
	assert.Error(t, err)
}
