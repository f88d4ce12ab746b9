package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/robertof/go-tilt-logger/device"
	"github.com/robertof/go-tilt-logger/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatest_KeepsNewest(t *testing.T) {
	l := metrics.NewLatest()
	ts := time.Date(2023, 10, 1, 8, 30, 0, 0, time.UTC)

	require.NoError(t, l.Write(context.Background(), device.Reading{Time: ts, Color: device.ColorRed, Temperature: 70}))
	require.NoError(t, l.Write(context.Background(), device.Reading{Time: ts.Add(-time.Minute), Color: device.ColorRed, Temperature: 60}))
	require.NoError(t, l.Write(context.Background(), device.Reading{Time: ts, Color: device.ColorBlack, Temperature: 65}))

	got := l.Snapshot()

	assert.Len(t, got, 2)
	assert.Equal(t, uint16(70), got[device.ColorRed].Temperature)
	assert.Equal(t, uint16(65), got[device.ColorBlack].Temperature)
}

func TestCollector(t *testing.T) {
	l := metrics.NewLatest()
	reg := prometheus.NewRegistry()

	metrics.RegisterCollector(l.Snapshot, reg)

	require.NoError(t, l.Write(context.Background(), device.Reading{
		Time:        time.Now(),
		Color:       device.ColorGreen,
		Temperature: 68,
		Gravity:     1.012,
		Name:        "saison",
	}))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}

			assert.Equal(t, map[string]string{"color": "green", "name": "saison"}, labels)
			assert.NotZero(t, m.GetTimestampMs())

			values[mf.GetName()] = m.GetGauge().GetValue()
		}
	}

	assert.Equal(t, map[string]float64{
		"tilt_temperature_fahrenheit": 68,
		"tilt_specific_gravity":       1.012,
	}, values)
}
