package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robertof/go-tilt-logger/device"
)

var (
	descTemperature = prometheus.NewDesc(
		"tilt_temperature_fahrenheit",
		"Last temperature reported by the Tilt, as sent by the device.",
		[]string{"color", "name"},
		nil,
	)

	descGravity = prometheus.NewDesc(
		"tilt_specific_gravity",
		"Last specific gravity reported by the Tilt.",
		[]string{"color", "name"},
		nil,
	)
)

type CollectFunc func() map[device.Color]device.Reading

type collector struct {
	CollectFunc
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descTemperature
	ch <- descGravity
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	for color, reading := range c.CollectFunc() {
		temperature := prometheus.MustNewConstMetric(
			descTemperature,
			prometheus.GaugeValue,
			float64(reading.Temperature),
			color.String(),
			reading.Name,
		)

		ch <- prometheus.NewMetricWithTimestamp(reading.Time, temperature)

		gravity := prometheus.MustNewConstMetric(
			descGravity,
			prometheus.GaugeValue,
			reading.Gravity,
			color.String(),
			reading.Name,
		)

		ch <- prometheus.NewMetricWithTimestamp(reading.Time, gravity)
	}
}

func RegisterCollector(f CollectFunc, reg prometheus.Registerer) {
	c := &collector{f}

	reg.MustRegister(c)
}
