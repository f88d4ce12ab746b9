package device

import (
	"fmt"
	"time"
)

// Reading is a single decoded Tilt advertisement. Temperature is kept in the raw units
// sent by the device; Gravity is already scaled (raw / 1000).
type Reading struct {
	Time        time.Time
	Color       Color
	Temperature uint16
	Gravity     float64

	// Name is an optional, user-provided alias for the device.
	Name string
}

// Tag returns the value used for the `color` tag in storage.
func (r Reading) Tag() string {
	return r.Color.String()
}

func (r Reading) String() string {
	name := ""

	if r.Name != "" {
		name = fmt.Sprintf(",Name=%q", r.Name)
	}

	return fmt.Sprintf("Reading[Color=%v,Temperature=%d,Gravity=%.3f,Time=%v%v]",
		r.Color, r.Temperature, r.Gravity, r.Time.Format(time.RFC3339Nano), name)
}
