package device

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// DeviceSpec is a `key=value,key=value` description of a device given on the command line.
type DeviceSpec map[string]string

const (
	DeviceSpecFieldName  = "name"
	DeviceSpecFieldColor = "color"
)

func NewDeviceSpec(s string) DeviceSpec {
	spec := DeviceSpec{}
	entries := strings.Split(s, ",")

	for _, entry := range entries {
		parts := strings.SplitN(entry, "=", 2)

		if len(parts) != 2 {
			log.Warn().Str("Entry", entry).Msg("Skipping invalid device spec entry")
			continue
		}

		spec[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}

	return spec
}

func (ds DeviceSpec) Name() string {
	return ds[DeviceSpecFieldName]
}

func (ds DeviceSpec) Color() (Color, error) {
	c, ok := ds[DeviceSpecFieldColor]

	if !ok {
		return 0, fmt.Errorf("missing required field %q", DeviceSpecFieldColor)
	}

	return ParseColor(c)
}
