package tilt

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
	"github.com/robertof/go-tilt-logger/device"
)

// ManufacturerID is Apple's company identifier. Tilts use iBeacon framing, so it only
// works as a coarse pre-filter; the UUID is the real signature.
const ManufacturerID uint16 = 0x004c

// MinPayloadLength covers the iBeacon header, the 16-byte UUID and the temperature and
// gravity fields.
const MinPayloadLength = 20

const colorOffset = 5

var (
	iBeaconPrefix = []byte{0x02, 0x15}

	// UUID: A4 95 BB <color> C5 B1 4B 44 B5 12 13 70 F0 2D 74 DE
	uuidPrefix = []byte{0xa4, 0x95, 0xbb}
	uuidSuffix = []byte{
		0xc5, 0xb1, 0x4b, 0x44, 0xb5, 0x12, 0x13, 0x70, 0xf0, 0x2d, 0x74, 0xde,
	}
)

// IsTiltAdvertisement reports whether payload (manufacturer data without the company ID)
// is a Tilt iBeacon frame. It never fails: anything unexpected is simply not a Tilt.
func IsTiltAdvertisement(payload []byte) bool {
	if len(payload) < MinPayloadLength {
		return false
	}

	return bytes.Equal(payload[0:2], iBeaconPrefix) &&
		bytes.Equal(payload[2:5], uuidPrefix) &&
		bytes.Equal(payload[6:18], uuidSuffix)
}

// Decode extracts a reading from a Tilt payload. Temperature and gravity are anchored to
// the end of the payload, since some firmware versions append a TX power byte.
func Decode(payload []byte, ts time.Time) (reading device.Reading, err error) {
	if !IsTiltAdvertisement(payload) {
		return reading, errors.Wrapf(device.ErrInvalidData, "tilt: not a tilt payload (%x)", payload)
	}

	color, ok := device.ColorFromCode(payload[colorOffset])

	if !ok {
		return reading, errors.Wrapf(device.ErrUnknownColor, "tilt: unexpected color code 0x%02x",
			payload[colorOffset])
	}

	n := len(payload)
	bo := binary.BigEndian

	reading.Time = ts.UTC()
	reading.Color = color
	reading.Temperature = bo.Uint16(payload[n-5:])
	reading.Gravity = float64(bo.Uint16(payload[n-3:])) / 1000.0

	return reading, nil
}

// Parse looks up the Tilt manufacturer ID in an advertisement's manufacturer data and
// decodes it.
func Parse(manufacturerData map[uint16][]byte, ts time.Time) (device.Reading, error) {
	payload, ok := manufacturerData[ManufacturerID]

	if !ok {
		return device.Reading{}, errors.Wrap(device.ErrInvalidData, "tilt: no apple manufacturer data")
	}

	return Decode(payload, ts)
}
