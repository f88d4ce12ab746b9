package ble

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/go-ble/ble/linux/hci/cmd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

type Advertisement = ble.Advertisement

// the parts of linux.Device used by Handle.
type scanDevice interface {
	Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error
	Stop() error
}

// Handle is a single HCI adapter.
type Handle struct {
	id  int
	dev scanDevice
}

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		advertisementsCounter,
		scanErrorsCounter,
	)
}

func Init(deviceId int, flags Flags) (*Handle, error) {
	var scanType scanType = scanTypePassive

	if flags&FlagScanTypeActive == FlagScanTypeActive {
		scanType = scanTypeActive
	}

	log.Debug().
		Stringer("ScanType", scanType).
		Stringer("Flags", flags).
		Int("DeviceID", deviceId).
		Msg("Initializing Bluetooth device")

	dev, err := linux.NewDevice(
		ble.OptDeviceID(deviceId),
		ble.OptScanParams(cmd.LESetScanParameters{
			LEScanType:           uint8(scanType), // 0x00: passive, 0x01: active
			LEScanInterval:       0x0004,          // 0x0004 - 0x4000; N * 0.625msec
			LEScanWindow:         0x0004,          // 0x0004 - 0x4000; N * 0.625msec
			OwnAddressType:       0x00,            // 0x00: public, 0x01: random
			ScanningFilterPolicy: 0x00,            // 0x00: accept all
		}),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to init bluetooth device hci%d: %w", deviceId, err)
	}

	return &Handle{
		id:  deviceId,
		dev: dev,
	}, nil
}

// InitAll opens every adapter in ids. Adapters failing to initialize are logged and
// skipped; an error is returned only if none could be opened.
func InitAll(ids []int, flags Flags) ([]*Handle, error) {
	var handles []*Handle
	var lastErr error

	for _, id := range ids {
		h, err := Init(id, flags)

		if err != nil {
			log.Error().Err(err).Int("DeviceID", id).Msg("Skipping Bluetooth device")
			lastErr = err
			continue
		}

		handles = append(handles, h)
	}

	if len(handles) == 0 {
		if lastErr == nil {
			lastErr = ErrNoAdapters
		}

		return nil, lastErr
	}

	return handles, nil
}

func (h *Handle) ID() int {
	return h.id
}

func (h *Handle) String() string {
	return "hci" + strconv.Itoa(h.id)
}

func (h *Handle) Stop() {
	if err := h.dev.Stop(); err != nil {
		log.Warn().Err(err).Stringer("Adapter", h).Msg("ble: failed to stop device")
	}
}
