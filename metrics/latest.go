package metrics

import (
	"context"
	"sync"

	"github.com/robertof/go-tilt-logger/device"
)

// Latest keeps the last reading of every color. It is a sink, so it can be fed by the
// ingester alongside the database.
type Latest struct {
	mu       sync.Mutex
	readings map[device.Color]device.Reading
}

func NewLatest() *Latest {
	return &Latest{
		readings: make(map[device.Color]device.Reading),
	}
}

func (l *Latest) Write(_ context.Context, r device.Reading) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if prev, ok := l.readings[r.Color]; ok && prev.Time.After(r.Time) {
		return nil
	}

	l.readings[r.Color] = r

	return nil
}

// Snapshot returns a copy of the stored readings.
func (l *Latest) Snapshot() map[device.Color]device.Reading {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[device.Color]device.Reading, len(l.readings))

	for c, r := range l.readings {
		out[c] = r
	}

	return out
}
