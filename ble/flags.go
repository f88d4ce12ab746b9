package ble

import (
	"strconv"
	"strings"
)

type Flags int

const (
	// Run active scans rather than passive scans (requiring explicit responses from peripherals).
	FlagScanTypeActive Flags = 1 << iota
)

func (f Flags) String() string {
	var flags []string

	if f&FlagScanTypeActive == FlagScanTypeActive {
		flags = append(flags, "active scan")
	}

	if len(flags) == 0 {
		return "none"
	}

	return strings.Join(flags, ", ")
}

type scanType uint8

const (
	scanTypePassive scanType = iota
	scanTypeActive
)

func (s scanType) String() string {
	switch s {
	case scanTypeActive:
		return "Active"
	case scanTypePassive:
		return "Passive"
	default:
		panic("unknown scanType value: " + strconv.Itoa(int(s)))
	}
}
