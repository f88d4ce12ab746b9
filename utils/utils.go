package utils

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrorIsAnyOf reports whether err matches any of targets according to errors.Is.
func ErrorIsAnyOf(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

// ToZeroLogArray logs a list of adapters, scanners, etc. by their String() form.
func ToZeroLogArray[T fmt.Stringer](items []T) *zerolog.Array {
	arr := zerolog.Arr()

	for _, item := range items {
		arr = arr.Str(item.String())
	}

	return arr
}
