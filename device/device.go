package device

import (
	"errors"
)

var (
	ErrInvalidData  = errors.New("invalid data")
	ErrUnknownColor = errors.New("unknown color")
)
