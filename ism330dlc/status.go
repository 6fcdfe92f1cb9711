package ism330dlc

import (
	"errors"
	"fmt"
)

var (
	ErrNoBus           = fmt.Errorf("ism330dlc: no bus bound")
	ErrBus             = fmt.Errorf("ism330dlc: bus transaction failed")
	ErrUnknownDevice   = fmt.Errorf("ism330dlc: unexpected device id")
	ErrUnexpectedValue = fmt.Errorf("ism330dlc: unexpected register value")

	// ErrTimeout and ErrNotImplemented are reserved; no operation returns them yet.
	ErrTimeout        = fmt.Errorf("ism330dlc: timeout")
	ErrNotImplemented = fmt.Errorf("ism330dlc: not implemented")
)

// Status is the coarse result class of an operation.
type Status uint8

const (
	StatusOK Status = iota
	StatusError
	StatusTimeout
	StatusNotImplemented
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusError:
		return "ERROR"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusNotImplemented:
		return "NOT_IMPLEMENTED"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// StatusOf classifies an error returned by the driver.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrTimeout):
		return StatusTimeout
	case errors.Is(err, ErrNotImplemented):
		return StatusNotImplemented
	default:
		return StatusError
	}
}
