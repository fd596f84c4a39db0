package efw

import (
	"fmt"
	"time"
)

// Status is a result code returned by every call into the EFW library.
// The values match the EFW_ERROR_CODE enum in the vendor's EFW_filter.h
// and must not be reordered.
type Status int

const (
	// StatusEnd is the vendor's end-of-enum marker, never returned by a call
	StatusEnd Status = iota - 1

	// StatusSuccess indicates the call completed without error
	StatusSuccess

	// StatusInvalidIndex indicates an enumeration index out of range
	StatusInvalidIndex

	// StatusInvalidID indicates an id that does not belong to any wheel
	StatusInvalidID

	// StatusInvalidValue indicates a parameter the wheel rejected
	StatusInvalidValue

	// StatusRemoved indicates the wheel is no longer physically present
	StatusRemoved

	// StatusMoving indicates the wheel is rotating
	StatusMoving

	// StatusErrorState indicates the wheel is in an error state
	StatusErrorState

	// StatusGeneralError is the vendor's catch-all failure
	StatusGeneralError

	// StatusNotSupported indicates the firmware lacks the operation
	StatusNotSupported

	// StatusClosed indicates communication to the wheel is not open
	StatusClosed
)

// statusText maps Status codes to the friendly strings from the vendor manual
var statusText = map[Status]string{
	StatusEnd:          "end of status codes",
	StatusSuccess:      "no error",
	StatusInvalidIndex: "invalid enumeration index",
	StatusInvalidID:    "invalid filter wheel ID",
	StatusInvalidValue: "invalid parameter value",
	StatusRemoved:      "filter wheel not found, it may have been removed",
	StatusMoving:       "filter wheel is moving",
	StatusErrorState:   "filter wheel is in an error state",
	StatusGeneralError: "general error",
	StatusNotSupported: "operation not supported by this firmware",
	StatusClosed:       "filter wheel is not open",
}

func (s Status) String() string {
	if str, ok := statusText[s]; ok {
		return str
	}
	return "UNKNOWN STATUS CODE"
}

// DeviceError is a non-success Status dressed up as an error.  The code is
// preserved verbatim for diagnostics.
type DeviceError struct {
	Code Status
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("efw: %d - %s", int(e.Code), e.Code)
}

// StatusError converts a Status to something that implements the error
// interface.  Success maps to nil, everything else to a *DeviceError.
func StatusError(s Status) error {
	if s == StatusSuccess {
		return nil
	}
	return &DeviceError{Code: s}
}

// SlotRangeError is returned when a move is requested to a slot outside
// [1, Slots].  No call is made to the wheel when this is returned.
type SlotRangeError struct {
	Slot  int
	Slots int
}

func (e *SlotRangeError) Error() string {
	return fmt.Sprintf("efw: slot %d out of range [1, %d]", e.Slot, e.Slots)
}

// SettleTimeoutError is returned when a wheel does not report a settled
// position within the wait deadline.  The physical move is not stopped;
// the wheel may still arrive later.
type SettleTimeoutError struct {
	ID      int
	Slot    int
	Timeout time.Duration
}

func (e *SettleTimeoutError) Error() string {
	return fmt.Sprintf("efw: filter wheel %d did not reach slot %d within %v", e.ID, e.Slot, e.Timeout)
}
