// Package efw provides control of ZWO EFW motorized filter wheels.
//
// The package speaks to the wheels through a Channel, which has the same
// shape as the vendor's EFW SDK.  Build with the efwsdk tag to get the cgo
// binding to libEFWFilter; NewSim returns a software wheel for development
// and tests.  Slots are 1-indexed, matching the labels printed on the
// physical wheel; the 0-indexed positions of the SDK are an implementation
// detail and never escape this package.
package efw

import (
	"fmt"
	"time"
)

const (
	// DefaultPollInterval is the cadence used to poll for settling during
	// a blocking move
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultMoveTimeout is the deadline for a blocking move when the
	// caller does not supply one
	DefaultMoveTimeout = 10 * time.Second

	// posMoving is the position index the library reports while the wheel
	// is rotating
	posMoving = -1
)

// DeviceInfo is the static description of a filter wheel.  Slots is zero if
// the description was read before the wheel was opened; re-query after Open
// if that matters to you.
type DeviceInfo struct {
	// ID is the id of the wheel, the same one used to open it.  It is
	// stable for the life of the connection but is not the enumeration
	// index.
	ID int `json:"id"`

	// Name is the model name reported by the wheel
	Name string `json:"name"`

	// Slots is the number of filter slots in the wheel
	Slots int `json:"slots"`
}

// Wheel is a single EFW filter wheel.  It is not safe for concurrent use;
// the underlying library has no per-id locking, so callers with multiple
// logical actors must serialize access to each wheel themselves.
type Wheel struct {
	ch Channel
	id int

	info DeviceInfo

	// PollInterval is the cadence used to poll for settling in
	// MoveToAndWait
	PollInterval time.Duration

	// MoveTimeout is the deadline used by MoveToAndWait when the caller
	// passes a nonpositive timeout
	MoveTimeout time.Duration
}

// NewWheel returns a Wheel bound to the given channel and id.  The id must
// come from Enumerate; enumeration indexes are not ids.
func NewWheel(ch Channel, id int) *Wheel {
	return &Wheel{
		ch:           ch,
		id:           id,
		PollInterval: DefaultPollInterval,
		MoveTimeout:  DefaultMoveTimeout}
}

// Enumerate scans for connected filter wheels and returns a Wheel for each.
// The result is a snapshot; wheels may come and go between calls.  The
// returned wheels are not opened.
func Enumerate(ch Channel) ([]*Wheel, error) {
	n := ch.Count()
	wheels := make([]*Wheel, 0, n)
	for i := 0; i < n; i++ {
		id, s := ch.IDAt(i)
		if err := StatusError(s); err != nil {
			return nil, err
		}
		wheels = append(wheels, NewWheel(ch, id))
	}
	return wheels, nil
}

// ID returns the id of the wheel
func (w *Wheel) ID() int {
	return w.id
}

// Open establishes communication with the wheel.  Open a given id once;
// reopening an already-open wheel is vendor-defined behavior.
func (w *Wheel) Open() error {
	return StatusError(w.ch.Open(w.id))
}

// Close releases communication with the wheel.  Closing a wheel that was
// never opened is a no-op success, so Close can sit in a defer on every
// exit path without special casing.
func (w *Wheel) Close() error {
	s := w.ch.Close(w.id)
	if s == StatusClosed {
		return nil
	}
	return StatusError(s)
}

// Info returns the static description of the wheel.  The description is
// cached after the first read that sees a nonzero slot count; the SDK
// reports zero slots for wheels that are not open yet, and a cached zero
// would poison every later range check.
func (w *Wheel) Info() (DeviceInfo, error) {
	if w.info.Slots != 0 {
		return w.info, nil
	}
	ri, s := w.ch.Info(w.id)
	if err := StatusError(s); err != nil {
		return DeviceInfo{}, err
	}
	w.info = DeviceInfo{ID: ri.ID, Name: decodeName(ri.Name), Slots: ri.Slots}
	return w.info, nil
}

// Name returns the model name of the wheel
func (w *Wheel) Name() (string, error) {
	info, err := w.Info()
	return info.Name, err
}

// Slots returns the number of filter slots in the wheel
func (w *Wheel) Slots() (int, error) {
	info, err := w.Info()
	return info.Slots, err
}

// CurrentSlot returns the slot the wheel is parked at, 1-indexed.  While
// the wheel is rotating, moving is true and the slot is zero.  This is a
// single round-trip and never blocks on the mechanics.
func (w *Wheel) CurrentSlot() (slot int, moving bool, err error) {
	idx, s := w.ch.Position(w.id)
	if err := StatusError(s); err != nil {
		return 0, false, err
	}
	if idx == posMoving {
		return 0, true, nil
	}
	return idx + 1, false, nil
}

// Moving reports whether the wheel is rotating.  It is defined purely in
// terms of CurrentSlot so the two signals cannot diverge.
func (w *Wheel) Moving() (bool, error) {
	_, moving, err := w.CurrentSlot()
	return moving, err
}

// MoveTo commands a rotation to the given 1-indexed slot and returns
// immediately; the wheel settles asynchronously and the caller polls
// CurrentSlot or Moving to observe arrival.  A slot outside [1, Slots]
// fails with a *SlotRangeError before any command reaches the wheel.
func (w *Wheel) MoveTo(slot int) error {
	info, err := w.Info()
	if err != nil {
		return err
	}
	if slot < 1 || slot > info.Slots {
		return &SlotRangeError{Slot: slot, Slots: info.Slots}
	}
	return StatusError(w.ch.SetPosition(w.id, slot-1))
}

// MoveToAndWait commands a rotation to the given 1-indexed slot and blocks
// until the wheel settles, polling every PollInterval.  A nonpositive
// timeout means MoveTimeout.  On expiry the error is a *SettleTimeoutError
// and the wheel keeps moving; only the waiting stops.
func (w *Wheel) MoveToAndWait(slot int, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = w.MoveTimeout
	}
	err := w.MoveTo(slot)
	if err != nil {
		return err
	}
	start := time.Now() // time.Since is monotonic, wall clock steps do not bite
	for {
		moving, err := w.Moving()
		if err != nil {
			return err
		}
		if !moving {
			return nil
		}
		if time.Since(start) > timeout {
			return &SettleTimeoutError{ID: w.id, Slot: slot, Timeout: timeout}
		}
		time.Sleep(w.PollInterval)
	}
}

// GetDirection reports whether the wheel is in unidirectional rotation mode
func (w *Wheel) GetDirection() (bool, error) {
	uni, s := w.ch.Direction(w.id)
	if err := StatusError(s); err != nil {
		return false, err
	}
	return uni, nil
}

// SetDirection sets unidirectional rotation mode on or off
func (w *Wheel) SetDirection(unidirectional bool) error {
	return StatusError(w.ch.SetDirection(w.id, unidirectional))
}

// Calibrate commands a recalibration.  The wheel reports moving until the
// calibration completes, so MoveToAndWait-style polling applies.
func (w *Wheel) Calibrate() error {
	return StatusError(w.ch.Calibrate(w.id))
}

// FirmwareVersion returns the firmware version as "major.minor.build"
func (w *Wheel) FirmwareVersion() (string, error) {
	major, minor, build, s := w.ch.FirmwareVersion(w.id)
	if err := StatusError(s); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d.%d.%d", major, minor, build), nil
}

// SerialNumber returns the factory serial number of the wheel
func (w *Wheel) SerialNumber() (string, error) {
	sn, s := w.ch.SerialNumber(w.id)
	if err := StatusError(s); err != nil {
		return "", err
	}
	return sn, nil
}

// SetAlias assigns a user alias to the wheel
func (w *Wheel) SetAlias(alias string) error {
	return StatusError(w.ch.SetAlias(w.id, alias))
}
