// Package wheel provides an HTTP interface to motorized filter wheels
package wheel

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/osastro/efw-server/generichttp"
	"github.com/osastro/efw-server/util"
)

// SlotMover is the minimum interface of a filter wheel: it knows how many
// slots it has, where it is, and how to go somewhere else.  Slots are
// 1-indexed, matching the labels on the hardware.
type SlotMover interface {
	// Slots returns the number of filter slots
	Slots() (int, error)

	// CurrentSlot returns the current slot, or moving=true while the
	// wheel is rotating
	CurrentSlot() (int, bool, error)

	// Moving reports whether the wheel is rotating
	Moving() (bool, error)

	// MoveTo commands a move and returns without waiting for settling
	MoveTo(int) error

	// MoveToAndWait commands a move and blocks until the wheel settles
	// or the timeout elapses; a nonpositive timeout means the wheel's
	// default
	MoveToAndWait(int, time.Duration) error
}

// Identifier is a wheel that can describe itself
type Identifier interface {
	// ID returns the id of the wheel
	ID() int

	// Name returns the model name of the wheel
	Name() (string, error)

	// Slots returns the number of filter slots
	Slots() (int, error)
}

// Directioner is a wheel with a controllable rotation direction policy
type Directioner interface {
	// GetDirection reports whether rotation is unidirectional
	GetDirection() (bool, error)

	// SetDirection sets unidirectional rotation on or off
	SetDirection(bool) error
}

// Calibrator is a wheel that can recalibrate itself
type Calibrator interface {
	Calibrate() error
}

// FirmwareVersioner is a wheel that can report its firmware version
type FirmwareVersioner interface {
	FirmwareVersion() (string, error)
}

// SerialNumberer is a wheel with a factory serial number and a writable
// user alias
type SerialNumberer interface {
	SerialNumber() (string, error)
	SetAlias(string) error
}

// slotPayload is the json representation of a position; Slot is null while
// the wheel is moving
type slotPayload struct {
	Slot   *int `json:"slot"`
	Moving bool `json:"moving"`
}

// infoPayload is the json representation of a wheel's description
type infoPayload struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Slots int    `json:"slots"`
}

// GetSlot returns an HTTP handler func that reports the current slot,
// or null with moving: true while the wheel is rotating
func GetSlot(sm SlotMover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot, moving, err := sm.CurrentSlot()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		p := slotPayload{Moving: moving}
		if !moving {
			p.Slot = &slot
		}
		w.Header().Set("Content-Type", "application/json")
		err = json.NewEncoder(w).Encode(p)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// SetSlot returns an HTTP handler func that commands a move from a
// json {'int': slot} body.  The wait query parameter selects blocking
// behavior and timeout gives the deadline in seconds.
func SetSlot(sm SlotMover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i := generichttp.IntT{}
		err := json.NewDecoder(r.Body).Decode(&i)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q := r.URL.Query()
		waitS := q.Get("wait")
		if waitS == "" {
			waitS = "false"
		}
		wait, err := strconv.ParseBool(waitS)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var timeout time.Duration
		if tS := q.Get("timeout"); tS != "" {
			tSec, err := strconv.ParseFloat(tS, 64)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			timeout = util.SecsToDuration(tSec)
		}
		if wait {
			err = sm.MoveToAndWait(i.Int, timeout)
		} else {
			err = sm.MoveTo(i.Int)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// GetInfo returns an HTTP handler func that reports the wheel's
// description
func GetInfo(id Identifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := id.Name()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		slots, err := id.Slots()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		err = json.NewEncoder(w).Encode(infoPayload{ID: id.ID(), Name: name, Slots: slots})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// Calibrate returns an HTTP handler func that starts a recalibration
func Calibrate(c Calibrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := c.Calibrate()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// HTTPSlot adds slot and motion routes to the route table
func HTTPSlot(sm SlotMover, table generichttp.RouteTable) {
	table[generichttp.MethodPath{Method: http.MethodGet, Path: "/slot"}] = GetSlot(sm)
	table[generichttp.MethodPath{Method: http.MethodPost, Path: "/slot"}] = SetSlot(sm)
	table[generichttp.MethodPath{Method: http.MethodGet, Path: "/slots"}] = generichttp.GetInt(sm.Slots)
	table[generichttp.MethodPath{Method: http.MethodGet, Path: "/moving"}] = generichttp.GetBool(sm.Moving)
}

// HTTPIdentify adds the info route to the route table
func HTTPIdentify(id Identifier, table generichttp.RouteTable) {
	table[generichttp.MethodPath{Method: http.MethodGet, Path: "/info"}] = GetInfo(id)
}

// HTTPDirection adds direction routes to the route table
func HTTPDirection(d Directioner, table generichttp.RouteTable) {
	table[generichttp.MethodPath{Method: http.MethodGet, Path: "/direction"}] = generichttp.GetBool(d.GetDirection)
	table[generichttp.MethodPath{Method: http.MethodPost, Path: "/direction"}] = generichttp.SetBool(d.SetDirection)
}

// HTTPCalibrate adds the calibrate route to the route table
func HTTPCalibrate(c Calibrator, table generichttp.RouteTable) {
	table[generichttp.MethodPath{Method: http.MethodPost, Path: "/calibrate"}] = Calibrate(c)
}

// HTTPFirmware adds the firmware version route to the route table
func HTTPFirmware(f FirmwareVersioner, table generichttp.RouteTable) {
	table[generichttp.MethodPath{Method: http.MethodGet, Path: "/firmware-version"}] = generichttp.GetString(f.FirmwareVersion)
}

// HTTPSerialNumber adds serial number and alias routes to the route table
func HTTPSerialNumber(s SerialNumberer, table generichttp.RouteTable) {
	table[generichttp.MethodPath{Method: http.MethodGet, Path: "/serial-number"}] = generichttp.GetString(s.SerialNumber)
	table[generichttp.MethodPath{Method: http.MethodPost, Path: "/serial-number"}] = generichttp.SetString(s.SetAlias)
}

// HTTPWheel wraps a filter wheel in an HTTP interface
type HTTPWheel struct {
	Wheel SlotMover

	RouteTable generichttp.RouteTable
}

// NewHTTPWheel returns a new HTTP wrapper with the route table
// pre-configured.  Optional capabilities of the wheel are discovered with
// interface upgrades and bound only when present.
func NewHTTPWheel(sm SlotMover) HTTPWheel {
	h := HTTPWheel{Wheel: sm}
	rt := generichttp.RouteTable{}
	HTTPSlot(sm, rt)
	if id, ok := interface{}(sm).(Identifier); ok {
		HTTPIdentify(id, rt)
	}
	if d, ok := interface{}(sm).(Directioner); ok {
		HTTPDirection(d, rt)
	}
	if c, ok := interface{}(sm).(Calibrator); ok {
		HTTPCalibrate(c, rt)
	}
	if f, ok := interface{}(sm).(FirmwareVersioner); ok {
		HTTPFirmware(f, rt)
	}
	if s, ok := interface{}(sm).(SerialNumberer); ok {
		HTTPSerialNumber(s, rt)
	}
	h.RouteTable = rt
	return h
}

// RT satisfies the generichttp.HTTPer interface
func (h HTTPWheel) RT() generichttp.RouteTable {
	return h.RouteTable
}
