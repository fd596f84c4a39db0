//go:build efwsdk
// +build efwsdk

package efw

/*
#cgo LDFLAGS: -lEFWFilter
#include <stdlib.h>
#include <stdbool.h>
#include "EFW_filter.h"
*/
import "C"
import (
	"fmt"
	"unsafe"
)

// SDKChannel is the cgo binding to libEFWFilter.  The library holds one
// process-wide session table, so there is no state to carry here beyond the
// type itself; construct one explicitly and pass it to Enumerate so the
// ownership is visible in the program rather than hidden in a global.
type SDKChannel struct{}

// NewSDKChannel returns a Channel backed by the vendor library
func NewSDKChannel() (Channel, error) {
	return SDKChannel{}, nil
}

func (SDKChannel) Count() int {
	return int(C.EFWGetNum())
}

func (SDKChannel) IDAt(index int) (int, Status) {
	var id C.int
	s := C.EFWGetID(C.int(index), &id)
	return int(id), Status(s)
}

func (SDKChannel) Open(id int) Status {
	return Status(C.EFWOpen(C.int(id)))
}

func (SDKChannel) Close(id int) Status {
	return Status(C.EFWClose(C.int(id)))
}

func (SDKChannel) Info(id int) (RawInfo, Status) {
	var ci C.EFW_INFO
	s := C.EFWGetProperty(C.int(id), &ci)
	ri := RawInfo{ID: int(ci.ID), Slots: int(ci.slotNum)}
	for i := 0; i < nameLen; i++ {
		ri.Name[i] = byte(ci.Name[i])
	}
	return ri, Status(s)
}

func (SDKChannel) Position(id int) (int, Status) {
	var pos C.int
	s := C.EFWGetPosition(C.int(id), &pos)
	return int(pos), Status(s)
}

func (SDKChannel) SetPosition(id int, index int) Status {
	return Status(C.EFWSetPosition(C.int(id), C.int(index)))
}

func (SDKChannel) Direction(id int) (bool, Status) {
	var uni C.bool
	s := C.EFWGetDirection(C.int(id), &uni)
	return bool(uni), Status(s)
}

func (SDKChannel) SetDirection(id int, unidirectional bool) Status {
	return Status(C.EFWSetDirection(C.int(id), C.bool(unidirectional)))
}

func (SDKChannel) Calibrate(id int) Status {
	return Status(C.EFWCalibrate(C.int(id)))
}

func (SDKChannel) FirmwareVersion(id int) (int, int, int, Status) {
	var major, minor, build C.uchar
	s := C.EFWGetFirmwareVersion(C.int(id), &major, &minor, &build)
	return int(major), int(minor), int(build), Status(s)
}

func (SDKChannel) SerialNumber(id int) (string, Status) {
	var sn C.EFW_SN
	s := C.EFWGetSerialNumber(C.int(id), &sn)
	// 8 raw bytes, conventionally shown as hex
	buf := C.GoBytes(unsafe.Pointer(&sn.id[0]), 8)
	return fmt.Sprintf("%X", buf), Status(s)
}

func (SDKChannel) SetAlias(id int, alias string) Status {
	var cid C.EFW_ID
	for i := 0; i < len(alias) && i < 8; i++ {
		cid.id[i] = C.uchar(alias[i])
	}
	return Status(C.EFWSetID(C.int(id), cid))
}
