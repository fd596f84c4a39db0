package efw

// nameLen is the capacity of the name field in the vendor's EFW_INFO struct
const nameLen = 64

// RawInfo mirrors the EFW_INFO struct returned by the library.  Name is a
// fixed-capacity byte buffer; bytes after the first NUL are undefined.
type RawInfo struct {
	ID    int
	Name  [nameLen]byte
	Slots int
}

// Channel is the flat function set of the EFW library.  Every call other
// than Count returns a Status; payloads are only meaningful when the Status
// is StatusSuccess.  This boundary matches the vendor SDK bit-for-bit, so
// any implementation can be swapped for the real hardware binding.
//
// The library provides no locking per id.  Callers must serialize access
// to a given wheel themselves.
type Channel interface {
	// Count reports how many filter wheels are connected right now.
	// The value is refreshed on every call and must not be cached.
	Count() int

	// IDAt returns the id of the wheel at the given enumeration index,
	// 0 <= index < Count().  The index-to-id mapping is only valid for
	// the enumeration snapshot it was read with.
	IDAt(index int) (int, Status)

	// Open establishes communication with a wheel
	Open(id int) Status

	// Close releases communication with a wheel
	Close(id int) Status

	// Info retrieves the static description of a wheel.  Slots reads as
	// zero if the wheel has not been opened.
	Info(id int) (RawInfo, Status)

	// Position reads the current 0-based position index, or -1 while the
	// wheel is rotating
	Position(id int) (int, Status)

	// SetPosition commands a rotation to a 0-based position index.  The
	// call returns before the wheel settles.
	SetPosition(id int, index int) Status

	// Direction reports whether the wheel rotates unidirectionally
	Direction(id int) (bool, Status)

	// SetDirection sets unidirectional rotation on or off
	SetDirection(id int, unidirectional bool) Status

	// Calibrate commands a recalibration.  Like SetPosition, it returns
	// before the mechanical motion completes.
	Calibrate(id int) Status

	// FirmwareVersion reads the major, minor, and build firmware numbers
	FirmwareVersion(id int) (int, int, int, Status)

	// SerialNumber reads the factory serial number
	SerialNumber(id int) (string, Status)

	// SetAlias assigns a user alias to the wheel
	SetAlias(id int, alias string) Status
}

// decodeName converts the fixed-capacity name buffer to a string, stopping
// at the first NUL byte.
func decodeName(b [nameLen]byte) string {
	for i := 0; i < len(b); i++ {
		if b[i] == 0 {
			return string(b[:i])
		}
	}
	return string(b[:])
}
