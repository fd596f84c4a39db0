package efw

import (
	"errors"
	"testing"
	"time"
)

// stubChannel is a canned-response Channel for exercising Wheel methods in
// isolation.  Only the fields a test cares about need to be populated.
type stubChannel struct {
	ids   []int
	idS   Status
	openS Status

	info  RawInfo
	infoS Status

	// posFn is called once per Position query so tests can script a
	// settling sequence
	posFn    func(call int) (int, Status)
	posCalls int

	setS       Status
	setCalls   int
	lastSetIdx int

	closeCalls int
	closeS     []Status
}

func (c *stubChannel) Count() int { return len(c.ids) }

func (c *stubChannel) IDAt(index int) (int, Status) {
	if c.idS != StatusSuccess {
		return 0, c.idS
	}
	if index < 0 || index >= len(c.ids) {
		return 0, StatusInvalidIndex
	}
	return c.ids[index], StatusSuccess
}

func (c *stubChannel) Open(id int) Status { return c.openS }

func (c *stubChannel) Close(id int) Status {
	s := StatusSuccess
	if c.closeCalls < len(c.closeS) {
		s = c.closeS[c.closeCalls]
	}
	c.closeCalls++
	return s
}

func (c *stubChannel) Info(id int) (RawInfo, Status) { return c.info, c.infoS }

func (c *stubChannel) Position(id int) (int, Status) {
	call := c.posCalls
	c.posCalls++
	if c.posFn == nil {
		return 0, StatusSuccess
	}
	return c.posFn(call)
}

func (c *stubChannel) SetPosition(id int, index int) Status {
	c.setCalls++
	c.lastSetIdx = index
	return c.setS
}

func (c *stubChannel) Direction(id int) (bool, Status)      { return false, StatusNotSupported }
func (c *stubChannel) SetDirection(id int, uni bool) Status { return StatusNotSupported }
func (c *stubChannel) Calibrate(id int) Status              { return StatusNotSupported }
func (c *stubChannel) FirmwareVersion(id int) (int, int, int, Status) {
	return 0, 0, 0, StatusNotSupported
}
func (c *stubChannel) SerialNumber(id int) (string, Status) { return "", StatusNotSupported }
func (c *stubChannel) SetAlias(id int, alias string) Status { return StatusNotSupported }

// infoWith returns a stub info payload with the given slot count
func infoWith(slots int) RawInfo {
	ri := RawInfo{ID: 1, Slots: slots}
	copy(ri.Name[:], "EFW-test")
	return ri
}

func TestEnumerateReturnsIDsNotIndexes(t *testing.T) {
	ch := &stubChannel{ids: []int{57, 3}}
	wheels, err := Enumerate(ch)
	if err != nil {
		t.Fatal(err)
	}
	if len(wheels) != 2 {
		t.Fatalf("expected 2 wheels, got %d", len(wheels))
	}
	if wheels[0].ID() != 57 || wheels[1].ID() != 3 {
		t.Errorf("expected ids [57 3], got [%d %d]", wheels[0].ID(), wheels[1].ID())
	}
}

func TestEnumerateSurfacesIDLookupFailure(t *testing.T) {
	ch := &stubChannel{ids: []int{1}, idS: StatusGeneralError}
	_, err := Enumerate(ch)
	var derr *DeviceError
	if !errors.As(err, &derr) {
		t.Fatalf("expected a DeviceError, got %v", err)
	}
	if derr.Code != StatusGeneralError {
		t.Errorf("expected code %d, got %d", StatusGeneralError, derr.Code)
	}
}

func TestCurrentSlotMapping(t *testing.T) {
	cases := []struct {
		raw    int
		slot   int
		moving bool
	}{
		{-1, 0, true},
		{0, 1, false},
		{4, 5, false},
	}
	for _, tc := range cases {
		ch := &stubChannel{posFn: func(int) (int, Status) { return tc.raw, StatusSuccess }}
		w := NewWheel(ch, 0)
		slot, moving, err := w.CurrentSlot()
		if err != nil {
			t.Fatal(err)
		}
		if slot != tc.slot || moving != tc.moving {
			t.Errorf("raw %d: expected (%d, %v), got (%d, %v)", tc.raw, tc.slot, tc.moving, slot, moving)
		}
	}
}

func TestMovingAgreesWithCurrentSlot(t *testing.T) {
	for _, raw := range []int{-1, 2} {
		ch := &stubChannel{posFn: func(int) (int, Status) { return raw, StatusSuccess }}
		w := NewWheel(ch, 0)
		moving, err := w.Moving()
		if err != nil {
			t.Fatal(err)
		}
		_, fromSlot, err := w.CurrentSlot()
		if err != nil {
			t.Fatal(err)
		}
		if moving != fromSlot {
			t.Errorf("raw %d: Moving %v disagrees with CurrentSlot %v", raw, moving, fromSlot)
		}
	}
}

func TestMoveToOutOfRangeMakesNoDeviceCall(t *testing.T) {
	for _, slot := range []int{0, -1, 7} {
		ch := &stubChannel{info: infoWith(5)}
		w := NewWheel(ch, 0)
		err := w.MoveTo(slot)
		var rerr *SlotRangeError
		if !errors.As(err, &rerr) {
			t.Fatalf("slot %d: expected a SlotRangeError, got %v", slot, err)
		}
		if rerr.Slot != slot || rerr.Slots != 5 {
			t.Errorf("expected error to carry slot %d of 5, got %d of %d", slot, rerr.Slot, rerr.Slots)
		}
		if ch.setCalls != 0 {
			t.Errorf("slot %d: expected no SetPosition call, got %d", slot, ch.setCalls)
		}
	}
}

func TestMoveToConvertsSlotToIndex(t *testing.T) {
	ch := &stubChannel{info: infoWith(5)}
	w := NewWheel(ch, 0)
	err := w.MoveTo(3)
	if err != nil {
		t.Fatal(err)
	}
	if ch.setCalls != 1 {
		t.Fatalf("expected 1 SetPosition call, got %d", ch.setCalls)
	}
	if ch.lastSetIdx != 2 {
		t.Errorf("expected slot 3 to become index 2, got %d", ch.lastSetIdx)
	}
}

func TestSlotIndexRoundTrip(t *testing.T) {
	// moving slot s out and reading it back must reproduce s for the
	// whole valid range
	const slots = 8
	for idx := 0; idx < slots; idx++ {
		raw := idx
		ch := &stubChannel{
			info:  infoWith(slots),
			posFn: func(int) (int, Status) { return raw, StatusSuccess }}
		w := NewWheel(ch, 0)
		slot := idx + 1
		if err := w.MoveTo(slot); err != nil {
			t.Fatal(err)
		}
		if ch.lastSetIdx != idx {
			t.Errorf("slot %d: expected index %d, got %d", slot, idx, ch.lastSetIdx)
		}
		got, _, err := w.CurrentSlot()
		if err != nil {
			t.Fatal(err)
		}
		if got != slot {
			t.Errorf("index %d: expected slot %d back, got %d", idx, slot, got)
		}
	}
}

func TestMoveToAndWaitSettles(t *testing.T) {
	// the wheel reports moving for the first 5 polls, then parked at
	// index 2
	ch := &stubChannel{
		info: infoWith(5),
		posFn: func(call int) (int, Status) {
			if call < 5 {
				return -1, StatusSuccess
			}
			return 2, StatusSuccess
		}}
	w := NewWheel(ch, 0)
	w.PollInterval = time.Millisecond
	err := w.MoveToAndWait(3, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if ch.posCalls < 6 {
		t.Errorf("expected at least 6 polls, got %d", ch.posCalls)
	}
	slot, moving, err := w.CurrentSlot()
	if err != nil {
		t.Fatal(err)
	}
	if moving || slot != 3 {
		t.Errorf("expected wheel settled at slot 3, got (%d, moving=%v)", slot, moving)
	}
}

func TestMoveToAndWaitTimesOut(t *testing.T) {
	ch := &stubChannel{
		info:  infoWith(5),
		posFn: func(int) (int, Status) { return -1, StatusSuccess }}
	w := NewWheel(ch, 42)
	w.PollInterval = time.Millisecond
	timeout := 20 * time.Millisecond
	start := time.Now()
	err := w.MoveToAndWait(3, timeout)
	elapsed := time.Since(start)
	var terr *SettleTimeoutError
	if !errors.As(err, &terr) {
		t.Fatalf("expected a SettleTimeoutError, got %v", err)
	}
	if terr.ID != 42 || terr.Slot != 3 || terr.Timeout != timeout {
		t.Errorf("expected error to carry (42, 3, %v), got (%d, %d, %v)", timeout, terr.ID, terr.Slot, terr.Timeout)
	}
	if elapsed < timeout {
		t.Errorf("returned after %v, before the %v timeout", elapsed, timeout)
	}
	if elapsed > 10*timeout {
		t.Errorf("returned after %v, much later than the %v timeout", elapsed, timeout)
	}
}

func TestMoveToAndWaitDefaultTimeout(t *testing.T) {
	ch := &stubChannel{
		info:  infoWith(5),
		posFn: func(int) (int, Status) { return -1, StatusSuccess }}
	w := NewWheel(ch, 0)
	w.PollInterval = time.Millisecond
	w.MoveTimeout = 10 * time.Millisecond
	err := w.MoveToAndWait(3, 0)
	var terr *SettleTimeoutError
	if !errors.As(err, &terr) {
		t.Fatalf("expected a SettleTimeoutError, got %v", err)
	}
	if terr.Timeout != w.MoveTimeout {
		t.Errorf("expected the wheel's MoveTimeout %v, got %v", w.MoveTimeout, terr.Timeout)
	}
}

func TestOpenUnknownID(t *testing.T) {
	ch := &stubChannel{openS: StatusInvalidID}
	w := NewWheel(ch, 99)
	err := w.Open()
	var derr *DeviceError
	if !errors.As(err, &derr) {
		t.Fatalf("expected a DeviceError, got %v", err)
	}
	if derr.Code != StatusInvalidID {
		t.Errorf("expected code %d, got %d", StatusInvalidID, derr.Code)
	}
}

func TestDoubleCloseIsANoOp(t *testing.T) {
	ch := &stubChannel{closeS: []Status{StatusSuccess, StatusClosed}}
	w := NewWheel(ch, 0)
	if err := w.Close(); err != nil {
		t.Fatal("first close:", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal("second close:", err)
	}
	if ch.closeCalls != 2 {
		t.Errorf("expected 2 close calls, got %d", ch.closeCalls)
	}
}

func TestInfoCachesOnlyNonzeroSlots(t *testing.T) {
	ch := &stubChannel{info: infoWith(0)}
	w := NewWheel(ch, 0)
	info, err := w.Info()
	if err != nil {
		t.Fatal(err)
	}
	if info.Slots != 0 {
		t.Fatalf("expected 0 slots before open, got %d", info.Slots)
	}
	// the wheel is opened, the SDK now reports the real count
	ch.info = infoWith(8)
	info, err = w.Info()
	if err != nil {
		t.Fatal(err)
	}
	if info.Slots != 8 {
		t.Fatalf("expected a re-query to see 8 slots, got %d", info.Slots)
	}
	// nonzero counts are cached, later reads do not hit the device
	ch.info = infoWith(9)
	info, err = w.Info()
	if err != nil {
		t.Fatal(err)
	}
	if info.Slots != 8 {
		t.Errorf("expected the cached 8 slots, got %d", info.Slots)
	}
}

func TestDecodeNameStopsAtFirstNul(t *testing.T) {
	var b [nameLen]byte
	copy(b[:], "EFW-8x1.25")
	// bytes after the NUL are undefined, make sure they are ignored
	copy(b[len("EFW-8x1.25")+1:], "garbage")
	name := decodeName(b)
	if name != "EFW-8x1.25" {
		t.Errorf("expected EFW-8x1.25, got %q", name)
	}
}

func TestDecodeNameFullBuffer(t *testing.T) {
	var b [nameLen]byte
	for i := range b {
		b[i] = 'a'
	}
	name := decodeName(b)
	if len(name) != nameLen {
		t.Errorf("expected a %d byte name, got %d", nameLen, len(name))
	}
}
