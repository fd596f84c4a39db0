package efw

import (
	"fmt"
	"sync"
	"time"
)

// simWheel is the state of one simulated filter wheel
type simWheel struct {
	name           string
	slots          int
	open           bool
	pos            int
	target         int
	settleAt       time.Time
	unidirectional bool
	alias          string
	serial         string
}

// Sim is an in-memory Channel that behaves like the EFW library without any
// hardware attached.  Moves settle after SettleTime.  The zero value is not
// useful; use NewSim and AddWheel.
type Sim struct {
	sync.Mutex

	// SettleTime is how long a commanded move reports -1 before parking
	SettleTime time.Duration

	wheels map[int]*simWheel
	order  []int
}

// NewSim returns a Sim with no wheels attached and a 500ms settle time
func NewSim() *Sim {
	return &Sim{
		SettleTime: 500 * time.Millisecond,
		wheels:     map[int]*simWheel{}}
}

// AddWheel attaches a simulated wheel with the given id, model name, and
// slot count.  The wheel starts closed and parked at slot 1.
func (s *Sim) AddWheel(id int, name string, slots int) {
	s.Lock()
	defer s.Unlock()
	s.wheels[id] = &simWheel{
		name:   name,
		slots:  slots,
		serial: fmt.Sprintf("SIM%08d", id)}
	s.order = append(s.order, id)
}

// RemoveWheel detaches a simulated wheel, as if it were unplugged
func (s *Sim) RemoveWheel(id int) {
	s.Lock()
	defer s.Unlock()
	delete(s.wheels, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Sim) Count() int {
	s.Lock()
	defer s.Unlock()
	return len(s.order)
}

func (s *Sim) IDAt(index int) (int, Status) {
	s.Lock()
	defer s.Unlock()
	if index < 0 || index >= len(s.order) {
		return 0, StatusInvalidIndex
	}
	return s.order[index], StatusSuccess
}

func (s *Sim) Open(id int) Status {
	s.Lock()
	defer s.Unlock()
	w, ok := s.wheels[id]
	if !ok {
		return StatusInvalidID
	}
	w.open = true
	return StatusSuccess
}

func (s *Sim) Close(id int) Status {
	s.Lock()
	defer s.Unlock()
	w, ok := s.wheels[id]
	if !ok {
		return StatusInvalidID
	}
	if !w.open {
		return StatusClosed
	}
	w.open = false
	return StatusSuccess
}

func (s *Sim) Info(id int) (RawInfo, Status) {
	s.Lock()
	defer s.Unlock()
	w, ok := s.wheels[id]
	if !ok {
		return RawInfo{}, StatusInvalidID
	}
	ri := RawInfo{ID: id}
	copy(ri.Name[:], w.name)
	if w.open {
		// the real library reports zero slots until the wheel is opened
		ri.Slots = w.slots
	}
	return ri, StatusSuccess
}

func (s *Sim) Position(id int) (int, Status) {
	s.Lock()
	defer s.Unlock()
	w, ok := s.wheels[id]
	if !ok {
		return 0, StatusInvalidID
	}
	if !w.open {
		return 0, StatusClosed
	}
	if time.Now().Before(w.settleAt) {
		return posMoving, StatusSuccess
	}
	w.pos = w.target
	return w.pos, StatusSuccess
}

func (s *Sim) SetPosition(id int, index int) Status {
	s.Lock()
	defer s.Unlock()
	w, ok := s.wheels[id]
	if !ok {
		return StatusInvalidID
	}
	if !w.open {
		return StatusClosed
	}
	if index < 0 || index >= w.slots {
		return StatusInvalidValue
	}
	if index == w.pos && !time.Now().Before(w.settleAt) {
		return StatusSuccess
	}
	w.target = index
	w.settleAt = time.Now().Add(s.SettleTime)
	return StatusSuccess
}

func (s *Sim) Direction(id int) (bool, Status) {
	s.Lock()
	defer s.Unlock()
	w, ok := s.wheels[id]
	if !ok {
		return false, StatusInvalidID
	}
	return w.unidirectional, StatusSuccess
}

func (s *Sim) SetDirection(id int, unidirectional bool) Status {
	s.Lock()
	defer s.Unlock()
	w, ok := s.wheels[id]
	if !ok {
		return StatusInvalidID
	}
	w.unidirectional = unidirectional
	return StatusSuccess
}

func (s *Sim) Calibrate(id int) Status {
	s.Lock()
	defer s.Unlock()
	w, ok := s.wheels[id]
	if !ok {
		return StatusInvalidID
	}
	if !w.open {
		return StatusClosed
	}
	w.target = 0
	w.settleAt = time.Now().Add(s.SettleTime)
	return StatusSuccess
}

func (s *Sim) FirmwareVersion(id int) (int, int, int, Status) {
	s.Lock()
	defer s.Unlock()
	if _, ok := s.wheels[id]; !ok {
		return 0, 0, 0, StatusInvalidID
	}
	return 3, 0, 1, StatusSuccess
}

func (s *Sim) SerialNumber(id int) (string, Status) {
	s.Lock()
	defer s.Unlock()
	w, ok := s.wheels[id]
	if !ok {
		return "", StatusInvalidID
	}
	return w.serial, StatusSuccess
}

func (s *Sim) SetAlias(id int, alias string) Status {
	s.Lock()
	defer s.Unlock()
	w, ok := s.wheels[id]
	if !ok {
		return StatusInvalidID
	}
	w.alias = alias
	return StatusSuccess
}
