// Package pmtimer models the ACPI power management timer: a free
// running 24-bit counter clocked at 3.579545 MHz, readable from the
// port announced by the FADT.
package pmtimer

import (
	"encoding/binary"
	"time"

	"github.com/firmcore/fwtables/log"
)

const (
	// Frequency is fixed by the ACPI specification.
	Frequency = 3579545

	counterMask = 0xffffff
)

type Timer struct {
	port  uint64
	epoch time.Time
	now   func() time.Time
}

func New() *Timer {
	return &Timer{now: time.Now}
}

// Setup records the timer port from the FADT. Called at most once per
// boot; a zero port never reaches here.
func (t *Timer) Setup(port uint32) {
	t.port = uint64(port)
	t.epoch = t.now()
	log.Debugf("pmtimer at port %#x", port)
}

// Configured reports whether the FADT announced a timer port.
func (t *Timer) Configured() bool {
	return t.port != 0
}

func (t *Timer) ticks() uint32 {
	elapsed := t.now().Sub(t.epoch)

	return uint32(elapsed.Nanoseconds()*Frequency/int64(time.Second)) & counterMask
}

// Read implements ioport.Device.
func (t *Timer) Read(port uint64, data []byte) error {
	var buf [4]byte

	binary.LittleEndian.PutUint32(buf[:], t.ticks())
	copy(data, buf[:])

	return nil
}

// Write implements ioport.Device. The counter is read-only.
func (t *Timer) Write(port uint64, data []byte) error {
	return nil
}

func (t *Timer) IOPort() uint64 {
	return t.port
}

func (t *Timer) Size() uint64 {
	return 4
}
