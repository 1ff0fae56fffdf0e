// Package ioport models the port-mapped I/O space as a bus of
// registered devices.
package ioport

// Device describes the interface an I/O-port device must implement
// regardless of what it models.
type Device interface {
	Read(port uint64, data []byte) error
	Write(port uint64, data []byte) error
	IOPort() uint64
	Size() uint64
}

// Bus routes port accesses to the registered device covering the port.
// Accesses to unclaimed ports are dropped, as real hardware would
// float them; the firmware treats that as harmless.
type Bus struct {
	devices []Device
}

func (b *Bus) Register(d Device) {
	b.devices = append(b.devices, d)
}

func (b *Bus) find(port uint64) Device {
	for _, d := range b.devices {
		if port >= d.IOPort() && port < d.IOPort()+d.Size() {
			return d
		}
	}

	return nil
}

func (b *Bus) Outb(port uint16, v uint8) error {
	d := b.find(uint64(port))
	if d == nil {
		return nil
	}

	return d.Write(uint64(port), []byte{v})
}

func (b *Bus) Outl(port uint16, v uint32) error {
	d := b.find(uint64(port))
	if d == nil {
		return nil
	}

	data := []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}

	return d.Write(uint64(port), data)
}

func (b *Bus) Inb(port uint16) (uint8, error) {
	d := b.find(uint64(port))
	if d == nil {
		return 0xff, nil
	}

	data := make([]byte, 1)
	if err := d.Read(uint64(port), data); err != nil {
		return 0xff, err
	}

	return data[0], nil
}

func (b *Bus) Inl(port uint16) (uint32, error) {
	d := b.find(uint64(port))
	if d == nil {
		return 0xffffffff, nil
	}

	data := make([]byte, 4)
	if err := d.Read(uint64(port), data); err != nil {
		return 0xffffffff, err
	}

	return uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24, nil
}
