package protocol

import "strings"

// BitFrame is the 12-bit logical payload before pulse expansion.
// Each element is 0 or 1.
type BitFrame [BinaryLength]uint8

// setField writes value into width bits starting at offset, MSB first.
func (f *BitFrame) setField(offset, width, value int) {
	for i := 0; i < width; i++ {
		shift := width - 1 - i
		f[offset+i] = uint8((value >> shift) & 1)
	}
}

// field reads width bits starting at offset as a big-endian integer.
func (f BitFrame) field(offset, width int) int {
	v := 0
	for i := 0; i < width; i++ {
		v = v<<1 | int(f[offset+i]&1)
	}
	return v
}

// ID returns bits 0-5.
func (f BitFrame) ID() int { return f.field(IDOffset, IDBits) }

// Unit returns bits 6-9.
func (f BitFrame) Unit() int { return f.field(UnitOffset, UnitBits) }

// State returns bit 11.
func (f BitFrame) State() State {
	if f[StateBit] == 1 {
		return StateOn
	}
	return StateOff
}

// Command extracts the fields of the frame. Bit 10 is ignored.
func (f BitFrame) Command() Command {
	return Command{
		ID:    f.ID(),
		Unit:  f.Unit(),
		State: f.State(),
	}
}

// String renders the frame grouped by field, e.g. "000101 0010 0 1".
func (f BitFrame) String() string {
	var b strings.Builder
	for i, bit := range f {
		if i == UnitOffset || i == ReservedBit || i == StateBit {
			b.WriteByte(' ')
		}
		b.WriteByte('0' + bit)
	}
	return b.String()
}
