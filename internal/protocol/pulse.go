package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// PulseTrain holds the 50 pulse lengths of one message.
//
// Slots 0-47 are twelve 4-slot bit groups, slots 48-49 are the footer.
// A group encodes a bit by the position of its second long pulse:
//
//	bit 0: short long long  short
//	bit 1: short long short long
type PulseTrain [RawLength]int

// NewPulseTrain returns a fully initialized train for the given pulse
// length: group 0 carries the header marker (a "1" group), groups 1-11 are
// "0" groups and the footer is in place. Field writes only ever overwrite
// whole groups.
func NewPulseTrain(pulseLength int) PulseTrain {
	var t PulseTrain
	t.writeGroup(0, 1, pulseLength)
	for g := 1; g < BinaryLength; g++ {
		t.writeGroup(g, 0, pulseLength)
	}
	t.writeFooter(pulseLength)
	return t
}

// writeGroup fills group g with the pattern for bit.
func (t *PulseTrain) writeGroup(g int, bit uint8, u int) {
	s := g * GroupSize
	long := PulseMultiplier * u

	t[s] = u
	t[s+1] = long
	if bit == 1 {
		t[s+2] = u
		t[s+3] = long
	} else {
		t[s+2] = long
		t[s+3] = u
	}
}

// writeFooter sets the two end-of-frame slots.
func (t *PulseTrain) writeFooter(u int) {
	t[FooterOffset] = u
	t[FooterOffset+1] = PulseDiv * u
}

// Group returns the four slots of bit group g.
func (t PulseTrain) Group(g int) [GroupSize]int {
	var out [GroupSize]int
	copy(out[:], t[g*GroupSize:(g+1)*GroupSize])
	return out
}

// Footer returns slots 48 and 49.
func (t PulseTrain) Footer() [2]int {
	return [2]int{t[FooterOffset], t[FooterOffset+1]}
}

// Slice returns the pulses as a slice, the form drivers and JSON want.
func (t PulseTrain) Slice() []int {
	out := make([]int, RawLength)
	copy(out, t[:])
	return out
}

// Classify maps each slot to its timing class using pulseLength as the
// short reference.
func (t PulseTrain) Classify(pulseLength int) ClassifiedTrain {
	var c ClassifiedTrain
	for i, p := range t {
		c[i] = classifyPulse(p, pulseLength)
	}
	return c
}

// String returns the pulses space separated, as pilight prints raw codes.
func (t PulseTrain) String() string {
	parts := make([]string, len(t))
	for i, p := range t {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, " ")
}

// PulseClass is the timing class of a single pulse.
type PulseClass uint8

const (
	PulseShort PulseClass = 0 // one timing unit
	PulseLong  PulseClass = 1 // PulseMultiplier timing units or more
)

// String returns "S" or "L"
func (c PulseClass) String() string {
	if c == PulseLong {
		return "L"
	}
	return "S"
}

// ClassifiedTrain is a pulse train after timing classification, the input
// the decoder works on.
type ClassifiedTrain [RawLength]PulseClass

// String renders the classes grouped per bit, e.g. "SLSL SLLS ...".
func (c ClassifiedTrain) String() string {
	var b strings.Builder
	for i, p := range c {
		if i > 0 && i%GroupSize == 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p.String())
	}
	return b.String()
}

// classifyPulse splits short from long at the midpoint between u and 3u.
func classifyPulse(p, u int) PulseClass {
	if p >= (1+PulseMultiplier)*u/2 {
		return PulseLong
	}
	return PulseShort
}

// ClassifyPulses turns a raw capture into a ClassifiedTrain. The capture
// must be exactly RawLength pulses and pulseLength must be a calibration
// value.
func ClassifyPulses(pulses []int, pulseLength int) (ClassifiedTrain, error) {
	var c ClassifiedTrain
	if !IsValidPulseLength(pulseLength) {
		return c, newPulseLengthError(pulseLength)
	}
	if len(pulses) != RawLength {
		return c, newTrainLengthError(len(pulses))
	}
	for i, p := range pulses {
		if p <= 0 {
			return c, &CodecError{
				Type:    ErrTypeMalformedPulse,
				Field:   fmt.Sprintf("pulse[%d]", i),
				Value:   p,
				Message: "pulse length must be positive",
			}
		}
		c[i] = classifyPulse(p, pulseLength)
	}
	return c, nil
}
