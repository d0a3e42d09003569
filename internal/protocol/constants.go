package protocol

// Protocol identity
const (
	ProtocolID    = "rev4_switch"
	DeviceName    = "Rev Switches v4"
	ModuleVersion = "0.9"
)

// Pulse timing constants. Lengths are in hardware units (microseconds on
// every 433 MHz driver seen so far).
const (
	// PulseLength264 and PulseLength258 are the two calibration values the
	// switches have been captured with.
	PulseLength264 = 264
	PulseLength258 = 258

	// DefaultPulseLength is used when nothing else is configured.
	DefaultPulseLength = PulseLength264

	// PulseMultiplier turns a short pulse into a long one.
	PulseMultiplier = 3

	// PulseDiv is the footer gap multiplier marking end-of-frame.
	PulseDiv = 34
)

// PulseLengths lists the calibration values in preference order.
var PulseLengths = []int{PulseLength264, PulseLength258}

// Frame layout
//
//	group:  0 1 2 3 4 5 | 6 7 8 9 | 10       | 11    | footer
//	field:  id (MSB..)  | unit    | reserved | state | u, 34u
const (
	RawLength    = 50 // pulse slots per message
	BinaryLength = 12 // bits per message
	GroupSize    = 4  // pulse slots per bit

	IDOffset   = 0
	IDBits     = 6
	UnitOffset = 6
	UnitBits   = 4

	ReservedBit = 10
	StateBit    = 11

	FooterOffset = BinaryLength * GroupSize // 48
)

// Numeric ranges. These are protocol constants and are not configurable.
const (
	MinID   = 0
	MaxID   = 1<<IDBits - 1 // 63
	MinUnit = 0
	MaxUnit = 1<<UnitBits - 1 // 15
)

// IsValidPulseLength reports whether length is one of the calibration values.
func IsValidPulseLength(length int) bool {
	for _, l := range PulseLengths {
		if l == length {
			return true
		}
	}
	return false
}
