package protocol

import (
	"go.uber.org/zap"

	"github.com/muurk/rev4switch/internal/logging"
)

// Encoding is the result of encoding one command. Command is echoed back
// for confirmation and logging.
type Encoding struct {
	Command Command    `json:"message"`
	Frame   BitFrame   `json:"-"`
	Pulses  PulseTrain `json:"pulses"`
}

// Encoder expands commands into pulse trains. It is immutable once built
// and may be shared.
type Encoder struct {
	// PulseLength is the timing unit, one of PulseLengths.
	PulseLength int

	// LegacyStateEncoding reproduces the pilight rev4_switch plugin, which
	// always sends a "1" group in the state slot regardless of on/off.
	// Receivers decoding such a train see every command as "on". Only enable this to match
	// hardware that has been verified against legacy captures.
	LegacyStateEncoding bool
}

// NewEncoder returns an encoder for pulseLength.
func NewEncoder(pulseLength int) (*Encoder, error) {
	if !IsValidPulseLength(pulseLength) {
		return nil, newPulseLengthError(pulseLength)
	}
	return &Encoder{PulseLength: pulseLength}, nil
}

// Encode expands a validated command. It never fails: range checks belong
// to Validate.
func (e *Encoder) Encode(c Command) Encoding {
	u := e.PulseLength
	frame := c.Frame()
	if e.LegacyStateEncoding {
		frame[StateBit] = 1
		logging.Debug("Legacy state encoding in use, state slot forced high",
			zap.String("protocol", ProtocolID),
			zap.String("requested_state", c.State.String()),
		)
	}

	train := NewPulseTrain(u)
	for g, bit := range frame {
		train.writeGroup(g, bit, u)
	}

	return Encoding{
		Command: c,
		Frame:   frame,
		Pulses:  train,
	}
}

// EncodeRaw validates rc and encodes it. On error the Encoding is zero.
func (e *Encoder) EncodeRaw(rc RawCode) (Encoding, error) {
	c, err := Validate(rc)
	if err != nil {
		logging.Error("Rejected command",
			zap.String("protocol", ProtocolID),
			zap.Error(err),
		)
		return Encoding{}, err
	}
	enc := e.Encode(c)
	logging.LogCommand("encode", ProtocolID, c.ID, c.Unit, c.State.String())
	logging.LogPulses("Encoded pulse train", enc.Pulses[:])
	return enc, nil
}

// Encode is a shortcut using the default pulse length.
func Encode(c Command) Encoding {
	e := Encoder{PulseLength: DefaultPulseLength}
	return e.Encode(c)
}
