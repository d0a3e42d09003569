package protocol

import (
	"encoding/json"
	"fmt"
)

// State is the on/off state carried in bit 11 of a frame.
type State uint8

const (
	StateOff State = 0
	StateOn  State = 1
)

// String returns "on" or "off", the form used in outbound messages.
func (s State) String() string {
	if s == StateOn {
		return "on"
	}
	return "off"
}

// ParseState accepts "on"/"off" (and "1"/"0").
func ParseState(s string) (State, error) {
	switch s {
	case "on", "1":
		return StateOn, nil
	case "off", "0":
		return StateOff, nil
	default:
		return StateOff, fmt.Errorf("invalid state %q (expected on or off)", s)
	}
}

// MarshalJSON implements json.Marshaler
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (s *State) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("state must be a string: %w", err)
	}
	parsed, err := ParseState(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Command addresses one switch unit. Values produced by Validate or Decode
// are always within range.
type Command struct {
	ID    int   `json:"id"`
	Unit  int   `json:"unit"`
	State State `json:"state"`
}

// String returns a debug representation of the command
func (c Command) String() string {
	return fmt.Sprintf("Command{id=%d, unit=%d, state=%s}", c.ID, c.Unit, c.State)
}

// Frame builds the 12-bit frame for the command.
func (c Command) Frame() BitFrame {
	var f BitFrame
	f.setField(IDOffset, IDBits, c.ID)
	f.setField(UnitOffset, UnitBits, c.Unit)
	f[ReservedBit] = 0
	f[StateBit] = uint8(c.State)
	return f
}
