package protocol

import (
	"encoding/json"
	"math"

	"go.uber.org/zap"

	"github.com/muurk/rev4switch/internal/logging"
)

// RawCode is an unvalidated command as it arrives from a caller: every
// field is optional.
type RawCode struct {
	ID   *int
	Unit *int
	On   bool
	Off  bool
}

// NewRawCode is a convenience for building a fully populated RawCode.
func NewRawCode(id, unit int, state State) RawCode {
	return RawCode{
		ID:   &id,
		Unit: &unit,
		On:   state == StateOn,
		Off:  state == StateOff,
	}
}

// ParseRawCode reads the field map a controller sends, e.g.
// {"id": 5, "unit": 2, "on": 1}. Numbers are rounded to the nearest
// integer; a non-numeric id or unit counts as absent. The on/off keys are
// flags set by any numeric value or an explicit true; strings, null and
// false leave them unset.
func ParseRawCode(fields map[string]any) RawCode {
	var rc RawCode
	if v, ok := numberField(fields, "id"); ok {
		rc.ID = &v
	}
	if v, ok := numberField(fields, "unit"); ok {
		rc.Unit = &v
	}
	rc.On = flagField(fields, "on")
	rc.Off = flagField(fields, "off")
	return rc
}

func numberField(fields map[string]any, key string) (int, bool) {
	raw, ok := fields[key]
	if !ok {
		return 0, false
	}
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		return v, true
	case int64:
		return int(v), true
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(f)), true
}

func flagField(fields map[string]any, key string) bool {
	raw, ok := fields[key]
	if !ok {
		return false
	}
	if b, isBool := raw.(bool); isBool {
		return b
	}
	_, isNumber := numberField(fields, key)
	return isNumber
}

// Validate turns a RawCode into a Command.
//
// Order of checks: missing fields, then id range, then unit range. When
// both on and off are set the input is ambiguous; off is checked first and
// wins.
func Validate(rc RawCode) (Command, error) {
	var state State
	hasState := true
	switch {
	case rc.Off:
		state = StateOff
		if rc.On {
			logging.Debug("Both on and off supplied, using off",
				zap.String("protocol", ProtocolID),
			)
		}
	case rc.On:
		state = StateOn
	default:
		hasState = false
	}

	switch {
	case rc.ID == nil:
		return Command{}, newMissingFieldError("id")
	case rc.Unit == nil:
		return Command{}, newMissingFieldError("unit")
	case !hasState:
		return Command{}, newMissingFieldError("state")
	}

	id, unit := *rc.ID, *rc.Unit
	if id < MinID || id > MaxID {
		return Command{}, newIDRangeError(id)
	}
	if unit < MinUnit || unit > MaxUnit {
		return Command{}, newUnitRangeError(unit)
	}

	return Command{ID: id, Unit: unit, State: state}, nil
}

// ValidateCommand checks an already-typed Command against the protocol ranges.
func ValidateCommand(c Command) error {
	if c.ID < MinID || c.ID > MaxID {
		return newIDRangeError(c.ID)
	}
	if c.Unit < MinUnit || c.Unit > MaxUnit {
		return newUnitRangeError(c.Unit)
	}
	if c.State != StateOn && c.State != StateOff {
		return newMissingFieldError("state")
	}
	return nil
}
