package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		raw      RawCode
		want     Command
		wantType ErrorType
		wantErr  bool
	}{
		{"Valid: on", RawCode{ID: intPtr(5), Unit: intPtr(2), On: true}, Command{5, 2, StateOn}, 0, false},
		{"Valid: off", RawCode{ID: intPtr(5), Unit: intPtr(2), Off: true}, Command{5, 2, StateOff}, 0, false},
		{"Valid: lower bounds", RawCode{ID: intPtr(0), Unit: intPtr(0), On: true}, Command{0, 0, StateOn}, 0, false},
		{"Valid: upper bounds", RawCode{ID: intPtr(63), Unit: intPtr(15), Off: true}, Command{63, 15, StateOff}, 0, false},
		{"Ambiguous: both flags, off wins", RawCode{ID: intPtr(1), Unit: intPtr(1), On: true, Off: true}, Command{1, 1, StateOff}, 0, false},
		{"Invalid: id missing", RawCode{Unit: intPtr(3), On: true}, Command{}, ErrTypeMissingField, true},
		{"Invalid: unit missing", RawCode{ID: intPtr(3), On: true}, Command{}, ErrTypeMissingField, true},
		{"Invalid: state missing", RawCode{ID: intPtr(3), Unit: intPtr(3)}, Command{}, ErrTypeMissingField, true},
		{"Invalid: nothing", RawCode{}, Command{}, ErrTypeMissingField, true},
		{"Invalid: id 70", RawCode{ID: intPtr(70), Unit: intPtr(3), On: true}, Command{}, ErrTypeIDOutOfRange, true},
		{"Invalid: id 64", RawCode{ID: intPtr(64), Unit: intPtr(3), On: true}, Command{}, ErrTypeIDOutOfRange, true},
		{"Invalid: id -1", RawCode{ID: intPtr(-1), Unit: intPtr(3), On: true}, Command{}, ErrTypeIDOutOfRange, true},
		{"Invalid: unit 16", RawCode{ID: intPtr(3), Unit: intPtr(16), On: true}, Command{}, ErrTypeUnitOutOfRange, true},
		{"Invalid: unit -1", RawCode{ID: intPtr(3), Unit: intPtr(-1), On: true}, Command{}, ErrTypeUnitOutOfRange, true},
		{"Invalid: both out of range reports id", RawCode{ID: intPtr(99), Unit: intPtr(99), On: true}, Command{}, ErrTypeIDOutOfRange, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				typ, ok := ErrorTypeOf(err)
				if !ok {
					t.Fatalf("expected *CodecError, got %T", err)
				}
				if typ != tt.wantType {
					t.Errorf("error type = %v, want %v", typ, tt.wantType)
				}
				if got != (Command{}) {
					t.Errorf("Validate() returned %v alongside error", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateAcceptsFullRange(t *testing.T) {
	for id := MinID; id <= MaxID; id++ {
		for unit := MinUnit; unit <= MaxUnit; unit++ {
			if _, err := Validate(NewRawCode(id, unit, StateOn)); err != nil {
				t.Fatalf("Validate(id=%d, unit=%d) unexpected error: %v", id, unit, err)
			}
		}
	}
}

func TestValidateErrorsMatchSentinels(t *testing.T) {
	_, err := Validate(RawCode{Unit: intPtr(3), On: true})
	if !errors.Is(err, ErrMissingField) || !IsMissingField(err) {
		t.Errorf("missing id: errors.Is(ErrMissingField) = false, err = %v", err)
	}

	_, err = Validate(RawCode{ID: intPtr(70), Unit: intPtr(3), On: true})
	if !errors.Is(err, ErrIDOutOfRange) || !IsOutOfRange(err) {
		t.Errorf("id 70: errors.Is(ErrIDOutOfRange) = false, err = %v", err)
	}
	if errors.Is(err, ErrUnitOutOfRange) {
		t.Error("id 70 should not match ErrUnitOutOfRange")
	}

	_, err = Validate(RawCode{ID: intPtr(1), Unit: intPtr(16), Off: true})
	if !errors.Is(err, ErrUnitOutOfRange) {
		t.Errorf("unit 16: errors.Is(ErrUnitOutOfRange) = false, err = %v", err)
	}
}

func TestValidateCommand(t *testing.T) {
	if err := ValidateCommand(Command{ID: 63, Unit: 15, State: StateOn}); err != nil {
		t.Errorf("ValidateCommand(valid) = %v", err)
	}
	if err := ValidateCommand(Command{ID: 64, Unit: 0}); !errors.Is(err, ErrIDOutOfRange) {
		t.Errorf("ValidateCommand(id 64) = %v, want ErrIDOutOfRange", err)
	}
	if err := ValidateCommand(Command{ID: 0, Unit: 16}); !errors.Is(err, ErrUnitOutOfRange) {
		t.Errorf("ValidateCommand(unit 16) = %v, want ErrUnitOutOfRange", err)
	}
	if err := ValidateCommand(Command{ID: 0, Unit: 0, State: State(7)}); !errors.Is(err, ErrMissingField) {
		t.Errorf("ValidateCommand(state 7) = %v, want ErrMissingField", err)
	}
}

func TestParseRawCode(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		wantID   *int
		wantUnit *int
		wantOn   bool
		wantOff  bool
	}{
		{"all fields", `{"id": 5, "unit": 2, "on": 1}`, intPtr(5), intPtr(2), true, false},
		{"off flag", `{"id": 5, "unit": 2, "off": 1}`, intPtr(5), intPtr(2), false, true},
		{"rounds numbers", `{"id": 4.6, "unit": 2.4, "on": 1}`, intPtr(5), intPtr(2), true, false},
		{"string id is absent", `{"id": "5", "unit": 2, "on": 1}`, nil, intPtr(2), true, false},
		{"explicit false flag", `{"id": 1, "unit": 1, "on": false, "off": true}`, intPtr(1), intPtr(1), false, true},
		{"zero counts as set", `{"id": 1, "unit": 1, "off": 0}`, intPtr(1), intPtr(1), false, true},
		{"string flags are ignored", `{"id": 1, "unit": 1, "on": "no", "off": "1"}`, intPtr(1), intPtr(1), false, false},
		{"null flag is ignored", `{"id": 1, "unit": 1, "on": null}`, intPtr(1), intPtr(1), false, false},
		{"empty", `{}`, nil, nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fields map[string]any
			if err := json.Unmarshal([]byte(tt.json), &fields); err != nil {
				t.Fatalf("bad fixture: %v", err)
			}
			rc := ParseRawCode(fields)
			if !equalIntPtr(rc.ID, tt.wantID) {
				t.Errorf("ID = %v, want %v", deref(rc.ID), deref(tt.wantID))
			}
			if !equalIntPtr(rc.Unit, tt.wantUnit) {
				t.Errorf("Unit = %v, want %v", deref(rc.Unit), deref(tt.wantUnit))
			}
			if rc.On != tt.wantOn || rc.Off != tt.wantOff {
				t.Errorf("On/Off = %v/%v, want %v/%v", rc.On, rc.Off, tt.wantOn, tt.wantOff)
			}
		})
	}
}

func TestParseRawCodeJSONNumber(t *testing.T) {
	rc := ParseRawCode(map[string]any{
		"id":   json.Number("12"),
		"unit": json.Number("7"),
		"on":   1,
	})
	c, err := Validate(rc)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if c != (Command{ID: 12, Unit: 7, State: StateOn}) {
		t.Errorf("got %v", c)
	}
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(p *int) any {
	if p == nil {
		return "<nil>"
	}
	return *p
}
