package protocol

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of codec error
type ErrorType int

const (
	// ErrTypeMissingField indicates id, unit or state was not supplied
	ErrTypeMissingField ErrorType = iota
	// ErrTypeIDOutOfRange indicates an id outside 0-63
	ErrTypeIDOutOfRange
	// ErrTypeUnitOutOfRange indicates a unit outside 0-15
	ErrTypeUnitOutOfRange
	// ErrTypePulseLength indicates a pulse length that is not a calibration value
	ErrTypePulseLength
	// ErrTypeTrainLength indicates a capture that is not RawLength pulses long
	ErrTypeTrainLength
	// ErrTypeMalformedPulse indicates an unclassifiable pulse in a capture
	ErrTypeMalformedPulse
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeMissingField:
		return "Missing Field"
	case ErrTypeIDOutOfRange:
		return "ID Out Of Range"
	case ErrTypeUnitOutOfRange:
		return "Unit Out Of Range"
	case ErrTypePulseLength:
		return "Invalid Pulse Length"
	case ErrTypeTrainLength:
		return "Invalid Train Length"
	case ErrTypeMalformedPulse:
		return "Malformed Pulse"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Sentinels for errors.Is. A *CodecError matches the sentinel of its Type.
var (
	ErrMissingField   = errors.New("insufficient number of arguments")
	ErrIDOutOfRange   = errors.New("invalid id range")
	ErrUnitOutOfRange = errors.New("invalid unit range")
	ErrPulseLength    = errors.New("invalid pulse length")
	ErrTrainLength    = errors.New("invalid pulse train length")
	ErrMalformedPulse = errors.New("malformed pulse")
)

var sentinels = map[ErrorType]error{
	ErrTypeMissingField:   ErrMissingField,
	ErrTypeIDOutOfRange:   ErrIDOutOfRange,
	ErrTypeUnitOutOfRange: ErrUnitOutOfRange,
	ErrTypePulseLength:    ErrPulseLength,
	ErrTypeTrainLength:    ErrTrainLength,
	ErrTypeMalformedPulse: ErrMalformedPulse,
}

// CodecError is returned by validation and classification. No pulse train
// is produced when one is returned.
type CodecError struct {
	Type    ErrorType // Category of error
	Field   string    // Offending field (id, unit, state, pulse[n])
	Value   int       // Offending value, if any
	Message string    // Human-readable detail
}

// Error implements the error interface
func (e *CodecError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = sentinels[e.Type].Error()
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", ProtocolID, msg, e.Field)
	}
	return fmt.Sprintf("%s: %s", ProtocolID, msg)
}

// Is matches the sentinel for the error's Type
func (e *CodecError) Is(target error) bool {
	return sentinels[e.Type] == target
}

func newMissingFieldError(field string) *CodecError {
	return &CodecError{Type: ErrTypeMissingField, Field: field}
}

func newIDRangeError(id int) *CodecError {
	return &CodecError{
		Type:    ErrTypeIDOutOfRange,
		Field:   "id",
		Value:   id,
		Message: fmt.Sprintf("invalid id range: %d not in [%d,%d]", id, MinID, MaxID),
	}
}

func newUnitRangeError(unit int) *CodecError {
	return &CodecError{
		Type:    ErrTypeUnitOutOfRange,
		Field:   "unit",
		Value:   unit,
		Message: fmt.Sprintf("invalid unit range: %d not in [%d,%d]", unit, MinUnit, MaxUnit),
	}
}

func newPulseLengthError(length int) *CodecError {
	return &CodecError{
		Type:    ErrTypePulseLength,
		Field:   "pulse_length",
		Value:   length,
		Message: fmt.Sprintf("invalid pulse length %d (expected one of %v)", length, PulseLengths),
	}
}

func newTrainLengthError(n int) *CodecError {
	return &CodecError{
		Type:    ErrTypeTrainLength,
		Field:   "pulses",
		Value:   n,
		Message: fmt.Sprintf("invalid pulse train length %d (expected %d)", n, RawLength),
	}
}

// IsMissingField checks if an error is a missing-field error
func IsMissingField(err error) bool {
	return errors.Is(err, ErrMissingField)
}

// IsOutOfRange checks if an error is an id or unit range error
func IsOutOfRange(err error) bool {
	return errors.Is(err, ErrIDOutOfRange) || errors.Is(err, ErrUnitOutOfRange)
}

// IsCaptureError checks if an error came from classifying a raw capture
func IsCaptureError(err error) bool {
	return errors.Is(err, ErrPulseLength) ||
		errors.Is(err, ErrTrainLength) ||
		errors.Is(err, ErrMalformedPulse)
}

// ErrorTypeOf returns the ErrorType of a codec error and whether err is one
func ErrorTypeOf(err error) (ErrorType, bool) {
	var ce *CodecError
	if errors.As(err, &ce) {
		return ce.Type, true
	}
	return 0, false
}
