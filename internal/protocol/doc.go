// Package protocol implements the rev4_switch 433 MHz remote-switch codec.
//
// Rev Switches v4 are addressed by a 6-bit id and a 4-bit unit and switched
// on or off. A command travels over the air as 50 on/off-keyed pulses.
//
// # Frame Structure
//
// The logical payload is a 12-bit frame:
//   - Bits 0-5: id, most significant bit first (0-63)
//   - Bits 6-9: unit, most significant bit first (0-15)
//   - Bit 10: reserved, always 0
//   - Bit 11: state (1 = on, 0 = off)
//
// Each bit expands to a group of four pulses, u being the timing unit and
// 3u a long pulse:
//   - 0: u, 3u, 3u, u
//   - 1: u, 3u, u, 3u
//
// Two footer pulses follow the 48 group pulses: u, then 34u.
//
// # Timing Unit
//
// The switches have been captured at two calibration values, 264 and 258.
// An Encoder is bound to one of them; ClassifyPulses uses the chosen value
// to split short from long pulses at 2u.
//
// # Usage Example - Encoding
//
//	enc, err := protocol.NewEncoder(protocol.PulseLength264)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	id, unit := 5, 2
//	e, err := enc.EncodeRaw(protocol.RawCode{ID: &id, Unit: &unit, On: true})
//	if err != nil {
//	    log.Fatal(err) // ErrMissingField, ErrIDOutOfRange, ErrUnitOutOfRange
//	}
//	driver.Send(e.Pulses.Slice())
//
// # Usage Example - Decoding
//
//	cmd, err := protocol.DecodePulses(capture, protocol.PulseLength264)
//	if err != nil {
//	    log.Fatal(err) // capture was not 50 usable pulses
//	}
//	fmt.Println(cmd) // Command{id=5, unit=2, state=on}
//
// # Known Issue: Legacy State Encoding
//
// The pilight rev4_switch plugin wrote a "1" group into the state slot for both on
// and off. Encoder.LegacyStateEncoding reproduces that. It is off by
// default so that decode(encode(c)) == c holds for every command.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use. PulseTrain and
// BitFrame are value arrays; each call owns its own copy.
package protocol
