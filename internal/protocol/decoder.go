package protocol

// DecodeFrame collapses a classified train into its bit frame: bit i is 1
// when the fourth slot of group i is long. Footer slots are ignored.
func DecodeFrame(c ClassifiedTrain) BitFrame {
	var f BitFrame
	for i := 0; i < BinaryLength; i++ {
		if c[i*GroupSize+3] == PulseLong {
			f[i] = 1
		}
	}
	return f
}

// Decode turns a classified train into a command. It is total: any 50-slot
// input yields a command with id and unit in range.
func Decode(c ClassifiedTrain) Command {
	return DecodeFrame(c).Command()
}

// DecodePulses classifies a raw capture and decodes it.
func DecodePulses(pulses []int, pulseLength int) (Command, error) {
	c, err := ClassifyPulses(pulses, pulseLength)
	if err != nil {
		return Command{}, err
	}
	return Decode(c), nil
}
