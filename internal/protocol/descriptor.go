package protocol

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/muurk/rev4switch/internal/logging"
)

// DeviceType classifies what kind of device a protocol drives
type DeviceType string

// HardwareType names the radio a protocol is transmitted on
type HardwareType string

const (
	DeviceSwitch  DeviceType   = "switch"
	HardwareRF433 HardwareType = "rf433"
)

// OptionKind mirrors how the host treats an option
type OptionKind string

const (
	OptionState      OptionKind = "state"       // selects on/off, no value
	OptionID         OptionKind = "id"          // identifies the device, numeric value
	OptionGUISetting OptionKind = "gui_setting" // front-end hint, not sent on air
)

// Option describes one parameter accepted by CreateCode.
type Option struct {
	Short       rune       `json:"short,omitempty"`
	Long        string     `json:"long"`
	Kind        OptionKind `json:"kind"`
	HasValue    bool       `json:"has_value"`
	Pattern     string     `json:"pattern,omitempty"`
	Description string     `json:"description,omitempty"`

	re *regexp.Regexp
}

// Match reports whether value satisfies the option's pattern. Options
// without a pattern accept anything.
func (o *Option) Match(value string) bool {
	if o.re == nil {
		return true
	}
	return o.re.MatchString(value)
}

// Device is a device name registered by a protocol
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Protocol is the descriptor a dispatch layer uses to route codes to this
// codec. Build it with New; it is read-only afterwards.
type Protocol struct {
	ID           string       `json:"id"`
	Version      string       `json:"version"`
	Devices      []Device     `json:"devices"`
	DeviceType   DeviceType   `json:"device_type"`
	HardwareType HardwareType `json:"hardware_type"`
	PulseLengths []int        `json:"pulse_lengths"`
	Multiplier   int          `json:"pulse"`
	RawLength    int          `json:"rawlen"`
	BinaryLength int          `json:"binlen"`
	Options      []*Option    `json:"options"`
}

// Message is what the codec hands back to the dispatch layer: the
// structured command plus the pulses that go with it.
type Message struct {
	Protocol string  `json:"protocol"`
	Message  Command `json:"message"`
	Pulses   []int   `json:"pulses,omitempty"`
}

// New returns the rev4_switch descriptor.
func New() *Protocol {
	opts := []*Option{
		{Short: 't', Long: "on", Kind: OptionState, Description: "send an on signal"},
		{Short: 'f', Long: "off", Kind: OptionState, Description: "send an off signal"},
		{Short: 'u', Long: "unit", Kind: OptionID, HasValue: true, Pattern: `^([0-9]|[1][0-5])$`, Description: "control a device with this unit code"},
		{Short: 'i', Long: "id", Kind: OptionID, HasValue: true, Pattern: `^(6[0123]|[12345][0-9]|[0-9]{1})$`, Description: "control a device with this id"},
		{Long: "readonly", Kind: OptionGUISetting, HasValue: true, Pattern: `^[10]{1}$`},
	}
	for _, o := range opts {
		if o.Pattern != "" {
			o.re = regexp.MustCompile(o.Pattern)
		}
	}

	lengths := make([]int, len(PulseLengths))
	copy(lengths, PulseLengths)

	return &Protocol{
		ID:           ProtocolID,
		Version:      ModuleVersion,
		Devices:      []Device{{ID: ProtocolID, Name: DeviceName}},
		DeviceType:   DeviceSwitch,
		HardwareType: HardwareRF433,
		PulseLengths: lengths,
		Multiplier:   PulseMultiplier,
		RawLength:    RawLength,
		BinaryLength: BinaryLength,
		Options:      opts,
	}
}

// Option looks up an option by long name
func (p *Protocol) Option(long string) *Option {
	for _, o := range p.Options {
		if o.Long == long {
			return o
		}
	}
	return nil
}

// Help returns the user-facing option lines
func (p *Protocol) Help() string {
	var b strings.Builder
	for _, o := range p.Options {
		if o.Kind == OptionGUISetting {
			continue
		}
		flag := fmt.Sprintf(" -%c --%s", o.Short, o.Long)
		if o.HasValue {
			flag += "=" + o.Long
		}
		fmt.Fprintf(&b, "\t%s\t\t\t%s\n", flag, o.Description)
	}
	return b.String()
}

// CreateCode validates a controller's field map and encodes it at
// pulseLength. On error nothing is returned but the error.
func (p *Protocol) CreateCode(fields map[string]any, pulseLength int) (*Message, error) {
	enc, err := NewEncoder(pulseLength)
	if err != nil {
		return nil, err
	}
	e, err := enc.EncodeRaw(ParseRawCode(fields))
	if err != nil {
		return nil, err
	}
	return &Message{
		Protocol: p.ID,
		Message:  e.Command,
		Pulses:   e.Pulses.Slice(),
	}, nil
}

// ParseCode decodes a raw capture received by the radio.
func (p *Protocol) ParseCode(pulses []int, pulseLength int) (*Message, error) {
	c, err := DecodePulses(pulses, pulseLength)
	if err != nil {
		return nil, err
	}
	logging.LogCommand("decode", p.ID, c.ID, c.Unit, c.State.String())
	return &Message{Protocol: p.ID, Message: c}, nil
}
