package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muurk/rev4switch/internal/protocol"
)

// groupLabel names the field a bit group belongs to.
func groupLabel(g int) string {
	switch {
	case g < protocol.UnitOffset:
		return fmt.Sprintf("id[%d]", g-protocol.IDOffset)
	case g < protocol.ReservedBit:
		return fmt.Sprintf("unit[%d]", g-protocol.UnitOffset)
	case g == protocol.ReservedBit:
		return "reserved"
	default:
		return "state"
	}
}

func bitStyleFor(bit uint8) func(...string) string {
	if bit == 1 {
		return BitOneStyle.Render
	}
	return BitZeroStyle.Render
}

// RenderBitFrame renders the frame as its four fields with "1" bits
// highlighted, e.g. "id 000101  unit 0010  r 0  state 1".
func RenderBitFrame(f protocol.BitFrame) string {
	field := func(from, to int) string {
		var b strings.Builder
		for i := from; i < to; i++ {
			b.WriteString(bitStyleFor(f[i])(strconv.Itoa(int(f[i]))))
		}
		return b.String()
	}
	return strings.Join([]string{
		FieldLabelStyle.UnsetWidth().Render("id") + " " + field(protocol.IDOffset, protocol.UnitOffset),
		FieldLabelStyle.UnsetWidth().Render("unit") + " " + field(protocol.UnitOffset, protocol.ReservedBit),
		FieldLabelStyle.UnsetWidth().Render("r") + " " + field(protocol.ReservedBit, protocol.StateBit),
		FieldLabelStyle.UnsetWidth().Render("state") + " " + field(protocol.StateBit, protocol.BinaryLength),
	}, "  ")
}

// RenderPulseTrain renders one line per bit group followed by the footer.
// Each line shows the field, the bit the group carries and its four pulses.
func RenderPulseTrain(t protocol.PulseTrain, f protocol.BitFrame) string {
	lines := make([]string, 0, protocol.BinaryLength+1)
	for g := 0; g < protocol.BinaryLength; g++ {
		group := t.Group(g)
		pulses := make([]string, len(group))
		for i, p := range group {
			pulses[i] = fmt.Sprintf("%4d", p)
		}
		render := bitStyleFor(f[g])
		lines = append(lines, fmt.Sprintf("%s %s  %s",
			FieldLabelStyle.Render(groupLabel(g)),
			render(strconv.Itoa(int(f[g]))),
			render(strings.Join(pulses, " ")),
		))
	}
	footer := t.Footer()
	lines = append(lines, fmt.Sprintf("%s    %s",
		FieldLabelStyle.Render("footer"),
		FooterStyle.Render(fmt.Sprintf("%4d %5d", footer[0], footer[1])),
	))
	return strings.Join(lines, "\n")
}

// RenderEncoding renders the full result of an encode: a summary line,
// the bit frame and the boxed pulse train.
func RenderEncoding(e protocol.Encoding, width int) string {
	c := e.Command
	summary := SuccessTitleStyle.Render(fmt.Sprintf("%s  id=%d unit=%d state=%s", SuccessMarker, c.ID, c.Unit, c.State)) +
		HeaderCommandStyle.Render(fmt.Sprintf("%d pulses", protocol.RawLength))
	return strings.Join([]string{
		summary,
		"",
		"  " + RenderBitFrame(e.Frame),
		"",
		PulseBoxStyle(width).Render(RenderPulseTrain(e.Pulses, e.Frame)),
	}, "\n")
}

// RenderDecoded renders a decoded command with the classified train it was
// read from. name is the registry name for the address, or empty.
func RenderDecoded(c protocol.Command, classified protocol.ClassifiedTrain, name string, width int) string {
	details := map[string]string{
		"ID":    strconv.Itoa(c.ID),
		"Unit":  strconv.Itoa(c.Unit),
		"State": c.State.String(),
		"Shape": classified.String(),
	}
	if name != "" {
		details["Switch"] = name
	}
	return RenderSuccessBox("Decoded "+protocol.ProtocolID, details, width)
}
