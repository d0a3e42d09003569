package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/muurk/rev4switch/internal/protocol"
)

func TestGroupLabel(t *testing.T) {
	tests := []struct {
		group int
		want  string
	}{
		{0, "id[0]"},
		{5, "id[5]"},
		{6, "unit[0]"},
		{9, "unit[3]"},
		{10, "reserved"},
		{11, "state"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := groupLabel(tt.group); got != tt.want {
				t.Errorf("groupLabel(%d) = %q, want %q", tt.group, got, tt.want)
			}
		})
	}
}

func TestRenderPulseTrain(t *testing.T) {
	enc := protocol.Encode(protocol.Command{ID: 5, Unit: 2, State: protocol.StateOn})
	out := RenderPulseTrain(enc.Pulses, enc.Frame)

	lines := strings.Split(out, "\n")
	if len(lines) != protocol.BinaryLength+1 {
		t.Fatalf("RenderPulseTrain() has %d lines, want %d", len(lines), protocol.BinaryLength+1)
	}

	// id bit 3 is set for id 5 (000101)
	if !strings.Contains(lines[3], " 264  792  264  792") {
		t.Errorf("id[3] line = %q, want a one group", lines[3])
	}
	if !strings.Contains(lines[0], " 264  792  792  264") {
		t.Errorf("id[0] line = %q, want a zero group", lines[0])
	}
	if !strings.Contains(lines[12], "8976") {
		t.Errorf("footer line = %q, want the 34u gap", lines[12])
	}
}

func TestRenderBitFrame(t *testing.T) {
	f := protocol.Command{ID: 5, Unit: 2, State: protocol.StateOn}.Frame()
	out := RenderBitFrame(f)

	for _, want := range []string{"id 000101", "unit 0010", "r 0", "state 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderBitFrame() = %q, missing %q", out, want)
		}
	}
}

func TestRenderEncoding(t *testing.T) {
	enc := protocol.Encode(protocol.Command{ID: 63, Unit: 15, State: protocol.StateOff})
	out := RenderEncoding(enc, 80)

	if !strings.Contains(out, "id=63 unit=15 state=off") {
		t.Errorf("RenderEncoding() missing summary:\n%s", out)
	}
	if !strings.Contains(out, "footer") {
		t.Errorf("RenderEncoding() missing footer:\n%s", out)
	}
}

func TestRenderDecodedNamesSwitch(t *testing.T) {
	enc := protocol.Encode(protocol.Command{ID: 1, Unit: 1, State: protocol.StateOn})
	out := RenderDecoded(enc.Command, enc.Pulses.Classify(protocol.DefaultPulseLength), "lamp", 80)

	for _, want := range []string{"Decoded rev4_switch", "lamp", "State"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderDecoded() missing %q:\n%s", want, out)
		}
	}
}

func TestPrinterBoxes(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterTo(&buf, 10)

	if p.Width() != MinTerminalWidth {
		t.Errorf("Width() = %d, want clamp to %d", p.Width(), MinTerminalWidth)
	}

	p.PrintHeader("Send", "rev4ctl send", map[string]string{"b": "2", "a": "1"})
	p.PrintError("Send failed", errors.New("boom"), []string{"Check the bridge"})

	out := buf.String()
	if strings.Index(out, "a:") > strings.Index(out, "b:") {
		t.Error("header params should be sorted")
	}
	for _, want := range []string{"Send failed", "boom", "Troubleshooting", "Check the bridge"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"exact answer", "lamp\n", true},
		{"answer without newline", "lamp", true},
		{"wrong answer", "yes\n", false},
		{"empty input", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := ConfirmRemoveSwitch(strings.NewReader(tt.input), &out, 80, "lamp", 5, 2)
			if got != tt.want {
				t.Errorf("ConfirmRemoveSwitch() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "id 5 unit 2") {
				t.Errorf("prompt should name the address:\n%s", out.String())
			}
		})
	}
}
