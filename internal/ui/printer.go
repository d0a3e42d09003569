package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes styled output to a writer at a fixed width.
// Commands create one per invocation; tests point it at a buffer.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter returns a printer for stdout sized to the terminal.
func NewPrinter() *Printer {
	return &Printer{out: os.Stdout, width: GetTerminalWidth()}
}

// NewPrinterTo returns a printer writing to w at the given width.
func NewPrinterTo(w io.Writer, width int) *Printer {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	return &Printer{out: w, width: width}
}

// Width returns the render width.
func (p *Printer) Width() int {
	return p.width
}

// Println writes s followed by a newline.
func (p *Printer) Println(s string) {
	fmt.Fprintln(p.out, s)
}

// PrintHeader prints a command banner.
func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	p.Println(RenderHeader(title, command, params, p.width))
	p.Println("")
}

// PrintSuccess prints a success box.
func (p *Printer) PrintSuccess(title string, details map[string]string) {
	p.Println(RenderSuccessBox(title, details, p.width))
}

// PrintError prints a failure box with optional troubleshooting hints.
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	p.Println(RenderErrorBox(title, err, troubleshooting, p.width))
}

// PrintWarning prints a warning box.
func (p *Printer) PrintWarning(title string, lines []string) {
	p.Println(RenderWarningBox(title, lines, p.width))
}

// RenderHeader renders a command banner with a title, the invoked command
// and its parameters sorted by key.
func RenderHeader(title, command string, params map[string]string, width int) string {
	var lines []string
	lines = append(lines, HeaderTitleStyle.Render(title))
	if command != "" {
		lines = append(lines, HeaderCommandStyle.Render(command))
	}

	if len(params) > 0 {
		lines = append(lines, "")
		for _, k := range sortedKeys(params) {
			line := HeaderParamKeyStyle.Render(k+":") + " " + HeaderParamValueStyle.Render(params[k])
			lines = append(lines, line)
		}
	}

	return HeaderBorderStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderSuccessBox renders a double-bordered success box with key/value details.
func RenderSuccessBox(title string, details map[string]string, width int) string {
	var lines []string
	lines = append(lines, SuccessTitleStyle.Render(SuccessMarker+"  "+title))

	if len(details) > 0 {
		lines = append(lines, "")
		for _, k := range sortedKeys(details) {
			lines = append(lines, ResultKeyStyle.Render(k)+ResultValueStyle.Render(details[k]))
		}
	}

	return SuccessBoxStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderErrorBox renders a failure box. Troubleshooting hints are shown in a
// nested box when present.
func RenderErrorBox(title string, err error, troubleshooting []string, width int) string {
	var lines []string
	lines = append(lines, ErrorTitleStyle.Render(FailureMarker+"  "+title))

	if err != nil {
		lines = append(lines, "")
		lines = append(lines, ErrorMessageStyle.Render(err.Error()))
	}

	if len(troubleshooting) > 0 {
		var items []string
		items = append(items, TroubleshootingTitleStyle.Render("Troubleshooting"))
		for _, item := range troubleshooting {
			items = append(items, TroubleshootingItemStyle.Render("• "+item))
		}
		lines = append(lines, "")
		lines = append(lines, TroubleshootingBoxStyle(width).Render(strings.Join(items, "\n")))
	}

	return ErrorBoxStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderWarningBox renders an orange box with bullet lines.
func RenderWarningBox(title string, lines []string, width int) string {
	var out []string
	out = append(out, WarningStyle.Render(WarningMarker+"  "+title))
	if len(lines) > 0 {
		out = append(out, "")
		bullet := lipgloss.NewStyle().Foreground(TextColor)
		for _, l := range lines {
			out = append(out, bullet.Render("• "+l))
		}
	}
	return WarningBoxStyle(width).Render(strings.Join(out, "\n"))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
