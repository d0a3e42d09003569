package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm displays a warning box and prompts the user to type the answer
// word to proceed. Returns true only if the typed line matches exactly.
func Confirm(in io.Reader, out io.Writer, width int, title string, warnings []string, answer string) bool {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	fmt.Fprintln(out, RenderWarningBox(title, warnings, width))
	fmt.Fprintln(out)

	promptStyle := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true)
	fmt.Fprint(out, promptStyle.Render(fmt.Sprintf("To proceed, type %q and press Enter: ", answer)))

	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		fmt.Fprintln(out)
		return false
	}

	if strings.TrimSpace(input) == answer {
		fmt.Fprintln(out)
		return true
	}

	fmt.Fprintln(out)
	cancelStyle := lipgloss.NewStyle().Foreground(MutedColor)
	fmt.Fprintln(out, cancelStyle.Render("  Operation cancelled."))
	fmt.Fprintln(out)
	return false
}

// ConfirmRemoveSwitch asks before forgetting a paired switch.
func ConfirmRemoveSwitch(in io.Reader, out io.Writer, width int, name string, id, unit int) bool {
	return Confirm(in, out, width,
		"REMOVE SWITCH "+strings.ToUpper(name),
		[]string{
			fmt.Sprintf("The pairing for id %d unit %d will be deleted from the config file", id, unit),
			"The switch itself keeps its pairing and still reacts to this address",
		},
		name,
	)
}

// ConfirmLegacyEncoding asks before enabling the legacy state slot, which
// makes every transmitted command read as "on".
func ConfirmLegacyEncoding(in io.Reader, out io.Writer, width int) bool {
	return Confirm(in, out, width,
		"LEGACY STATE ENCODING",
		[]string{
			"Every encoded train will carry a \"1\" in the state slot",
			"Off commands will switch compatible receivers on",
			"Only enable this to match hardware verified against legacy captures",
		},
		"I AGREE",
	)
}
