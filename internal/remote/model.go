package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/rev4switch/internal/config"
	"github.com/muurk/rev4switch/internal/logging"
	"github.com/muurk/rev4switch/internal/protocol"
	"github.com/muurk/rev4switch/internal/ui"
)

// DefaultTransmitTimeout bounds a single transmit.
const DefaultTransmitTimeout = 5 * time.Second

// transmittedMsg reports the outcome of one transmit.
type transmittedMsg struct {
	name string
	enc  protocol.Encoding
	err  error
}

// keyMap defines key bindings for the remote
type keyMap struct {
	Up   key.Binding
	Down key.Binding
	On   key.Binding
	Off  key.Binding
	Help key.Binding
	Quit key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.On, k.Off, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.On, k.Off},
		{k.Help, k.Quit},
	}
}

func defaultKeys() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		On: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "on"),
		),
		Off: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "off"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Model is the remote screen: a list of paired switches that can be
// switched on or off one at a time.
type Model struct {
	Registry    *config.Registry
	Names       []string
	Encoder     *protocol.Encoder
	Transmitter Transmitter
	Timeout     time.Duration

	// OnTransmitted runs after every successful transmit, typically to
	// persist the registry's last-known state.
	OnTransmitted func(protocol.Command) error

	// UI state
	Cursor  int
	Sending bool
	Status  string
	LastErr error
	Last    *protocol.Encoding
	Width   int
	Height  int

	Spinner spinner.Model
	Help    help.Model
	Keys    keyMap
}

// New builds a remote over the switches in reg.
func New(reg *config.Registry, enc *protocol.Encoder, tx Transmitter) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return Model{
		Registry:    reg,
		Names:       reg.Names(),
		Encoder:     enc,
		Transmitter: tx,
		Timeout:     DefaultTransmitTimeout,
		Spinner:     s,
		Help:        help.New(),
		Keys:        defaultKeys(),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.Sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case transmittedMsg:
		return m.handleTransmitted(msg), nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Help):
		m.Help.ShowAll = !m.Help.ShowAll

	case key.Matches(msg, m.Keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}

	case key.Matches(msg, m.Keys.Down):
		if m.Cursor < len(m.Names)-1 {
			m.Cursor++
		}

	case key.Matches(msg, m.Keys.On):
		return m.startTransmit(protocol.StateOn)

	case key.Matches(msg, m.Keys.Off):
		return m.startTransmit(protocol.StateOff)
	}

	return m, nil
}

// Selected returns the name and switch under the cursor, or nil when the
// registry is empty.
func (m Model) Selected() (string, *config.Switch) {
	if m.Cursor < 0 || m.Cursor >= len(m.Names) {
		return "", nil
	}
	name := m.Names[m.Cursor]
	return name, m.Registry.GetSwitch(name)
}

// startTransmit encodes the selected switch and starts sending it. Keys
// pressed while a transmit is in flight are ignored.
func (m Model) startTransmit(state protocol.State) (tea.Model, tea.Cmd) {
	if m.Sending {
		return m, nil
	}
	name, sw := m.Selected()
	if sw == nil {
		return m, nil
	}

	enc := m.Encoder.Encode(sw.Command(state))
	m.Sending = true
	m.Status = fmt.Sprintf("Sending %s to %s", state, name)
	m.LastErr = nil

	return m, tea.Batch(m.Spinner.Tick, m.transmit(name, enc))
}

// transmit returns a command that runs the transmitter off the UI loop.
func (m Model) transmit(name string, enc protocol.Encoding) tea.Cmd {
	tx := m.Transmitter
	timeout := m.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return transmittedMsg{name: name, enc: enc, err: tx.Transmit(ctx, enc)}
	}
}

func (m Model) handleTransmitted(msg transmittedMsg) Model {
	m.Sending = false
	if msg.err != nil {
		m.LastErr = msg.err
		m.Status = fmt.Sprintf("Failed to switch %s %s", msg.name, msg.enc.Command.State)
		logging.Warn("Remote transmit failed",
			zap.String("switch", msg.name),
			zap.Error(msg.err),
		)
		return m
	}

	enc := msg.enc
	m.Last = &enc
	m.Registry.RecordState(enc.Command)
	m.Status = fmt.Sprintf("Switched %s %s", msg.name, enc.Command.State)

	if m.OnTransmitted != nil {
		if err := m.OnTransmitted(enc.Command); err != nil {
			m.LastErr = fmt.Errorf("state not saved: %w", err)
		}
	}
	return m
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(AppName))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render(fmt.Sprintf("%s · %s · pulse length %d",
		AppVersion(), protocol.DeviceName, m.Encoder.PulseLength)))
	b.WriteString("\n\n")

	if len(m.Names) == 0 {
		b.WriteString(ListItemStyle.Render("No switches paired yet."))
		b.WriteString("\n")
		b.WriteString(ListItemStyle.Render("Add one with: rev4ctl switches add <name> --id N --unit N"))
		b.WriteString("\n")
	}

	for i, name := range m.Names {
		sw := m.Registry.GetSwitch(name)
		label := name
		if sw.Label != "" {
			label = fmt.Sprintf("%s (%s)", name, sw.Label)
		}
		line := fmt.Sprintf("%s  %s  %s",
			renderState(sw.LastState),
			label,
			AddressStyle.Render(fmt.Sprintf("id %d unit %d", sw.ID, sw.Unit)),
		)
		if i == m.Cursor {
			b.WriteString(SelectedListItemStyle.Render("▸ " + line))
		} else {
			b.WriteString(ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.Sending:
		b.WriteString(m.Spinner.View() + " " + m.Status)
	case m.LastErr != nil:
		b.WriteString(ErrorStatusStyle.Render(ui.FailureMarker + " " + m.Status + ": " + m.LastErr.Error()))
	case m.Status != "":
		b.WriteString(StatusStyle.Render(ui.SuccessMarker + " " + m.Status))
	}
	b.WriteString("\n")

	if m.Last != nil {
		b.WriteString("\n")
		b.WriteString(ui.RenderBitFrame(m.Last.Frame))
		b.WriteString("\n")
		b.WriteString(AddressStyle.Render(m.Last.Pulses.String()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.Help.View(m.Keys))

	return ContainerStyle.Render(b.String())
}

// Run starts the remote full screen and blocks until the user quits.
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
