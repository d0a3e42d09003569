package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/muurk/rev4switch/internal/protocol"
)

// Registry represents the entire user configuration file.
// It stores the switches the user has paired and application preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Switches    map[string]*Switch `yaml:"switches,omitempty"` // Keyed by user-chosen name
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Switch is one paired switch unit. ID and Unit are the on-air address.
type Switch struct {
	Label     string    `yaml:"label,omitempty"`      // Free-form description (e.g., "Desk lamp")
	ID        int       `yaml:"id"`                   // 0-63
	Unit      int       `yaml:"unit"`                 // 0-15
	LastState string    `yaml:"last_state,omitempty"` // "on" or "off", as last sent or heard
	LastSeen  time.Time `yaml:"last_seen,omitempty"`  // Last time a code for this switch was sent or heard
}

// Command returns the command that would switch this unit to state.
func (s *Switch) Command(state protocol.State) protocol.Command {
	return protocol.Command{ID: s.ID, Unit: s.Unit, State: state}
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	PulseLength         int          `yaml:"pulse_length"`          // Timing unit, one of 264/258
	LegacyStateEncoding bool         `yaml:"legacy_state_encoding"` // Force the state slot high like legacy senders
	DiscoverTimeout     int          `yaml:"discover_timeout"`      // mDNS discovery timeout in seconds
	Server              *ServerPrefs `yaml:"server,omitempty"`
}

// ServerPrefs are the defaults for the bridge server and for clients
// connecting to it.
type ServerPrefs struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Advertise bool   `yaml:"advertise"` // Announce the bridge over mDNS
}

// Default preference values
const (
	DefaultDiscoverTimeout = 5
	DefaultServerPort      = 5001
)

func defaultPreferences() *Preferences {
	return &Preferences{
		PulseLength:     protocol.DefaultPulseLength,
		DiscoverTimeout: DefaultDiscoverTimeout,
		Server: &ServerPrefs{
			Host:      "",
			Port:      DefaultServerPort,
			Advertise: true,
		},
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Switches:    make(map[string]*Switch),
		Preferences: defaultPreferences(),
	}
}

// GetSwitch retrieves a switch by name.
// Returns nil if the switch doesn't exist in the registry.
func (r *Registry) GetSwitch(name string) *Switch {
	return r.Switches[name]
}

// AddSwitch adds or replaces a switch after checking its address.
func (r *Registry) AddSwitch(name, label string, id, unit int) (*Switch, error) {
	if name == "" {
		return nil, fmt.Errorf("switch name must not be empty")
	}
	if err := protocol.ValidateCommand(protocol.Command{ID: id, Unit: unit}); err != nil {
		return nil, err
	}
	if r.Switches == nil {
		r.Switches = make(map[string]*Switch)
	}
	sw := &Switch{Label: label, ID: id, Unit: unit}
	r.Switches[name] = sw
	return sw, nil
}

// RemoveSwitch deletes a switch. Returns false if it was not present.
func (r *Registry) RemoveSwitch(name string) bool {
	if _, ok := r.Switches[name]; !ok {
		return false
	}
	delete(r.Switches, name)
	return true
}

// FindByAddress returns the name and switch matching an on-air address,
// used to label decoded commands.
func (r *Registry) FindByAddress(id, unit int) (string, *Switch) {
	for _, name := range r.Names() {
		sw := r.Switches[name]
		if sw.ID == id && sw.Unit == unit {
			return name, sw
		}
	}
	return "", nil
}

// RecordState notes the last state sent to or heard from a switch.
// Unknown addresses are ignored.
func (r *Registry) RecordState(c protocol.Command) {
	_, sw := r.FindByAddress(c.ID, c.Unit)
	if sw == nil {
		return
	}
	sw.LastState = c.State.String()
	sw.LastSeen = time.Now()
}

// Names returns the switch names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Switches))
	for name := range r.Switches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every switch address and the preferences. It returns all
// problems found rather than stopping at the first.
func (r *Registry) Validate() []error {
	var errs []error
	for _, name := range r.Names() {
		sw := r.Switches[name]
		err := protocol.ValidateCommand(protocol.Command{ID: sw.ID, Unit: sw.Unit})
		if err != nil {
			errs = append(errs, fmt.Errorf("switch %q: %w", name, err))
		}
		if sw.LastState != "" {
			if _, err := protocol.ParseState(sw.LastState); err != nil {
				errs = append(errs, fmt.Errorf("switch %q: %w", name, err))
			}
		}
	}
	if r.Preferences != nil && !protocol.IsValidPulseLength(r.Preferences.PulseLength) {
		errs = append(errs, fmt.Errorf("preferences: pulse_length %d is not one of %v",
			r.Preferences.PulseLength, protocol.PulseLengths))
	}
	return errs
}

// Encoder returns an encoder configured from the preferences.
func (r *Registry) Encoder() (*protocol.Encoder, error) {
	prefs := r.Preferences
	if prefs == nil {
		prefs = defaultPreferences()
	}
	enc, err := protocol.NewEncoder(prefs.PulseLength)
	if err != nil {
		return nil, err
	}
	enc.LegacyStateEncoding = prefs.LegacyStateEncoding
	return enc, nil
}
