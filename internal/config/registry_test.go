package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/muurk/rev4switch/internal/protocol"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if !strings.Contains(configDir, "rev4switch") {
		t.Errorf("GetConfigDir() = %v, should contain 'rev4switch'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDirHonoursXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if want := filepath.Join(dir, "rev4switch"); got != want {
		t.Errorf("GetConfigDir() = %v, want %v", got, want)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}

	override := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv(ConfigPathEnvVar, override)
	configPath, err = GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if configPath != override {
		t.Errorf("GetConfigPath() = %v, want %v", configPath, override)
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Switches == nil {
		t.Error("NewRegistry().Switches should not be nil")
	}
	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}
	if reg.Preferences.PulseLength != protocol.PulseLength264 {
		t.Errorf("PulseLength = %v, want 264", reg.Preferences.PulseLength)
	}
	if reg.Preferences.LegacyStateEncoding {
		t.Error("LegacyStateEncoding should default to false")
	}
	if reg.Preferences.Server == nil || reg.Preferences.Server.Port != DefaultServerPort {
		t.Errorf("Server = %+v, want port %d", reg.Preferences.Server, DefaultServerPort)
	}
}

func TestRegistryAddSwitch(t *testing.T) {
	tests := []struct {
		name    string
		swName  string
		id      int
		unit    int
		wantErr error
	}{
		{"Valid: lamp", "lamp", 5, 2, nil},
		{"Valid: bounds", "edge", 63, 15, nil},
		{"Invalid: id 64", "bad", 64, 0, protocol.ErrIDOutOfRange},
		{"Invalid: unit -1", "bad", 0, -1, protocol.ErrUnitOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			sw, err := reg.AddSwitch(tt.swName, "label", tt.id, tt.unit)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("AddSwitch() error = %v, want %v", err, tt.wantErr)
				}
				if reg.GetSwitch(tt.swName) != nil {
					t.Error("rejected switch should not be stored")
				}
				return
			}
			if err != nil {
				t.Fatalf("AddSwitch() error = %v", err)
			}
			if reg.GetSwitch(tt.swName) != sw {
				t.Error("GetSwitch() should return the added switch")
			}
		})
	}

	if _, err := NewRegistry().AddSwitch("", "", 1, 1); err == nil {
		t.Error("AddSwitch() with empty name should fail")
	}
}

func TestRegistryRemoveSwitch(t *testing.T) {
	reg := NewRegistry()
	_, _ = reg.AddSwitch("lamp", "", 1, 1)

	if !reg.RemoveSwitch("lamp") {
		t.Error("RemoveSwitch(lamp) = false, want true")
	}
	if reg.RemoveSwitch("lamp") {
		t.Error("second RemoveSwitch(lamp) = true, want false")
	}
}

func TestRegistryFindByAddressAndRecordState(t *testing.T) {
	reg := NewRegistry()
	_, _ = reg.AddSwitch("lamp", "Desk lamp", 5, 2)
	_, _ = reg.AddSwitch("fan", "Ceiling fan", 5, 3)

	name, sw := reg.FindByAddress(5, 3)
	if name != "fan" || sw == nil {
		t.Fatalf("FindByAddress(5, 3) = %q, %v", name, sw)
	}
	if name, _ := reg.FindByAddress(9, 9); name != "" {
		t.Errorf("FindByAddress(9, 9) = %q, want none", name)
	}

	before := time.Now()
	reg.RecordState(protocol.Command{ID: 5, Unit: 2, State: protocol.StateOn})
	lamp := reg.GetSwitch("lamp")
	if lamp.LastState != "on" {
		t.Errorf("LastState = %q, want on", lamp.LastState)
	}
	if lamp.LastSeen.Before(before) {
		t.Errorf("LastSeen = %v, should be after %v", lamp.LastSeen, before)
	}

	// Unknown addresses are ignored
	reg.RecordState(protocol.Command{ID: 60, Unit: 1, State: protocol.StateOn})
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := NewRegistry()
	for _, n := range []string{"zeta", "alpha", "mid"} {
		_, _ = reg.AddSwitch(n, "", 1, 1)
	}
	got := strings.Join(reg.Names(), ",")
	if got != "alpha,mid,zeta" {
		t.Errorf("Names() = %v", got)
	}
}

func TestRegistryValidate(t *testing.T) {
	reg := NewRegistry()
	reg.Switches["ok"] = &Switch{ID: 1, Unit: 1}
	reg.Switches["bad-id"] = &Switch{ID: 99, Unit: 1}
	reg.Switches["bad-state"] = &Switch{ID: 1, Unit: 1, LastState: "maybe"}
	reg.Preferences.PulseLength = 300

	errs := reg.Validate()
	if len(errs) != 3 {
		t.Errorf("Validate() got %d errors, want 3", len(errs))
		for i, err := range errs {
			t.Logf("  Error %d: %v", i+1, err)
		}
	}
}

func TestRegistryEncoder(t *testing.T) {
	reg := NewRegistry()
	reg.Preferences.PulseLength = protocol.PulseLength258
	reg.Preferences.LegacyStateEncoding = true

	enc, err := reg.Encoder()
	if err != nil {
		t.Fatalf("Encoder() error = %v", err)
	}
	if enc.PulseLength != 258 || !enc.LegacyStateEncoding {
		t.Errorf("Encoder() = %+v", enc)
	}

	reg.Preferences.PulseLength = 1
	if _, err := reg.Encoder(); !errors.Is(err, protocol.ErrPulseLength) {
		t.Errorf("Encoder() error = %v, want ErrPulseLength", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	reg := NewRegistry()
	_, _ = reg.AddSwitch("lamp", "Desk lamp", 5, 2)
	reg.Preferences.PulseLength = protocol.PulseLength258

	if err := reg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away")
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	lamp := loaded.GetSwitch("lamp")
	if lamp == nil || lamp.ID != 5 || lamp.Unit != 2 || lamp.Label != "Desk lamp" {
		t.Errorf("loaded lamp = %+v", lamp)
	}
	if loaded.Preferences.PulseLength != 258 {
		t.Errorf("PulseLength = %d, want 258", loaded.Preferences.PulseLength)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	reg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if reg.Version != 1 || len(reg.Switches) != 0 {
		t.Errorf("LoadFrom(missing) = %+v, want defaults", reg)
	}
}

func TestLoadFromFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "version: 1\nswitches:\n  lamp:\n    id: 5\n    unit: 2\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if reg.Preferences == nil || reg.Preferences.PulseLength != protocol.DefaultPulseLength {
		t.Errorf("Preferences = %+v, want defaults", reg.Preferences)
	}
	if reg.Preferences.Server == nil {
		t.Error("Server preferences should be filled in")
	}
}

func TestLoadFromRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"wrong version", "version: 2\n"},
		{"not yaml", "version: [\n"},
		{"id out of range", "version: 1\nswitches:\n  lamp:\n    id: 64\n    unit: 2\n"},
		{"bad pulse length", "version: 1\npreferences:\n  pulse_length: 300\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFrom(path); err == nil {
				t.Error("LoadFrom() should fail")
			}
		})
	}
}

func TestSwitchCommand(t *testing.T) {
	sw := &Switch{ID: 12, Unit: 4}
	got := sw.Command(protocol.StateOff)
	if got != (protocol.Command{ID: 12, Unit: 4, State: protocol.StateOff}) {
		t.Errorf("Command() = %v", got)
	}
}
