// Package config provides user configuration management for rev4switch.
//
// This package manages a YAML file naming the Rev v4 switches a user has
// paired (their on-air id and unit) together with preferences such as the
// pulse length used when encoding and the bridge server address.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/rev4switch/config.yaml or $HOME/.config/rev4switch/config.yaml
//   - macOS: $HOME/.config/rev4switch/config.yaml
//   - Windows: %LOCALAPPDATA%\rev4switch\config.yaml
//
// REV4_CONFIG overrides the location entirely.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if _, err := registry.AddSwitch("lamp", "Desk lamp", 5, 2); err != nil {
//	    log.Fatal(err) // id/unit out of range
//	}
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File writes are protected by a mutex and performed atomically.
package config
