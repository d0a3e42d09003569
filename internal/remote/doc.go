// Package remote implements the interactive terminal remote of rev4ctl.
//
// The remote lists the switches from the user's registry. Pressing t or f
// encodes an on or off command for the selected switch and hands the pulse
// train to a Transmitter: the bridge client when connected to a
// rev4ctl serve instance, or DryRun which prints the raw train.
//
// # Flow
//
//	Switch list ──t/f──▶ Encoder.Encode ──▶ Transmitter.Transmit
//	     ▲                                         │
//	     └──────── status + last train ◀───────────┘
//
// Transmits run as bubbletea commands so the UI stays responsive. Only one
// transmit is in flight at a time.
//
// # Key Bindings
//
//   - ↑/k, ↓/j: Move selection
//   - t: Switch the selected unit on
//   - f: Switch the selected unit off
//   - ?: Toggle full help
//   - q/Esc/Ctrl+C: Quit
package remote
