// Package viz renders reaction-network trajectories in the terminal.
//
// The live view steps a gillespie.System on a timer using Bubble Tea:
//
//   - [Model]: live view with species bars and a count history chart
//   - [Picker]: preset menu that starts a live view
//   - [Plot]: static asciigraph charts of a recorded trajectory
//
// # Key Bindings
//
//	Space - Pause/Resume
//	Tab   - Cycle the charted species
//	R     - Reset to the initial state with a fresh random stream
//	+/-   - Reactions fired per frame
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
//
// Stepping stops when the network reaches a state where no reaction can
// fire; the view then shows ABSORBED.
package viz
