// Package viz provides terminal-based visualization of an integration.
//
// The package implements a TUI using the Bubble Tea framework:
//
//   - [Model]: steps through a mesh one frame at a time and traces the
//     phase portrait on a braille [Canvas]
//   - [NewInteractiveApp]: menus to choose a model and a method first
//   - Three built-in color themes
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart from the initial state
//	T     - Cycle color themes
//	Tab   - Select parameter, Up/Down to scale it by 5%
//	?     - Show help overlay
//	[]    - Step back and forward through recorded history
package viz
