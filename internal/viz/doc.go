// Package viz renders evolution runs in the terminal.
//
// The package implements a live dashboard using the Bubble Tea framework:
//
//   - [Dashboard]: generation progress, fitness charts and the best design
//   - [Canvas]: Braille-based pixel canvas used to draw the coil
//   - Theme selection with 3 built-in color schemes
//
// # Key Bindings
//
//	Tab - Switch between the average and best fitness chart
//	T   - Cycle color themes
//	?   - Show help overlay
//	Q   - Quit (the run continues in the background until it finishes)
package viz
