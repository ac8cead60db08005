// Package viz draws the simulation in a terminal.
//
//   - [Terminal]: an engine renderer projecting bodies onto a braille [Canvas]
//   - [Model]: the Bubble Tea live view driving the engine from key presses
//
// # Key Bindings
//
//	Space     - Pause/Resume simulated time
//	Tab/N, P  - Next/previous target
//	B         - Pick a target from the body list
//	M         - Cycle camera mode (look-at, follow, surface)
//	Arrows    - Orbit the camera around the target
//	+/-       - Zoom
//	. ,       - Speed time up or down by ten
//	[ ]       - Jump a day back or forward
//	O, L, T   - Toggle orbits, labels, cycle themes
package viz
