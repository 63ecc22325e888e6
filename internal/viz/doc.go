// Package viz renders shooter runs for people: asciigraph plots for the
// terminal, PNG and SVG charts through gonum/plot, and a live Bubble Tea
// dashboard that drives a simulated rig in real time.
//
// # Dashboard keys
//
//	S / Enter - Start a shot
//	C / Esc   - Cancel (safety stop)
//	1 / 2     - Dynamic characterization of top / bottom wheel
//	Tab       - Cycle parameters
//	Up/K      - Increase parameter (+5%)
//	Down/J    - Decrease parameter (-5%)
//	Space     - Pause/Resume
//	T         - Cycle color themes
//	?         - Show help overlay
//	Q         - Quit
package viz
