// Package analysis inspects integrated solutions.
//
// The package works on [dynamo.Result] values produced by the simulator:
//
//   - [Compare]: component-wise distance between two solutions on one mesh
//   - [GeneratePhasePortrait]: two solution rows plotted against each other
//   - [GeneratePoincareSection]: points where one component crosses a threshold
//   - [LyapunovExponent]: divergence rate of two nearby initial states
//   - [Sweep]: long-run values of a component while one parameter varies
//   - [PowerSpectrum]: magnitude spectrum of a solution row
//
// # Method Comparison
//
// The explicit and implicit methods agree to first order in the step size:
//
//	cmp, err := analysis.Compare(explicit, implicit)
//	if err == nil && cmp.Max() < 1e-2 {
//	    // methods agree on this mesh
//	}
package analysis
