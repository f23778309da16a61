// Package analysis turns simulated shots into phase portraits.
//
// A portrait pairs two series of a trajectory, for example position
// against velocity, or current against capacitor voltage:
//
//	p := analysis.NewPhasePortrait(tr.Position, tr.Velocity)
//	fmt.Print(analysis.PhasePortraitToASCII(p, 60, 20))
package analysis
