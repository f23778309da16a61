// Package coilgun models a capacitor bank discharging through a solenoid
// that pulls a ferromagnetic projectile.
//
// A genome is decoded into the physical entities with FromDNA. Simulate
// then integrates two phases: the discharge, which ends when the capacitor
// voltage reaches zero (a diode stops the bank from reverse charging) or
// the projectile passes its end position, and the free decay of the
// residual coil current through the coil resistance.
//
// The discharge state vector is [x, v, I, dI/dt, Vc]:
//
//	x'     = v
//	v'     = I²·L'(x) / 2m
//	I'     = dI/dt
//	(dI/dt)' = -I/(L·C) - R·(dI/dt)/L - (dI/dt)·L'(x)·v/L
//	Vc'    = -I/C
package coilgun
