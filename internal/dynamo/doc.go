// Package dynamo provides the core primitives for integrating ordinary
// differential equations:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Event]: zero-crossing of a state function that stops integration
//   - [Stepper] / [AdaptiveStepper]: numerical integrator interfaces
//
// # Example
//
//	sys := coilgun.NewDischarge(gun)
//	solver := sim.New(integrators.NewRK45())
//	result, _ := solver.Solve(ctx, sys, x0, cfg, events...)
//
// # Thread Safety
//
// Systems are immutable once built and may be shared. Steppers keep scratch
// buffers and must not be shared between goroutines.
package dynamo
