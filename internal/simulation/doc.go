// Package simulation runs complete N-back sessions on simulated time with a
// synthetic participant. It backs the headless "nback simulate" command and
// end-to-end tests.
//
// A simulated session of 10 games finishes in milliseconds: every timer the
// engine schedules is fired by a clock.Fake in deadline order, and the
// participant answers each stimulus after a fixed reaction time.
package simulation
