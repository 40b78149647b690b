// Package odom adapts the drive controller's wheel-odometry feed to the
// localize.Source contract. The real adapter reads a CSV line protocol
// from a serial port and supports absolute pose overwrites via a SETPOSE
// command; a fixture-fed mock serves tests and dev mode.
package odom
