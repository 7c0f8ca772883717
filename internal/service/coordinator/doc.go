// Package coordinator implements the alarm state machine of the security
// system.
//
// The Coordinator is the single writer of the alarm status. Arming changes,
// sensor activity and camera frames all pass through it; it consults the
// store and the cat detector, decides the new alarm status and fans the
// change out to registered StatusListeners. Every decision runs under one
// mutex, from the first state read to the last listener notification.
package coordinator
