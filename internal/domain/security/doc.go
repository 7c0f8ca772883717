// Package security contains core domain types of the home security system.
//
// It defines Sensor (a binary contact or motion detector with a stable
// identity), the ArmingStatus and AlarmStatus enumerations, Snapshot (the
// system state at a point in time) and Actor (who requested a change).
// Clone helpers avoid leaking internal references between layers.
package security
