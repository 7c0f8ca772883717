// Package security implements persistence for sensors and system statuses.
//
// Repository is the store contract the alarm coordinator depends on.
// MemoryRepository keeps everything in process memory, FileRepository
// additionally writes every change to a YAML document on disk so the state
// survives restarts.
package security
