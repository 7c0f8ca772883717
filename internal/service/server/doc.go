// Package server runs the catpoint-server process.
//
// Run loads the settings, opens the state file, builds the coordinator with
// the configured detector, attaches the logging, MQTT and hook listeners and
// the GPIO watcher, and serves the gRPC API until the context is canceled.
package server
