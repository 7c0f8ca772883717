// Package config defines the settings shared by the catpoint binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Besides the server address and state file, the settings select the cat
// detector backend and configure the optional MQTT, hook and GPIO integrations.
package config
