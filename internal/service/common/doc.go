// Package common holds helpers shared by the catpoint binaries.
//
// It provides a gRPC client wrapper that speaks domain types, applies call
// timeouts and attaches the calling actor (hostname/username) as metadata.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
