// Package client implements the subcommands of the catpoint CLI.
//
// Every command connects to the server, performs one request on behalf of
// the detected actor and prints the result. Arming retries while the server
// is unreachable; watch streams events until interrupted.
package client
