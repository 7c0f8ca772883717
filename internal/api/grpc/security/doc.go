// Package security implements the gRPC transport of the security system.
//
// The catpoint.v1.SecurityService is described by hand in service.go and
// carries protobuf well-known types (Empty, StringValue, BytesValue, Struct,
// ListValue) on the wire; messages.go converts them to and from domain types.
// Server adapts the coordinator to the service, and Watch streams coordinator
// events to subscribed clients.
package security
