// Package component defines the lifecycle interfaces shared by long-lived
// apifire objects.
//
// A Component can be started, stopped and asked for its health. The
// endpoint.Dispatcher implements it so that a host application can manage
// it next to its other infrastructure.
package component
