// Package version reports the apifire library version.
//
// When apifire is built as a dependency the version comes from the
// module's build info. It can be overridden at build time:
//
//	go build -ldflags "-X github.com/kbukum/apifire/version.Version=1.0.0"
package version
