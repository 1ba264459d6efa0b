// Package observability traces and measures endpoint calls with
// OpenTelemetry.
//
// Setup installs OTLP/HTTP exporting providers and returns call hooks
// bound to them:
//
//	tel, err := observability.Setup(ctx, observability.Config{Endpoint: "otel:4318", Insecure: true})
//	defer tel.Shutdown(ctx)
//	d := endpoint.NewDispatcher(cfg, endpoint.WithHooks(tel.Hooks))
//
// NewCallTracer builds the same hooks on providers configured elsewhere.
// Every call that passes preflight gets a client span and is counted in
// the apifire.calls.* instruments.
package observability
