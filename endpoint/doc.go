// Package endpoint describes typed HTTP endpoints and dispatches calls to
// them.
//
// An Endpoint is a declarative descriptor: URL, method, parameters,
// headers, timeout and an optional preflight check. Wrapping it in one of
// the call kinds gives it a result type:
//
//   - Data[T] decodes the response body into a T and classifies the status.
//   - Download streams the body into a file.
//   - Upload sends a raw body, a file or a multipart form.
//
// Every call fans its single Result out to all registered callbacks, in
// registration order, exactly once:
//
//	users := &endpoint.Data[[]User]{
//		Endpoint: endpoint.Endpoint{URL: "https://api.example.com/users"},
//	}
//	done := users.Call(ctx, d, func(r endpoint.Result[[]User]) {
//		list, err := r.Unwrap()
//		...
//	})
//	<-done
//
// Callbacks run on the dispatcher's executor, which by default is a serial
// queue owned by the Dispatcher.
package endpoint
