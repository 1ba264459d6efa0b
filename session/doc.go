// Package session provides the pooled transport sessions endpoint calls
// execute on.
//
// A Session is a reusable HTTP execution context configured with a single
// timeout, applied both to establishing the request and to receiving the
// response body. Sessions are shared by every call that declares the same
// timeout and are owned by a Pool:
//
//	pool := session.NewPool(session.WithLogger(log))
//	s := pool.Get(30 * time.Second) // created once, then reused
//	resp := s.Execute(ctx, &session.Request{Method: http.MethodGet, URL: u})
//
// Transport failures never surface as Go errors from Execute. They are
// reported on Response.Err, and a call abandoned on timeout carries the
// reserved StatusTimeout sentinel in place of an HTTP status.
package session
