// Package auth attaches credentials to endpoint requests and turns expired
// tokens into errors.ErrCodeTokenExpired failures.
//
// A Config implements endpoint.Authorizer:
//
//	e := endpoint.Endpoint{URL: u, Auth: auth.BearerFrom(store.Token)}
//
// TokenPreflight rejects a call whose JWT has already expired, before any
// request is made, and TokenExpiredTransform maps both that rejection and
// 401 responses to a single TokenExpired error for callbacks:
//
//	me := &endpoint.Data[Profile]{
//		Endpoint: endpoint.Endpoint{
//			URL:       u,
//			Auth:      auth.BearerFrom(store.Token),
//			Preflight: auth.TokenPreflight(store.Token, 30*time.Second),
//		},
//		TransformError: auth.TokenExpiredTransform[Profile],
//	}
package auth
