// Package service implements the client-side session core.
//
//   - JWTDecoder reads identity claims from a bearer token without
//     verifying it.
//   - SessionController owns the single SessionState and keeps it in step
//     with the token store.
//   - RouteGuard decides whether a view may be shown for a given state.
//   - AuthService and TaskService drive the backend and feed results into
//     the controller.
package service
