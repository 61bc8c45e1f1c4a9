// Package domain defines the core domain models for the Timi client.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - Token: structural checks for compact three-segment bearer tokens
//   - UserProfile: the identity shown to the user, cached next to the token
//   - SessionState: the Anonymous / Authenticated snapshot
//   - Route, Decision: inputs and outputs of the route guard
//   - Task: dashboard items returned by the backend
//   - Errors: domain error kinds with stable codes
package domain
