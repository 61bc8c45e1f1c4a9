// Package connection talks to the Timi backend over HTTP.
//
//   - http.go: HTTPClient with base URL, timeout, client ID and metrics
//   - auth.go: AuthClient (POST /login, /register)
//   - tasks.go: TaskClient (GET/POST /tasks/ with a bearer token)
//
// Backend statuses are mapped to domain errors here so the service layer
// never sees HTTP.
package connection
