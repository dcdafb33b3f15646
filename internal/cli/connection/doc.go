// Package connection talks to the SDN controller.
//
//   - auth.go: AuthSession, Keystone v2/v3 password authentication
//   - http.go: HTTPClient, authenticated JSON requests with timing,
//     rate limiting and a single re-authentication on 401
//   - manager.go: per-invocation owner of the session and client
package connection
