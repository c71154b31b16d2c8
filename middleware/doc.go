// Package middleware adapts goToken.Engine to net/http.
//
//   - [Guard] verifies the access header and, on expiry, reissues from the
//     refresh header, returning the new access credential in the response.
//   - [RequireAccess] verifies the access header only and never reaches Redis.
//   - [RequireRole] checks a role in the verified claims.
//
// Header names come from the engine's Transport config. Errors are mapped to
// status codes by [StatusFor]; response bodies carry the status text only.
package middleware
