// Package refresh stores the live refresh-credential reference for each
// subject in Redis.
//
// # Record format
//
// One key per subject, "<prefix>:<subjectID>", holding a fixed 41-byte value:
// a version byte, the SHA-256 digest of the refresh token and the issue time
// as big-endian unix seconds. The key TTL mirrors the refresh token lifetime,
// so Redis expiry reaps abandoned sessions.
//
// # Failure semantics
//
// Every call is bounded by the store's operation timeout. Any Redis error,
// including a deadline, surfaces as [ErrStoreUnavailable]; a missing key is
// reported as "no match", never as an error. Callers can therefore tell "not
// logged in" apart from "cannot tell right now".
//
// # What this package must NOT do
//
//   - Verify token signatures or parse claims.
//   - Import goToken or jwt.
//   - Store refresh tokens in plaintext.
package refresh
