// Package jwt encodes and verifies HS512-signed credentials and classifies
// verification outcomes as valid, expired or invalid.
//
// # Architecture boundaries
//
// This package owns the token wire format (JWS compact, claims sub, roles,
// iat, exp, jti, typ) and signing-key derivation. It performs no I/O and knows
// nothing about the refresh store or issuance policy.
//
// # What this package must NOT do
//
//   - Access Redis or any I/O.
//   - Import goToken, refresh, or internal packages.
//   - Mutate a [Manager] after construction.
package jwt
