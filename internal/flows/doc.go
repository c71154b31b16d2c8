// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunIssue, RunVerify, RunReissue, RunLogout,
// RunVerifyOrReissue) accepts a typed dependency struct and returns a result
// carrying a failure kind. The Engine maps failure kinds to public errors,
// metrics and audit events, which keeps the flows testable with small fakes.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the credential codec, the refresh store
// and the optional reissue throttle. They do NOT own any of these resources;
// ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goToken (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency interfaces.
package flows
