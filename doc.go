// Package goToken manages the lifecycle of HS512-signed access and refresh
// credentials backed by a revocable Redis record.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Lifecycle
//
// [Engine.Issue] returns an access and a refresh credential and stores a
// SHA-256 reference to the refresh credential under the subject. One subject
// has at most one live refresh credential; a second Issue supersedes the
// first. [Engine.VerifyAccess] is stateless and returns a tagged
// [VerifyResult] that separates Expired from Invalid. [Engine.ReissueAccess]
// trades a live refresh credential for a new access credential without
// rotating the refresh credential. [Engine.Logout] deletes the record.
//
// # Architecture boundaries
//
// goToken is the public surface. It exposes [Engine], [Builder], [Config], and value types
// (Principal, TokenPair, VerifyResult, MetricsSnapshot). Flow orchestration, audit
// dispatch and the reissue throttle live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or encoding details in its public API.
//   - Perform I/O outside of Engine methods (Build does no Redis round trip).
//   - Report a store failure as an unauthorized credential.
//
// # Performance contract
//
// VerifyAccess is the hot path and never touches Redis. Issue, ReissueAccess
// and Logout make one Redis round trip each, plus one with the reissue
// throttle enabled.
package goToken
