// Package rate provides the Redis-backed reissue throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit, one key per
// subject at "<prefix>:rti:<subject>", where prefix is the refresh store
// prefix. The window starts at the first attempt and the counter is dropped
// by Redis when it ends.
//
// # What this package must NOT do
//
//   - Decide what a failed check means for the caller (the Engine maps it).
//   - Be imported outside the goToken module.
package rate
