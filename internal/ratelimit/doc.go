// Package ratelimit provides per-domain request pacing with
// exponential backoff on failure, decay on success, and an optional
// global requests-per-second ceiling.
package ratelimit
