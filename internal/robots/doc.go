// Package robots implements a per-domain robots.txt cache with TTL
// expiry and single-flight fetch de-duplication. The fallback policy
// when robots.txt cannot be retrieved is the FailOpen constant.
package robots
