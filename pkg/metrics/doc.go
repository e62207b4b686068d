// Package metrics exposes the Prometheus collectors every subsystem
// reports through: reducer dispatch latency, agent tick outcomes,
// inventory/building operation counts, and anti-cheat/permission denial
// counters, plus a Timer helper for the common start-now/observe-later
// pattern.
package metrics
