// Package runtime defines the reducer-dispatch contract: Context (the
// world handle plus caller identity, clock, and rng every reducer runs
// against), the Kind/Error taxonomy reducers report failures through, and
// Registry, the generalized form of the teacher FSM's Command-op switch.
package runtime
