// Package manager wires the world tables, the reducer registry, the
// event broker, and the agent loop behind a single-node Raft cluster.
// Manager.Dispatch is the sole commit path: every reducer call is
// proposed as a raft.Log entry and applied by WorldFSM, giving the
// "commit atomically or fail with no partial effect" contract its
// single-writer guarantee.
package manager
