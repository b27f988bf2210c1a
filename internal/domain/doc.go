// Package domain defines the core types for the forceview author/output network.
//
// # Core Types
//
// Node is a vertex of the network: an author (GroupAuthor) or a research
// output (GroupOutput), carrying an identifier and a display name.
//
// Link connects an author to an output they contributed to. Links reference
// nodes by identifier and are resolved to node indices before any layout runs.
//
// Snapshot is the fixed node/link collection a view is built from. It is the
// wire format accepted by the importers and served to browser clients.
//
// # Resolution
//
// Snapshot.Resolve checks that node identifiers are non-empty and unique and that
// every link endpoint names an existing node. Violations are reported with the
// sentinel errors in this package so callers can map them with errors.Is.
//
// # Design Principles
//
// - No database or rendering dependencies
// - Snapshots are values; views copy what they need and never write back
package domain
