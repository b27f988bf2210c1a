// Package repository defines the data access interface for the author and
// output graph.
//
// The store keeps authors, research outputs and the authorship relation
// between them. A view never writes to it: the server reads one Snapshot when
// a view is built. Imports replace the stored graph wholesale; the edit
// endpoints upsert single authors and outputs, add authorships and delete
// nodes.
//
// Only what round-trips is stored. CheckStorable rejects nodes outside
// groups 0 and 1, links that do not join an author and an output, and URLs
// other than orcid.org for authors and doi.org for outputs. Identifiers are
// stored without their URL prefix.
//
// # SQLite Implementation
//
// The sqlite subpackage implements Repository on modernc.org/sqlite. It
// creates its schema on open and runs imports in a single transaction.
//
// # Testing
//
// The sqlite repository is tested against in-memory databases.
package repository
