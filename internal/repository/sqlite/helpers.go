package sqlite

import (
	"database/sql"
	"strings"

	"forceview/internal/domain"
	"forceview/internal/repository"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ============================================================================
// Name Helpers
// ============================================================================

// splitName splits a display name at its last space into first and last name.
// Single-word names are stored as a last name.
func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	i := strings.LastIndexByte(name, ' ')
	if i < 0 {
		return "", name
	}
	return strings.TrimSpace(name[:i]), name[i+1:]
}

// joinName builds the display name of an author
func joinName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

// ============================================================================
// Author Row Scanner
// ============================================================================
//
// CRITICAL: Column order must match between authorColumns and scanArgs().
// Same pattern applies to outputs.

// authorRow holds all columns from an author query for scanning
type authorRow struct {
	ID        string
	FirstName sql.NullString
	LastName  string
	ORCID     sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match authorColumns order exactly: id, first_name, last_name, orcid
func (r *authorRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,        // 1
		&r.FirstName, // 2
		&r.LastName,  // 3
		&r.ORCID,     // 4
	}
}

// toDomain converts the scanned row to a group 0 node
func (r *authorRow) toDomain() domain.Node {
	node := domain.Node{
		ID:    r.ID,
		Name:  joinName(nullToString(r.FirstName), r.LastName),
		Group: domain.GroupAuthor,
	}
	if orcid := nullToString(r.ORCID); orcid != "" {
		node.URL = repository.ORCIDPrefix + orcid
	}
	return node
}

// authorColumns is the SELECT column list for author queries
const authorColumns = `id, first_name, last_name, orcid`

// ============================================================================
// Output Row Scanner
// ============================================================================

// outputRow holds all columns from an output query for scanning
type outputRow struct {
	ID    string
	Title string
	DOI   sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match outputColumns order exactly: id, title, doi
func (r *outputRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,    // 1
		&r.Title, // 2
		&r.DOI,   // 3
	}
}

// toDomain converts the scanned row to a group 1 node
func (r *outputRow) toDomain() domain.Node {
	node := domain.Node{
		ID:    r.ID,
		Name:  r.Title,
		Group: domain.GroupOutput,
	}
	if doi := nullToString(r.DOI); doi != "" {
		node.URL = repository.DOIPrefix + doi
	}
	return node
}

// outputColumns is the SELECT column list for output queries
const outputColumns = `id, title, doi`

// ============================================================================
// Write Helpers
// ============================================================================

// authorInsertArgs prepares arguments for author UPSERT
// Returns: id, first_name, last_name, orcid
func authorInsertArgs(a *repository.Author) []interface{} {
	return []interface{}{
		a.ID,
		stringToNull(a.FirstName),
		a.LastName,
		stringToNull(a.ORCID),
	}
}

// outputInsertArgs prepares arguments for output UPSERT
// Returns: id, title, doi
func outputInsertArgs(o *repository.Output) []interface{} {
	return []interface{}{
		o.ID,
		o.Title,
		stringToNull(o.DOI),
	}
}

// authorFromNode maps a group 0 snapshot node to an author record. The node
// must have passed repository.CheckStorable.
func authorFromNode(n domain.Node) *repository.Author {
	first, last := splitName(n.DisplayName())
	a := &repository.Author{ID: n.ID, FirstName: first, LastName: last}
	a.ORCID = strings.TrimPrefix(n.URL, repository.ORCIDPrefix)
	return a
}

// outputFromNode maps a group 1 snapshot node to an output record. The node
// must have passed repository.CheckStorable.
func outputFromNode(n domain.Node) *repository.Output {
	o := &repository.Output{ID: n.ID, Title: n.DisplayName()}
	o.DOI = strings.TrimPrefix(n.URL, repository.DOIPrefix)
	return o
}
