package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"forceview/internal/domain"
	"forceview/internal/repository"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.Repository = (*Repository)(nil)

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't support concurrent writes; this also keeps a single
	// connection alive for :memory: databases
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	PRAGMA foreign_keys = ON;
	PRAGMA busy_timeout = 5000;

	CREATE TABLE IF NOT EXISTS authors (
		id TEXT PRIMARY KEY,
		first_name TEXT,
		last_name TEXT NOT NULL,
		orcid TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS outputs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		doi TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS authorship (
		author_id TEXT NOT NULL,
		output_id TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (author_id, output_id),
		FOREIGN KEY (author_id) REFERENCES authors(id) ON DELETE CASCADE,
		FOREIGN KEY (output_id) REFERENCES outputs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_authorship_output ON authorship(output_id);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Snapshot loads every author and output as nodes and every authorship as a
// link from the author to the output. Authors come first, then outputs, each
// ordered by id.
func (r *Repository) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	snap := domain.NewSnapshot()

	rows, err := r.db.QueryContext(ctx, `SELECT `+authorColumns+` FROM authors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query authors: %w", err)
	}
	for rows.Next() {
		var row authorRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan author: %w", err)
		}
		snap.AddNode(row.toDomain())
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating authors: %w", err)
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx, `SELECT `+outputColumns+` FROM outputs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query outputs: %w", err)
	}
	for rows.Next() {
		var row outputRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan output: %w", err)
		}
		snap.AddNode(row.toDomain())
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating outputs: %w", err)
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx, `
		SELECT author_id, output_id FROM authorship
		ORDER BY output_id, position, author_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query authorship: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var authorID, outputID string
		if err := rows.Scan(&authorID, &outputID); err != nil {
			return nil, fmt.Errorf("failed to scan authorship: %w", err)
		}
		snap.AddLink(*domain.NewLink(authorID, outputID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating authorship: %w", err)
	}

	return snap, nil
}

// GetNode returns the author or output with id
func (r *Repository) GetNode(ctx context.Context, id string) (*domain.Node, error) {
	var a authorRow
	err := r.db.QueryRowContext(ctx, `SELECT `+authorColumns+` FROM authors WHERE id = ?`, id).
		Scan(a.scanArgs()...)
	if err == nil {
		node := a.toDomain()
		return &node, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query author: %w", err)
	}

	var o outputRow
	err = r.db.QueryRowContext(ctx, `SELECT `+outputColumns+` FROM outputs WHERE id = ?`, id).
		Scan(o.scanArgs()...)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("node %q: %w", id, domain.ErrNodeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query output: %w", err)
	}
	node := o.toDomain()
	return &node, nil
}

// Stats counts stored authors, outputs and authorships
func (r *Repository) Stats(ctx context.Context) (*repository.Stats, error) {
	var s repository.Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM authors),
			(SELECT COUNT(*) FROM outputs),
			(SELECT COUNT(*) FROM authorship)
	`).Scan(&s.Authors, &s.Outputs, &s.Authorships)
	if err != nil {
		return nil, fmt.Errorf("failed to count graph: %w", err)
	}
	return &s, nil
}

const upsertAuthorSQL = `
	INSERT INTO authors (id, first_name, last_name, orcid)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		first_name = excluded.first_name,
		last_name = excluded.last_name,
		orcid = excluded.orcid,
		updated_at = CURRENT_TIMESTAMP
`

const upsertOutputSQL = `
	INSERT INTO outputs (id, title, doi)
	VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		doi = excluded.doi,
		updated_at = CURRENT_TIMESTAMP
`

const insertAuthorshipSQL = `
	INSERT INTO authorship (author_id, output_id, position)
	VALUES (?, ?, (SELECT COUNT(*) FROM authorship WHERE output_id = ?))
	ON CONFLICT(author_id, output_id) DO NOTHING
`

// UpsertAuthor inserts or updates an author
func (r *Repository) UpsertAuthor(ctx context.Context, author *repository.Author) error {
	if _, err := r.db.ExecContext(ctx, upsertAuthorSQL, authorInsertArgs(author)...); err != nil {
		return fmt.Errorf("failed to upsert author: %w", err)
	}
	return nil
}

// UpsertOutput inserts or updates an output
func (r *Repository) UpsertOutput(ctx context.Context, output *repository.Output) error {
	if _, err := r.db.ExecContext(ctx, upsertOutputSQL, outputInsertArgs(output)...); err != nil {
		return fmt.Errorf("failed to upsert output: %w", err)
	}
	return nil
}

// AddAuthorship records that authorID wrote outputID. Adding an existing
// authorship is a no-op. Unknown ids fail with domain.ErrNodeNotFound and
// ids naming the wrong kind of node with repository.ErrInvalidAuthorship.
func (r *Repository) AddAuthorship(ctx context.Context, authorID, outputID string) error {
	for _, end := range []struct{ table, id string }{{"authors", authorID}, {"outputs", outputID}} {
		var found int
		err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+end.table+` WHERE id = ?`, end.id).Scan(&found)
		if err != nil {
			return fmt.Errorf("failed to look up %s: %w", end.id, err)
		}
		if found == 0 {
			if _, err := r.GetNode(ctx, end.id); err != nil {
				return err
			}
			return fmt.Errorf("link %s -> %s: %w", authorID, outputID, repository.ErrInvalidAuthorship)
		}
	}

	if _, err := r.db.ExecContext(ctx, insertAuthorshipSQL, authorID, outputID, outputID); err != nil {
		return fmt.Errorf("failed to add authorship: %w", err)
	}
	return nil
}

// DeleteNode removes an author or output and its authorships
func (r *Repository) DeleteNode(ctx context.Context, id string) error {
	var total int64
	for _, table := range []string{"authors", "outputs"} {
		res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	if total == 0 {
		return fmt.Errorf("node %q: %w", id, domain.ErrNodeNotFound)
	}
	return nil
}

// ImportSnapshot replaces the stored graph with snapshot in one transaction.
// Links may run in either direction between an author and an output. A
// snapshot failing repository.CheckStorable is rejected and nothing is
// written.
func (r *Repository) ImportSnapshot(ctx context.Context, snapshot *domain.Snapshot) error {
	if err := repository.CheckStorable(snapshot); err != nil {
		return err
	}
	index, _ := snapshot.IndexNodes()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := clearTx(ctx, tx); err != nil {
		return err
	}

	for _, node := range snapshot.Nodes {
		if node.Group == domain.GroupAuthor {
			_, err = tx.ExecContext(ctx, upsertAuthorSQL, authorInsertArgs(authorFromNode(node))...)
		} else {
			_, err = tx.ExecContext(ctx, upsertOutputSQL, outputInsertArgs(outputFromNode(node))...)
		}
		if err != nil {
			return fmt.Errorf("failed to import node %s: %w", node.ID, err)
		}
	}

	for _, link := range snapshot.Links {
		author, output, _ := repository.Authorship(
			snapshot.Nodes[index[link.Source]], snapshot.Nodes[index[link.Target]])
		if _, err := tx.ExecContext(ctx, insertAuthorshipSQL, author.ID, output.ID, output.ID); err != nil {
			return fmt.Errorf("failed to import link %s -> %s: %w", link.Source, link.Target, err)
		}
	}

	return tx.Commit()
}

// Clear removes all stored data
func (r *Repository) Clear(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := clearTx(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func clearTx(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"authorship", "outputs", "authors"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
