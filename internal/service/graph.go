package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"forceview/internal/codec"
	"forceview/internal/domain"
	"forceview/internal/repository"
)

var (
	// ErrInvalidSnapshot wraps field validation failures
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	// ErrReadOnlySource is returned for imports while a snapshot file is the
	// graph source
	ErrReadOnlySource = errors.New("graph source is a snapshot file")
	// ErrInvalidRecord wraps field validation failures of single records
	ErrInvalidRecord = errors.New("invalid record")
)

// GraphService provides business logic for graph operations
type GraphService struct {
	repo         repository.Repository
	snapshotPath string
	eventBus     *EventBus
	validate     *validator.Validate
}

// NewGraphService creates a graph service reading from repo
func NewGraphService(repo repository.Repository, eventBus *EventBus) *GraphService {
	return &GraphService{
		repo:     repo,
		eventBus: eventBus,
		validate: validator.New(),
	}
}

// WithSnapshotFile makes path the graph source instead of the database
func (s *GraphService) WithSnapshotFile(path string) *GraphService {
	s.snapshotPath = path
	return s
}

// SnapshotFile returns the snapshot file path, empty when reading the database
func (s *GraphService) SnapshotFile() string {
	return s.snapshotPath
}

// Snapshot loads the current graph and checks it is usable for a view:
// fields validate, node ids are unique and every link resolves.
func (s *GraphService) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	var (
		snap *domain.Snapshot
		err  error
	)
	if s.snapshotPath != "" {
		snap, err = LoadSnapshotFile(s.snapshotPath)
	} else {
		snap, err = s.repo.Snapshot(ctx)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Validate(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Validate checks field constraints and link resolution
func (s *GraphService) Validate(snap *domain.Snapshot) error {
	if err := s.validate.Struct(snap); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if _, err := snap.Resolve(); err != nil {
		return err
	}
	return nil
}

// LoadSnapshotFile parses a JSON or YAML snapshot chosen by file extension
func LoadSnapshotFile(path string) (*domain.Snapshot, error) {
	c, err := codec.Lookup(filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	return c.Parse(f)
}

// GetNode retrieves a single node by ID
func (s *GraphService) GetNode(ctx context.Context, id string) (*domain.Node, error) {
	if s.snapshotPath != "" {
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		for i := range snap.Nodes {
			if snap.Nodes[i].ID == id {
				return &snap.Nodes[i], nil
			}
		}
		return nil, fmt.Errorf("node %q: %w", id, domain.ErrNodeNotFound)
	}
	return s.repo.GetNode(ctx, id)
}

// ImportResult represents the result of an import operation
type ImportResult struct {
	Nodes   int    `json:"nodes"`
	Authors int    `json:"authors"`
	Outputs int    `json:"outputs"`
	Links   int    `json:"links"`
	Format  string `json:"format"`
}

// Import parses data in format and replaces the stored graph with it
func (s *GraphService) Import(ctx context.Context, format string, data []byte) (*ImportResult, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}

	c, err := codec.Lookup(format)
	if err != nil {
		return nil, err
	}
	snap, err := c.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := s.Validate(snap); err != nil {
		return nil, err
	}
	if err := repository.CheckStorable(snap); err != nil {
		return nil, err
	}

	if err := s.repo.ImportSnapshot(ctx, snap); err != nil {
		return nil, err
	}

	counts := snap.Counts()
	result := &ImportResult{
		Nodes:   len(snap.Nodes),
		Authors: counts[domain.GroupAuthor],
		Outputs: counts[domain.GroupOutput],
		Links:   len(snap.Links),
		Format:  c.Format(),
	}

	s.eventBus.Publish(Event{
		Type:    EventGraphImported,
		Payload: result,
	})

	return result, nil
}

// Export writes the current graph to w in format
func (s *GraphService) Export(ctx context.Context, format string, w io.Writer) error {
	c, err := codec.Lookup(format)
	if err != nil {
		return err
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	return c.Export(snap, w)
}

// Stats summarizes the stored graph
func (s *GraphService) Stats(ctx context.Context) (*repository.Stats, error) {
	if s.snapshotPath != "" {
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		counts := snap.Counts()
		return &repository.Stats{
			Authors:     counts[domain.GroupAuthor],
			Outputs:     counts[domain.GroupOutput],
			Authorships: len(snap.Links),
		}, nil
	}
	return s.repo.Stats(ctx)
}

// GraphChange describes a single-record edit of the stored graph
type GraphChange struct {
	Action string `json:"action"`
	ID     string `json:"id"`
	Target string `json:"target,omitempty"`
}

func (s *GraphService) writable() error {
	if s.snapshotPath != "" {
		return fmt.Errorf("%w: %s", ErrReadOnlySource, s.snapshotPath)
	}
	return nil
}

// checkKind fails when id is already stored as a node of another group
func (s *GraphService) checkKind(ctx context.Context, id string, group domain.Group) error {
	existing, err := s.repo.GetNode(ctx, id)
	if errors.Is(err, domain.ErrNodeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.Group != group {
		return fmt.Errorf("node %q is stored as %s: %w", id, existing.Group, domain.ErrDuplicateNode)
	}
	return nil
}

func (s *GraphService) changed(change GraphChange) {
	s.eventBus.Publish(Event{Type: EventGraphChanged, Payload: change})
}

// PutAuthor creates or updates an author. An ORCID given as an orcid.org URL
// is stored as the bare identifier.
func (s *GraphService) PutAuthor(ctx context.Context, author *repository.Author) error {
	if err := s.writable(); err != nil {
		return err
	}
	author.ORCID = strings.TrimPrefix(author.ORCID, repository.ORCIDPrefix)
	if err := s.validate.Struct(author); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := s.checkKind(ctx, author.ID, domain.GroupAuthor); err != nil {
		return err
	}
	if err := s.repo.UpsertAuthor(ctx, author); err != nil {
		return err
	}
	s.changed(GraphChange{Action: "put_author", ID: author.ID})
	return nil
}

// PutOutput creates or updates an output. A DOI given as a doi.org URL is
// stored as the bare identifier.
func (s *GraphService) PutOutput(ctx context.Context, output *repository.Output) error {
	if err := s.writable(); err != nil {
		return err
	}
	output.DOI = strings.TrimPrefix(output.DOI, repository.DOIPrefix)
	if err := s.validate.Struct(output); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := s.checkKind(ctx, output.ID, domain.GroupOutput); err != nil {
		return err
	}
	if err := s.repo.UpsertOutput(ctx, output); err != nil {
		return err
	}
	s.changed(GraphChange{Action: "put_output", ID: output.ID})
	return nil
}

// AddAuthorship links a stored author to a stored output
func (s *GraphService) AddAuthorship(ctx context.Context, authorID, outputID string) error {
	if err := s.writable(); err != nil {
		return err
	}
	if err := s.repo.AddAuthorship(ctx, authorID, outputID); err != nil {
		return err
	}
	s.changed(GraphChange{Action: "add_authorship", ID: authorID, Target: outputID})
	return nil
}

// DeleteNode removes a stored node and its links
func (s *GraphService) DeleteNode(ctx context.Context, id string) error {
	if err := s.writable(); err != nil {
		return err
	}
	if err := s.repo.DeleteNode(ctx, id); err != nil {
		return err
	}
	s.changed(GraphChange{Action: "delete_node", ID: id})
	return nil
}

// Clear removes all stored data
func (s *GraphService) Clear(ctx context.Context) error {
	if err := s.writable(); err != nil {
		return err
	}
	if err := s.repo.Clear(ctx); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:    EventGraphCleared,
		Payload: map[string]string{"action": "cleared"},
	})

	return nil
}
