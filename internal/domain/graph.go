package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedLink is returned when a link endpoint names no node
	ErrUnresolvedLink = errors.New("unresolved link endpoint")
	// ErrDuplicateNode is returned when two nodes share an identifier
	ErrDuplicateNode = errors.New("duplicate node id")
	// ErrEmptyNodeID is returned for nodes without an identifier
	ErrEmptyNodeID = errors.New("empty node id")
	// ErrNodeNotFound is returned when an operation names an unknown node
	ErrNodeNotFound = errors.New("node not found")
)

// Snapshot is the fixed node and link collection a view is built from
type Snapshot struct {
	Nodes []Node `json:"nodes" yaml:"nodes" validate:"dive"`
	Links []Link `json:"links" yaml:"links" validate:"dive"`
}

// ResolvedLink is a link whose endpoints have been mapped to node indices
type ResolvedLink struct {
	Index  int
	ID     string
	Source int
	Target int
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Nodes: make([]Node, 0),
		Links: make([]Link, 0),
	}
}

// AddNode adds a node to the snapshot
func (s *Snapshot) AddNode(node Node) {
	s.Nodes = append(s.Nodes, node)
}

// AddLink adds a link to the snapshot
func (s *Snapshot) AddLink(link Link) {
	s.Links = append(s.Links, link)
}

// IndexNodes maps node IDs to their position in Nodes.
// Empty and duplicate IDs are rejected.
func (s *Snapshot) IndexNodes() (map[string]int, error) {
	index := make(map[string]int, len(s.Nodes))
	for i, node := range s.Nodes {
		if node.ID == "" {
			return nil, fmt.Errorf("node at index %d: %w", i, ErrEmptyNodeID)
		}
		if prev, exists := index[node.ID]; exists {
			return nil, fmt.Errorf("node %q at index %d and %d: %w", node.ID, prev, i, ErrDuplicateNode)
		}
		index[node.ID] = i
	}
	return index, nil
}

// Resolve validates the snapshot and maps every link to node indices.
// Any link naming a missing node fails the whole snapshot.
func (s *Snapshot) Resolve() ([]ResolvedLink, error) {
	index, err := s.IndexNodes()
	if err != nil {
		return nil, err
	}

	resolved := make([]ResolvedLink, 0, len(s.Links))
	for i, link := range s.Links {
		src, ok := index[link.Source]
		if !ok {
			return nil, fmt.Errorf("link %d source %q: %w", i, link.Source, ErrUnresolvedLink)
		}
		tgt, ok := index[link.Target]
		if !ok {
			return nil, fmt.Errorf("link %d target %q: %w", i, link.Target, ErrUnresolvedLink)
		}

		id := link.ID
		if id == "" {
			id = link.GenerateID()
		}
		resolved = append(resolved, ResolvedLink{
			Index:  i,
			ID:     id,
			Source: src,
			Target: tgt,
		})
	}
	return resolved, nil
}

// Counts returns the number of nodes per group
func (s *Snapshot) Counts() map[Group]int {
	counts := make(map[Group]int)
	for _, node := range s.Nodes {
		counts[node.Group]++
	}
	return counts
}
