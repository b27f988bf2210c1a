package repository

import (
	"errors"
	"fmt"
	"strings"

	"forceview/internal/domain"
)

// URL prefixes of the identifiers the store keeps. A node URL is stored as
// the identifier after its prefix.
const (
	ORCIDPrefix = "https://orcid.org/"
	DOIPrefix   = "https://doi.org/"
)

var (
	// ErrUnstorableGroup is returned for nodes that are neither an author
	// nor an output
	ErrUnstorableGroup = errors.New("node group cannot be stored")
	// ErrInvalidAuthorship is returned for links that do not join an author
	// and an output
	ErrInvalidAuthorship = errors.New("link must join an author and an output")
	// ErrUnstorableURL is returned for author URLs outside orcid.org and
	// output URLs outside doi.org
	ErrUnstorableURL = errors.New("node url cannot be stored")
)

// CheckStorable reports the first node or link of snapshot the store cannot
// keep without losing data. Links must already resolve.
func CheckStorable(snapshot *domain.Snapshot) error {
	index, err := snapshot.IndexNodes()
	if err != nil {
		return err
	}

	for _, node := range snapshot.Nodes {
		if err := checkNode(node); err != nil {
			return err
		}
	}

	for i, link := range snapshot.Links {
		src, ok := index[link.Source]
		if !ok {
			return fmt.Errorf("link %d source %q: %w", i, link.Source, domain.ErrUnresolvedLink)
		}
		tgt, ok := index[link.Target]
		if !ok {
			return fmt.Errorf("link %d target %q: %w", i, link.Target, domain.ErrUnresolvedLink)
		}
		if _, _, err := Authorship(snapshot.Nodes[src], snapshot.Nodes[tgt]); err != nil {
			return err
		}
	}
	return nil
}

func checkNode(node domain.Node) error {
	var prefix string
	switch node.Group {
	case domain.GroupAuthor:
		prefix = ORCIDPrefix
	case domain.GroupOutput:
		prefix = DOIPrefix
	default:
		return fmt.Errorf("node %q group %d: %w", node.ID, int(node.Group), ErrUnstorableGroup)
	}
	if node.URL != "" && (!strings.HasPrefix(node.URL, prefix) || node.URL == prefix) {
		return fmt.Errorf("node %q url %q must start with %s: %w", node.ID, node.URL, prefix, ErrUnstorableURL)
	}
	return nil
}

// Authorship orders the endpoints of a link as author and output. Links may
// run in either direction.
func Authorship(a, b domain.Node) (author, output domain.Node, err error) {
	author, output = a, b
	if author.Group == domain.GroupOutput {
		author, output = output, author
	}
	if author.Group != domain.GroupAuthor || output.Group != domain.GroupOutput {
		return author, output, fmt.Errorf("link %s -> %s: %w", a.ID, b.ID, ErrInvalidAuthorship)
	}
	return author, output, nil
}
