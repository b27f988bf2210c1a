package domain

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Link connects a source node to a target node by identifier.
// Authorship links run from the author to the output.
type Link struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Source string `json:"source" yaml:"source" validate:"required"`
	Target string `json:"target" yaml:"target" validate:"required"`
}

// NewLink creates a new link with a generated ID
func NewLink(source, target string) *Link {
	link := &Link{
		Source: source,
		Target: target,
	}
	link.ID = link.GenerateID()
	return link
}

// GenerateID creates a deterministic ID for the link based on its endpoints.
// Direction matters: author->output and output->author hash differently.
func (l *Link) GenerateID() string {
	sum := blake2b.Sum256([]byte(l.Source + "|" + l.Target))
	return hex.EncodeToString(sum[:8])
}
