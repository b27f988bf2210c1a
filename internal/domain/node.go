package domain

import "fmt"

// Group is the category of a node
type Group int

const (
	GroupAuthor Group = 0
	GroupOutput Group = 1
)

// String returns the group name used in logs and exports
func (g Group) String() string {
	switch g {
	case GroupAuthor:
		return "author"
	case GroupOutput:
		return "output"
	default:
		return fmt.Sprintf("group(%d)", int(g))
	}
}

// Known reports whether the group is one of the defined categories
func (g Group) Known() bool {
	return g == GroupAuthor || g == GroupOutput
}

// Node represents an author or output in the network
type Node struct {
	ID    string `json:"id" yaml:"id" validate:"required,max=128"`
	Name  string `json:"name" yaml:"name" validate:"max=512"`
	Group Group  `json:"group" yaml:"group" validate:"min=0"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
}

// NewNode creates a new node
func NewNode(id, name string, group Group) *Node {
	return &Node{
		ID:    id,
		Name:  name,
		Group: group,
	}
}

// DisplayName returns the name shown in tooltips, falling back to the ID
func (n *Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}
