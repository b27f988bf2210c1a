package view

import (
	"errors"
	"fmt"

	"forceview/internal/domain"
)

// ErrUnknownGroup is returned when a node's group has no route
var ErrUnknownGroup = errors.New("no route for node group")

// Routes maps node groups to detail page path prefixes
type Routes map[domain.Group]string

// DefaultRoutes sends authors to /authors/{id} and outputs to /outputs/{id}
func DefaultRoutes() Routes {
	return Routes{
		domain.GroupAuthor: "/authors/",
		domain.GroupOutput: "/outputs/",
	}
}

// Resolve returns the detail location for a node
func (r Routes) Resolve(node domain.Node) (string, error) {
	prefix, ok := r[node.Group]
	if !ok {
		return "", fmt.Errorf("node %q group %d: %w", node.ID, int(node.Group), ErrUnknownGroup)
	}
	return prefix + node.ID, nil
}

// Navigator performs the navigation side effect of a double-click
type Navigator interface {
	Navigate(location string) error
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(location string) error

// Navigate implements Navigator
func (f NavigatorFunc) Navigate(location string) error {
	return f(location)
}
