// Package codec reads and writes graph snapshots in interchange formats.
package codec

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"forceview/internal/domain"
)

// ErrUnknownFormat is returned by Lookup for unsupported formats
var ErrUnknownFormat = errors.New("unknown snapshot format")

// Importer interface for importing snapshots from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.Snapshot, error)
	Format() string
}

// Exporter interface for exporting snapshots to various formats
type Exporter interface {
	Export(snapshot *domain.Snapshot, w io.Writer) error
	Format() string
}

// Codec both imports and exports a format
type Codec interface {
	Importer
	Exporter
}

// Lookup returns the codec for format ("json", "yaml" or "yml")
func Lookup(format string) (Codec, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
}

// normalize fills missing link IDs and empty collections after parsing
func normalize(s *domain.Snapshot) *domain.Snapshot {
	if s.Nodes == nil {
		s.Nodes = make([]domain.Node, 0)
	}
	if s.Links == nil {
		s.Links = make([]domain.Link, 0)
	}
	for i := range s.Links {
		if s.Links[i].ID == "" {
			s.Links[i].ID = s.Links[i].GenerateID()
		}
	}
	return s
}
