package codec

import (
	"errors"
	"fmt"
	"io"

	"forceview/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlSnapshot represents the YAML structure for a snapshot.
// "edges" is accepted as an alias for "links" on import.
type yamlSnapshot struct {
	Nodes []yamlNode `yaml:"nodes"`
	Links []yamlLink `yaml:"links"`
	Edges []yamlLink `yaml:"edges,omitempty"`
}

type yamlNode struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name,omitempty"`
	Group int    `yaml:"group"`
	URL   string `yaml:"url,omitempty"`
}

type yamlLink struct {
	ID     string `yaml:"id,omitempty"`
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// Parse imports a snapshot from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Snapshot, error) {
	var ys yamlSnapshot
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&ys); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	snapshot := domain.NewSnapshot()

	for _, yn := range ys.Nodes {
		snapshot.AddNode(domain.Node{
			ID:    yn.ID,
			Name:  yn.Name,
			Group: domain.Group(yn.Group),
			URL:   yn.URL,
		})
	}

	for _, yl := range append(ys.Links, ys.Edges...) {
		snapshot.AddLink(domain.Link{
			ID:     yl.ID,
			Source: yl.Source,
			Target: yl.Target,
		})
	}

	return normalize(snapshot), nil
}

// Export exports a snapshot to YAML
func (c *YAMLCodec) Export(snapshot *domain.Snapshot, w io.Writer) error {
	ys := yamlSnapshot{
		Nodes: make([]yamlNode, 0, len(snapshot.Nodes)),
		Links: make([]yamlLink, 0, len(snapshot.Links)),
	}

	for _, node := range snapshot.Nodes {
		ys.Nodes = append(ys.Nodes, yamlNode{
			ID:    node.ID,
			Name:  node.Name,
			Group: int(node.Group),
			URL:   node.URL,
		})
	}

	for _, link := range snapshot.Links {
		ys.Links = append(ys.Links, yamlLink{
			ID:     link.ID,
			Source: link.Source,
			Target: link.Target,
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&ys); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
