package codec

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"forceview/internal/domain"
)

const jsonSnapshot = `{
  "nodes": [
    {"id": "A1", "name": "Ada Lovelace", "group": 0},
    {"id": "O7", "name": "Notes", "group": 1}
  ],
  "links": [
    {"source": "A1", "target": "O7"}
  ]
}`

const yamlSnapshotDoc = `
nodes:
  - id: A1
    name: Ada Lovelace
    group: 0
  - id: O7
    name: Notes
    group: 1
    url: https://doi.org/10.1000/ae
edges:
  - source: A1
    target: O7
`

func TestJSONParse(t *testing.T) {
	snap, err := NewJSONCodec().Parse(strings.NewReader(jsonSnapshot))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(snap.Nodes) != 2 || len(snap.Links) != 1 {
		t.Fatalf("expected 2 nodes and 1 link, got %d and %d", len(snap.Nodes), len(snap.Links))
	}
	if snap.Nodes[1].Group != domain.GroupOutput {
		t.Errorf("expected O7 in output group, got %v", snap.Nodes[1].Group)
	}
	if want := domain.NewLink("A1", "O7").ID; snap.Links[0].ID != want {
		t.Errorf("expected generated link id %s, got %s", want, snap.Links[0].ID)
	}
}

func TestJSONParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"nodes": [`},
		{"unknown field", `{"vertices": []}`},
		{"wrong type", `{"nodes": [{"id": "A1", "group": "author"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewJSONCodec().Parse(strings.NewReader(tt.input)); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestYAMLParse(t *testing.T) {
	snap, err := NewYAMLCodec().Parse(strings.NewReader(yamlSnapshotDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(snap.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(snap.Nodes))
	}
	if snap.Nodes[0].Name != "Ada Lovelace" || snap.Nodes[0].Group != domain.GroupAuthor {
		t.Errorf("unexpected first node %+v", snap.Nodes[0])
	}
	if snap.Nodes[1].URL != "https://doi.org/10.1000/ae" {
		t.Errorf("expected url to be parsed, got %q", snap.Nodes[1].URL)
	}
	if len(snap.Links) != 1 || snap.Links[0].Source != "A1" || snap.Links[0].Target != "O7" {
		t.Errorf("expected edges alias to populate links, got %+v", snap.Links)
	}
	if _, err := snap.Resolve(); err != nil {
		t.Errorf("parsed snapshot does not resolve: %v", err)
	}
}

func TestYAMLParseEmpty(t *testing.T) {
	snap, err := NewYAMLCodec().Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(snap.Nodes) != 0 || len(snap.Links) != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
}

func TestExportParse(t *testing.T) {
	snap := domain.NewSnapshot()
	snap.AddNode(*domain.NewNode("A1", "Ada Lovelace", domain.GroupAuthor))
	snap.AddNode(*domain.NewNode("O7", "Notes", domain.GroupOutput))
	snap.AddLink(*domain.NewLink("A1", "O7"))

	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			c, err := Lookup(format)
			if err != nil {
				t.Fatalf("Lookup failed: %v", err)
			}

			var buf bytes.Buffer
			if err := c.Export(snap, &buf); err != nil {
				t.Fatalf("Export failed: %v", err)
			}
			got, err := c.Parse(&buf)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}

			if len(got.Nodes) != 2 || got.Nodes[0].ID != "A1" || got.Nodes[1].Name != "Notes" {
				t.Errorf("unexpected nodes %+v", got.Nodes)
			}
			if len(got.Links) != 1 || got.Links[0].ID != snap.Links[0].ID {
				t.Errorf("unexpected links %+v", got.Links)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"json", "json"},
		{".json", "json"},
		{"YAML", "yaml"},
		{"yml", "yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			c, err := Lookup(tt.format)
			if err != nil {
				t.Fatalf("Lookup(%q) failed: %v", tt.format, err)
			}
			if c.Format() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, c.Format())
			}
		})
	}

	if _, err := Lookup("csv"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}
