package topology

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Topology source formats
const (
	FormatYAML     = "yaml"
	FormatNodeLink = "nodelink"
)

// File is the on-disk YAML form of a topology:
//
//	nodes: [1, 2, 3]
//	links:
//	  - [1, 2]
//	  - [2, 3]
type File struct {
	Nodes []NodeID   `yaml:"nodes"`
	Links [][]NodeID `yaml:"links"`
}

// Decode reads a YAML topology. Every link endpoint must be listed under
// nodes; otherwise an error matching ErrUnknownNode is returned.
func Decode(r io.Reader) (*Graph, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return NewGraph(), nil
		}
		return nil, fmt.Errorf("failed to decode topology: %w", err)
	}

	g := NewGraph()
	for _, id := range f.Nodes {
		g.AddNode(id)
	}
	for i, link := range f.Links {
		if len(link) != 2 {
			return nil, fmt.Errorf("link %d: expected 2 endpoints, got %d", i, len(link))
		}
		if _, err := g.AddLink(link[0], link[1]); err != nil {
			return nil, fmt.Errorf("link %d: %w", i, err)
		}
	}
	return g, nil
}

// Encode writes a snapshot in the YAML topology format
func Encode(w io.Writer, snap *Snapshot) error {
	f := File{
		Nodes: snap.Nodes(),
		Links: make([][]NodeID, 0, snap.LinkCount()),
	}
	for _, l := range snap.Links() {
		f.Links = append(f.Links, []NodeID{l.A, l.B})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return fmt.Errorf("failed to encode topology: %w", err)
	}
	return enc.Close()
}

// ReadFile loads a YAML topology file
func ReadFile(path string) (*Graph, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open topology file: %w", err)
	}
	defer file.Close()

	g, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Open loads a topology from path in the given format.
// An empty format is inferred: .yaml/.yml files are YAML, anything else
// is treated as a node/link list prefix.
func Open(path, format string) (*Graph, error) {
	if format == "" {
		format = DetectFormat(path)
	}

	switch format {
	case FormatYAML:
		return ReadFile(path)
	case FormatNodeLink:
		g, _, err := ReadNodeLink(path)
		return g, err
	default:
		return nil, fmt.Errorf("unknown topology format %q", format)
	}
}

// DetectFormat guesses the topology format from a path
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatNodeLink
	}
}

// SourceFiles returns the files backing a topology source, for watching
func SourceFiles(path, format string) []string {
	if format == "" {
		format = DetectFormat(path)
	}
	if format == FormatNodeLink {
		nodes, links := nodeLinkPaths(path)
		return []string{nodes, links}
	}
	return []string{path}
}
