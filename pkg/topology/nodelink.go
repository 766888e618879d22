package topology

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// nodeLinkPaths maps a prefix like "topos/zib54" to its two list files
func nodeLinkPaths(prefix string) (nodes, links string) {
	return prefix + "-node.txt", prefix + "-link.txt"
}

// ReadNodeLink loads a topology stored as a pair of whitespace separated
// lists, <prefix>-node.txt and <prefix>-link.txt, in the format used by
// public topology zoo dumps (zib54, ta2).
//
// Node lines start with the switch name. Link lines are
// "<link-name> <anything> <src-name> <dst-name> ...".
// Switches are numbered from 1 in node file order. Blank lines and lines
// starting with '#' are ignored.
func ReadNodeLink(prefix string) (*Graph, map[string]NodeID, error) {
	nodesPath, linksPath := nodeLinkPaths(prefix)

	nodesFile, err := os.Open(nodesPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open node list: %w", err)
	}
	defer nodesFile.Close()

	linksFile, err := os.Open(linksPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open link list: %w", err)
	}
	defer linksFile.Close()

	return ParseNodeLink(nodesFile, linksFile)
}

// ParseNodeLink parses node and link lists, see ReadNodeLink
func ParseNodeLink(nodes, links io.Reader) (*Graph, map[string]NodeID, error) {
	g := NewGraph()
	names := make(map[string]NodeID)

	err := eachFields(nodes, func(lineNo int, fields []string) error {
		name := fields[0]
		if _, dup := names[name]; dup {
			return nil
		}
		id := NodeID(len(names) + 1)
		names[name] = id
		g.AddNode(id)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("node list: %w", err)
	}

	err = eachFields(links, func(lineNo int, fields []string) error {
		if len(fields) < 4 {
			return fmt.Errorf("line %d: expected at least 4 fields, got %d", lineNo, len(fields))
		}
		src, ok := names[fields[2]]
		if !ok {
			return fmt.Errorf("line %d: switch %q: %w", lineNo, fields[2], ErrUnknownNode)
		}
		dst, ok := names[fields[3]]
		if !ok {
			return fmt.Errorf("line %d: switch %q: %w", lineNo, fields[3], ErrUnknownNode)
		}
		_, err := g.AddLink(src, dst)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("link list: %w", err)
	}

	return g, names, nil
}

func eachFields(r io.Reader, fn func(lineNo int, fields []string) error) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(lineNo, strings.Fields(line)); err != nil {
			return err
		}
	}
	return scanner.Err()
}
