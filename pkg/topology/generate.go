package topology

import (
	"fmt"
	"strconv"
	"strings"
)

// Generator kinds understood by Generate
const (
	KindGrid    = "grid"
	KindFatTree = "fattree"
	KindLinear  = "linear"
)

// Generate builds a synthetic topology from a "kind:size" shape,
// e.g. "grid:3", "fattree:4" or "linear:5"
func Generate(shape string) (*Graph, error) {
	kind, sizeStr, found := strings.Cut(shape, ":")
	if !found {
		return nil, fmt.Errorf("invalid generator shape %q, expected kind:size", shape)
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid generator size %q: %w", sizeStr, err)
	}

	switch strings.ToLower(kind) {
	case KindGrid, "torus":
		return Grid(size)
	case KindFatTree:
		return FatTree(size)
	case KindLinear:
		return Linear(size)
	default:
		return nil, fmt.Errorf("unknown generator %q", kind)
	}
}

// Linear builds a path of n switches numbered 1..n
func Linear(n int) (*Graph, error) {
	if n < 1 {
		return nil, fmt.Errorf("linear topology needs at least 1 switch, got %d", n)
	}

	g := NewGraph()
	for i := 1; i <= n; i++ {
		g.AddNode(NodeID(i))
	}
	for i := 1; i < n; i++ {
		mustLink(g, NodeID(i), NodeID(i+1))
	}
	return g, nil
}

// Grid builds an n x n mesh. Switches are numbered row by row from 1 and
// each one links to its right and lower neighbor (no wrap-around).
func Grid(n int) (*Graph, error) {
	if n < 1 {
		return nil, fmt.Errorf("grid topology needs n >= 1, got %d", n)
	}

	g := NewGraph()
	id := func(row, col int) NodeID { return NodeID(row*n + col + 1) }

	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			g.AddNode(id(row, col))
		}
	}
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			if row < n-1 {
				mustLink(g, id(row, col), id(row+1, col))
			}
			if col < n-1 {
				mustLink(g, id(row, col), id(row, col+1))
			}
		}
	}
	return g, nil
}

// FatTree builds the switch layer of a k-ary fat tree: (k/2)^2 core,
// k*k/2 aggregation and k*k/2 edge switches, numbered in that order from 1.
// Hosts are not part of the switch fabric and are left out.
func FatTree(k int) (*Graph, error) {
	if k < 2 || k%2 != 0 {
		return nil, fmt.Errorf("fat tree needs an even k >= 2, got %d", k)
	}

	half := k / 2
	coreCount := half * half
	podCount := k * k / 2

	g := NewGraph()
	next := NodeID(1)
	layer := func(count int) []NodeID {
		ids := make([]NodeID, count)
		for i := range ids {
			ids[i] = next
			g.AddNode(next)
			next++
		}
		return ids
	}
	core := layer(coreCount)
	agg := layer(podCount)
	edge := layer(podCount)

	for pod := 0; pod < podCount; pod += half {
		for i := 0; i < half; i++ {
			for j := 0; j < half; j++ {
				mustLink(g, core[i*half+j], agg[pod+i])
				mustLink(g, agg[pod+i], edge[pod+j])
			}
		}
	}
	return g, nil
}

// mustLink is only used by generators, which register every node first
func mustLink(g *Graph, a, b NodeID) {
	if _, err := g.AddLink(a, b); err != nil {
		panic(err)
	}
}
