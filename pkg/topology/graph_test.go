package topology

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

func TestNewGraph(t *testing.T) {
	g := NewGraph()
	if g == nil {
		t.Fatal("NewGraph() returned nil")
	}

	if g.NodeCount() != 0 {
		t.Errorf("New graph should have 0 nodes, got %d", g.NodeCount())
	}
	if g.LinkCount() != 0 {
		t.Errorf("New graph should have 0 links, got %d", g.LinkCount())
	}
}

func TestAddNode(t *testing.T) {
	g := NewGraph()

	if !g.AddNode(7) {
		t.Error("AddNode(7) should report a new node")
	}
	if g.AddNode(7) {
		t.Error("AddNode(7) twice should report an existing node")
	}
	if g.NodeCount() != 1 {
		t.Errorf("Expected 1 node, got %d", g.NodeCount())
	}
	if !g.HasNode(7) {
		t.Error("Node 7 not found in graph")
	}
}

func TestAddLinkIsSymmetric(t *testing.T) {
	g := NewGraph()
	g.AddNode(1)
	g.AddNode(2)

	added, err := g.AddLink(1, 2)
	if err != nil {
		t.Fatalf("Failed to add link: %v", err)
	}
	if !added {
		t.Error("First AddLink should report a new link")
	}

	snap := g.Snapshot()
	if !reflect.DeepEqual(snap.Neighbors(1), []NodeID{2}) {
		t.Errorf("Expected neighbors of 1 to be [2], got %v", snap.Neighbors(1))
	}
	if !reflect.DeepEqual(snap.Neighbors(2), []NodeID{1}) {
		t.Errorf("Expected neighbors of 2 to be [1], got %v", snap.Neighbors(2))
	}
}

func TestAddLinkIdempotent(t *testing.T) {
	g := NewGraph()
	g.AddNode(1)
	g.AddNode(2)

	_, _ = g.AddLink(1, 2)
	added, err := g.AddLink(1, 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if added {
		t.Error("Duplicate AddLink should not report a new link")
	}
	// The reverse direction is the same undirected link
	added, _ = g.AddLink(2, 1)
	if added {
		t.Error("Reverse AddLink should not report a new link")
	}

	if g.Degree(1) != 1 || g.Degree(2) != 1 {
		t.Errorf("Expected degree 1 for both nodes, got %d and %d", g.Degree(1), g.Degree(2))
	}
	if g.LinkCount() != 1 {
		t.Errorf("Expected 1 link, got %d", g.LinkCount())
	}
}

func TestAddLinkUnknownNode(t *testing.T) {
	g := NewGraph()
	g.AddNode(1)

	_, err := g.AddLink(1, 99)
	if !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("Expected ErrUnknownNode, got %v", err)
	}

	var unknown *UnknownNodeError
	if !errors.As(err, &unknown) || unknown.Node != 99 {
		t.Errorf("Expected UnknownNodeError for node 99, got %v", err)
	}
	if g.HasNode(99) {
		t.Error("Rejected link must not register its endpoint")
	}
}

func TestSelfLinkIgnored(t *testing.T) {
	g := NewGraph()
	g.AddNode(1)

	added, err := g.AddLink(1, 1)
	if err != nil || added {
		t.Errorf("Self link should be ignored, got added=%v err=%v", added, err)
	}
	if g.Degree(1) != 0 {
		t.Errorf("Expected degree 0, got %d", g.Degree(1))
	}
}

func TestRemoveNodeDropsLinks(t *testing.T) {
	g, _ := Linear(3)

	if !g.RemoveNode(2) {
		t.Fatal("RemoveNode(2) should succeed")
	}
	if g.LinkCount() != 0 {
		t.Errorf("Expected 0 links after removing the middle switch, got %d", g.LinkCount())
	}
	if g.Degree(1) != 0 || g.Degree(3) != 0 {
		t.Error("Leaf switches should be isolated")
	}
	if g.RemoveNode(2) {
		t.Error("Removing an unknown node should report false")
	}
}

func TestRemoveLink(t *testing.T) {
	g, _ := Linear(3)

	if !g.RemoveLink(3, 2) {
		t.Fatal("RemoveLink(3, 2) should succeed")
	}
	if g.RemoveLink(2, 3) {
		t.Error("Removing a missing link should report false")
	}
	if g.LinkCount() != 1 {
		t.Errorf("Expected 1 link, got %d", g.LinkCount())
	}
}

func TestSnapshotIsolation(t *testing.T) {
	g, _ := Linear(2)
	snap := g.Snapshot()

	g.AddNode(3)
	_, _ = g.AddLink(2, 3)

	if snap.NodeCount() != 2 || snap.LinkCount() != 1 {
		t.Errorf("Snapshot changed after graph mutation: %d nodes, %d links", snap.NodeCount(), snap.LinkCount())
	}
	if snap.Has(3) {
		t.Error("Snapshot should not see node added later")
	}

	nodes := snap.Nodes()
	nodes[0] = 42
	if snap.Nodes()[0] != 1 {
		t.Error("Nodes() must return a copy")
	}
}

func TestSnapshotIsolatedNodes(t *testing.T) {
	g := NewGraph()
	g.AddNode(3)
	g.AddNode(1)

	snap := g.Snapshot()
	if !reflect.DeepEqual(snap.Nodes(), []NodeID{1, 3}) {
		t.Errorf("Expected sorted nodes [1 3], got %v", snap.Nodes())
	}
	if !snap.Has(1) || snap.Degree(1) != 0 {
		t.Error("Isolated node should be present with degree 0")
	}
	if len(snap.Links()) != 0 {
		t.Errorf("Expected no links, got %v", snap.Links())
	}
}

func TestComponents(t *testing.T) {
	g := NewGraph()
	for i := NodeID(1); i <= 5; i++ {
		g.AddNode(i)
	}
	_, _ = g.AddLink(4, 5)
	_, _ = g.AddLink(1, 2)

	want := [][]NodeID{{1, 2}, {3}, {4, 5}}
	if got := g.Components(); !reflect.DeepEqual(got, want) {
		t.Errorf("Components() = %v, want %v", got, want)
	}
}

func TestConcurrentMutationAndSnapshot(t *testing.T) {
	g := NewGraph()
	for i := NodeID(1); i <= 50; i++ {
		g.AddNode(i)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := NodeID(1); i < 50; i++ {
			_, _ = g.AddLink(i, i+1)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			snap := g.Snapshot()
			// Every snapshot must be internally symmetric
			for _, u := range snap.Nodes() {
				for _, v := range snap.Neighbors(u) {
					found := false
					for _, w := range snap.Neighbors(v) {
						if w == u {
							found = true
						}
					}
					if !found {
						t.Errorf("Asymmetric snapshot: %d-%d", u, v)
						return
					}
				}
			}
		}
	}()
	wg.Wait()

	if g.LinkCount() != 49 {
		t.Errorf("Expected 49 links, got %d", g.LinkCount())
	}
}
