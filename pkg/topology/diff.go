package topology

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Diff describes how to get from one topology snapshot to another
type Diff struct {
	AddedNodes   []NodeID `json:"addedNodes"`
	RemovedNodes []NodeID `json:"removedNodes"`
	AddedLinks   []Link   `json:"addedLinks"`
	RemovedLinks []Link   `json:"removedLinks"`
}

// Empty reports whether the diff changes nothing
func (d Diff) Empty() bool {
	return len(d.AddedNodes) == 0 && len(d.RemovedNodes) == 0 &&
		len(d.AddedLinks) == 0 && len(d.RemovedLinks) == 0
}

// Compare computes the diff that turns prev into next.
// A nil prev is treated as an empty topology.
func Compare(prev, next *Snapshot) Diff {
	if prev == nil {
		prev = &Snapshot{adj: map[NodeID][]NodeID{}}
	}

	d := Diff{
		AddedNodes:   make([]NodeID, 0),
		RemovedNodes: make([]NodeID, 0),
		AddedLinks:   make([]Link, 0),
		RemovedLinks: make([]Link, 0),
	}

	for _, id := range next.nodes {
		if !prev.Has(id) {
			d.AddedNodes = append(d.AddedNodes, id)
		}
	}
	for _, id := range prev.nodes {
		if !next.Has(id) {
			d.RemovedNodes = append(d.RemovedNodes, id)
		}
	}

	prevLinks := make(map[Link]bool, prev.links)
	for _, l := range prev.Links() {
		prevLinks[l] = true
	}
	for _, l := range next.Links() {
		if prevLinks[l] {
			delete(prevLinks, l)
			continue
		}
		d.AddedLinks = append(d.AddedLinks, l)
	}
	// Whatever is left only exists in prev; walk prev again to keep order
	for _, l := range prev.Links() {
		if prevLinks[l] {
			d.RemovedLinks = append(d.RemovedLinks, l)
		}
	}

	return d
}

// Hash fingerprints the snapshot contents; equal topologies hash equal
func (s *Snapshot) Hash() string {
	h := sha256.New()
	buf := make([]byte, 8)
	for _, id := range s.nodes {
		binary.BigEndian.PutUint64(buf, uint64(id))
		h.Write([]byte{'n'})
		h.Write(buf)
	}
	for _, l := range s.Links() {
		h.Write([]byte{'l'})
		binary.BigEndian.PutUint64(buf, uint64(l.A))
		h.Write(buf)
		binary.BigEndian.PutUint64(buf, uint64(l.B))
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
