// Package structural scores the similarity of two canonical trees by the overlap of their
// Merkle subtree hashes, refined by a bounded tree edit distance for near-miss cases.
package structural

import (
	"context"
	"encoding/binary"
	"math"
	"sort"

	"github.com/Ammarkarimi/plagarism-detector/internal/canon"
	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	"github.com/cespare/xxhash/v2"
)

type Comparator struct {
	// Floor is the overlap ratio below which the edit-distance refinement runs
	Floor float64
	// NearMatch is the minimum pair similarity counted by the refinement
	NearMatch   float64
	TopN        int
	TEDMaxNodes int
	// TEDBudget caps the forest-distance cells of one refinement; 0 disables the cap
	TEDBudget int64
	MaxNodes  int
}

func Default() Comparator {
	return Comparator{
		Floor:       0.5,
		NearMatch:   0.8,
		TopN:        8,
		TEDMaxNodes: 256,
		TEDBudget:   250_000_000,
		MaxNodes:    200_000,
	}
}

// Similarity returns the structural similarity of a and b in percent. It fails with a
// ResourceLimitError when the refinement would exceed TEDBudget, and with ctx's error when
// ctx ends during the refinement.
func (c Comparator) Similarity(ctx context.Context, a, b *canon.Tree) (float64, error) {
	for _, t := range []*canon.Tree{a, b} {
		if c.MaxNodes > 0 && t.Size() > c.MaxNodes {
			return 0, &models.ResourceLimitError{Resource: "canonical tree nodes", Limit: int64(c.MaxNodes), Actual: int64(t.Size())}
		}
	}

	ia, ib := index(a.Root), index(b.Root)
	if ia.root.hash == ib.root.hash {
		return 100, nil
	}

	var shared int
	for h, ea := range ia.entries {
		if eb, ok := ib.entries[h]; ok {
			shared += min(ea.count, eb.count) * ea.size
		}
	}
	overlap := 2 * float64(shared) / float64(ia.total+ib.total)

	if overlap < c.Floor && c.TopN > 0 {
		refined, err := c.refine(ctx, ia, ib)
		if err != nil {
			return 0, err
		}
		overlap = math.Max(overlap, refined)
	}
	return math.Min(100, math.Max(0, overlap*100)), nil
}

// hnode is a canonical node annotated with its subtree hash and size. Children of unordered
// nodes are sorted by hash.
type hnode struct {
	hash     uint64
	size     int
	label    string
	children []*hnode
	post     *postorder
}

func (h *hnode) order() *postorder {
	if h.post == nil {
		h.post = newPostorder(h)
	}
	return h.post
}

type entry struct {
	count int
	size  int
}

type indexed struct {
	root    *hnode
	entries map[uint64]*entry
	// sum of subtree sizes over all nodes
	total int
	nodes int
}

func index(root *canon.Node) *indexed {
	ix := &indexed{entries: make(map[uint64]*entry)}
	ix.root = ix.hash(root)
	return ix
}

func (ix *indexed) hash(n *canon.Node) *hnode {
	h := &hnode{size: 1, label: n.Kind + "\x00" + n.Value}
	h.children = make([]*hnode, len(n.Children))
	for i, c := range n.Children {
		h.children[i] = ix.hash(c)
		h.size += h.children[i].size
	}
	if !n.Ordered {
		sort.SliceStable(h.children, func(i, j int) bool { return h.children[i].hash < h.children[j].hash })
	}

	d := xxhash.New()
	_, _ = d.WriteString(h.label)
	if n.Ordered {
		_, _ = d.Write([]byte{0, 1})
	} else {
		_, _ = d.Write([]byte{0, 0})
	}
	var buf [8]byte
	for _, c := range h.children {
		binary.LittleEndian.PutUint64(buf[:], c.hash)
		_, _ = d.Write(buf[:])
	}
	h.hash = d.Sum64()

	e, ok := ix.entries[h.hash]
	if !ok {
		e = &entry{size: h.size}
		ix.entries[h.hash] = e
	}
	e.count++
	ix.total += h.size
	ix.nodes++
	return h
}
