package structural

import (
	"context"
	"sort"

	"github.com/Ammarkarimi/plagarism-detector/internal/models"
)

// subtrees smaller than this carry too little structure to count as a near match
const minRefineSize = 4

// refine matches the largest bounded subtrees of both trees by tree edit distance and returns
// the share of all nodes covered by pairs at least NearMatch similar. The Zhang-Shasha work of
// all pairs is summed up front and checked against TEDBudget before any distance is computed.
func (c Comparator) refine(ctx context.Context, a, b *indexed) (float64, error) {
	pa := c.pick(a.root)
	pb := c.pick(b.root)
	if len(pa) == 0 || len(pb) == 0 {
		return 0, nil
	}

	type pair struct {
		i, j   int
		sim    float64
		weight int
		lo, hi uint64
	}
	var pending []pair
	var pairs []pair
	var work int64
	for i, x := range pa {
		for j, y := range pb {
			lo, hi := x.hash, y.hash
			if lo > hi {
				lo, hi = hi, lo
			}
			p := pair{i: i, j: j, weight: x.size + y.size, lo: lo, hi: hi}
			switch {
			case x.hash == y.hash:
				p.sim = 1
				pairs = append(pairs, p)
			case similarityBound(x.size, y.size) < c.NearMatch:
				// the size difference alone keeps this pair below NearMatch
			default:
				work += x.order().work * y.order().work
				pending = append(pending, p)
			}
		}
	}
	if c.TEDBudget > 0 && work > c.TEDBudget {
		return 0, &models.ResourceLimitError{Resource: "tree edit distance work", Limit: c.TEDBudget, Actual: work}
	}

	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		p.sim = 1 - float64(distance(pa[p.i].order(), pb[p.j].order()))/float64(max(pa[p.i].size, pb[p.j].size))
		if p.sim >= c.NearMatch {
			pairs = append(pairs, p)
		}
	}
	sort.Slice(pairs, func(p, q int) bool {
		switch {
		case pairs[p].sim != pairs[q].sim:
			return pairs[p].sim > pairs[q].sim
		case pairs[p].weight != pairs[q].weight:
			return pairs[p].weight > pairs[q].weight
		case pairs[p].lo != pairs[q].lo:
			return pairs[p].lo < pairs[q].lo
		default:
			return pairs[p].hi < pairs[q].hi
		}
	})

	usedA := make([]bool, len(pa))
	usedB := make([]bool, len(pb))
	var matched float64
	for _, p := range pairs {
		if usedA[p.i] || usedB[p.j] {
			continue
		}
		usedA[p.i], usedB[p.j] = true, true
		matched += p.sim * float64(p.weight)
	}
	return matched / float64(a.nodes+b.nodes), nil
}

// similarityBound is the best similarity two trees of these sizes can reach, since their
// edit distance is at least the size difference
func similarityBound(sa, sb int) float64 {
	diff := sa - sb
	if diff < 0 {
		diff = -diff
	}
	return 1 - float64(diff)/float64(max(sa, sb))
}

// pick returns up to TopN of the largest disjoint subtrees with at most TEDMaxNodes nodes
func (c Comparator) pick(root *hnode) []*hnode {
	var candidates []*hnode
	var walk func(n *hnode)
	walk = func(n *hnode) {
		if n.size < minRefineSize {
			return
		}
		if n.size <= c.TEDMaxNodes {
			candidates = append(candidates, n)
			return
		}
		for _, ch := range n.children {
			walk(ch)
		}
	}
	walk(root)

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].size != candidates[j].size {
			return candidates[i].size > candidates[j].size
		}
		return candidates[i].hash < candidates[j].hash
	})
	if len(candidates) > c.TopN {
		candidates = candidates[:c.TopN]
	}
	return candidates
}

// postorder is the Zhang-Shasha view of a tree: labels and leftmost leaves in postorder,
// 1-based, plus the keyroots in ascending order. work is the sum of the keyroot subtree
// sizes; distance(a, b) fills a.work*b.work forest cells.
type postorder struct {
	labels   []string
	leftmost []int
	keyroots []int
	work     int64
}

func newPostorder(root *hnode) *postorder {
	p := &postorder{labels: []string{""}, leftmost: []int{0}}
	var walk func(n *hnode) int
	walk = func(n *hnode) int {
		first := 0
		for i, ch := range n.children {
			l := walk(ch)
			if i == 0 {
				first = l
			}
		}
		p.labels = append(p.labels, n.label)
		id := len(p.labels) - 1
		if len(n.children) == 0 {
			first = id
		}
		p.leftmost = append(p.leftmost, first)
		return first
	}
	walk(root)

	n := len(p.labels) - 1
	seen := make(map[int]bool, n)
	for i := n; i >= 1; i-- {
		if !seen[p.leftmost[i]] {
			seen[p.leftmost[i]] = true
			p.keyroots = append(p.keyroots, i)
			p.work += int64(i - p.leftmost[i] + 1)
		}
	}
	sort.Ints(p.keyroots)
	return p
}

// editDistance is the Zhang-Shasha ordered tree edit distance with unit costs
func editDistance(a, b *hnode) int {
	return distance(a.order(), b.order())
}

func distance(pa, pb *postorder) int {
	na, nb := len(pa.labels)-1, len(pb.labels)-1

	td := make([][]int, na+1)
	for i := range td {
		td[i] = make([]int, nb+1)
	}
	fd := make([][]int, na+2)
	for i := range fd {
		fd[i] = make([]int, nb+2)
	}

	for _, i := range pa.keyroots {
		for _, j := range pb.keyroots {
			li, lj := pa.leftmost[i], pb.leftmost[j]
			ioff, joff := li-1, lj-1
			m, n := i-ioff, j-joff

			fd[0][0] = 0
			for x := 1; x <= m; x++ {
				fd[x][0] = fd[x-1][0] + 1
			}
			for y := 1; y <= n; y++ {
				fd[0][y] = fd[0][y-1] + 1
			}
			for x := 1; x <= m; x++ {
				xi := x + ioff
				for y := 1; y <= n; y++ {
					yj := y + joff
					del := fd[x-1][y] + 1
					ins := fd[x][y-1] + 1
					if pa.leftmost[xi] == li && pb.leftmost[yj] == lj {
						relabel := 0
						if pa.labels[xi] != pb.labels[yj] {
							relabel = 1
						}
						fd[x][y] = min(del, ins, fd[x-1][y-1]+relabel)
						td[xi][yj] = fd[x][y]
					} else {
						p, q := pa.leftmost[xi]-1-ioff, pb.leftmost[yj]-1-joff
						fd[x][y] = min(del, ins, fd[p][q]+td[xi][yj])
					}
				}
			}
		}
	}
	return td[na][nb]
}
