package structural

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Ammarkarimi/plagarism-detector/internal/canon"
	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	"github.com/Ammarkarimi/plagarism-detector/internal/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func n(kind string, children ...*canon.Node) *canon.Node {
	return &canon.Node{Kind: kind, Ordered: true, Children: children}
}

func unordered(kind string, children ...*canon.Node) *canon.Node {
	return &canon.Node{Kind: kind, Ordered: false, Children: children}
}

func tree(root *canon.Node) *canon.Tree {
	return canon.NewTree(root, models.LangPython)
}

func hashed(root *canon.Node) *hnode {
	return index(root).root
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b *canon.Node
		want int
	}{
		{"identical", n("a", n("b"), n("c")), n("a", n("b"), n("c")), 0},
		{"delete leaf", n("a", n("b"), n("c")), n("a", n("b")), 1},
		{"relabel", n("a", n("b")), n("a", n("c")), 1},
		{"single nodes", n("a"), n("b"), 1},
		{
			// classic Zhang-Shasha example
			"move subtree",
			n("f", n("d", n("a"), n("c", n("b"))), n("e")),
			n("f", n("c", n("d", n("a"), n("b"))), n("e")),
			2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, editDistance(hashed(tt.a), hashed(tt.b)))
			assert.Equal(t, tt.want, editDistance(hashed(tt.b), hashed(tt.a)), "symmetric")
		})
	}
}

func TestSimilaritySelf(t *testing.T) {
	root := n("module", n("function", n("<id>"), n("block", n("return", n("<id>")))))
	sim, err := Default().Similarity(context.Background(), tree(root), tree(root))
	require.NoError(t, err)
	assert.Equal(t, 100.0, sim)
}

func TestSimilarityUnorderedChildren(t *testing.T) {
	a := n("module", unordered("class_body", n("method", n("x")), n("field", n("y"))))
	b := n("module", unordered("class_body", n("field", n("y")), n("method", n("x"))))

	sim, err := Default().Similarity(context.Background(), tree(a), tree(b))
	require.NoError(t, err)
	assert.Equal(t, 100.0, sim)

	// the same swap under an ordered parent is a real change
	c := n("module", n("block", n("method", n("x")), n("field", n("y"))))
	d := n("module", n("block", n("field", n("y")), n("method", n("x"))))
	sim, err = Default().Similarity(context.Background(), tree(c), tree(d))
	require.NoError(t, err)
	assert.Less(t, sim, 100.0)
}

func leaves(prefix string, count int) []*canon.Node {
	out := make([]*canon.Node, count)
	for i := range out {
		out[i] = n(fmt.Sprintf("%s%d", prefix, i))
	}
	return out
}

func TestSimilarityRefinement(t *testing.T) {
	a := n("root", n("x", leaves("l", 10)...))
	bLeaves := append(leaves("l", 9), n("m"))
	b := n("root", n("x", bLeaves...))

	// leaves l0..l8 shared: 2*9 / (33+33)
	noRefine := Default()
	noRefine.TopN = 0
	sim, err := noRefine.Similarity(context.Background(), tree(a), tree(b))
	require.NoError(t, err)
	assert.InDelta(t, 100*18.0/66, sim, 1e-9)

	// whole trees are one pair at distance 1 of 12 nodes
	sim, err = Default().Similarity(context.Background(), tree(a), tree(b))
	require.NoError(t, err)
	assert.InDelta(t, 100*(1-1.0/12), sim, 1e-9)
}

func TestSimilarityRefinementIgnoresDistantPairs(t *testing.T) {
	a := n("root", n("x", leaves("l", 10)...))
	b := n("root", n("y", leaves("k", 10)...))

	sim, err := Default().Similarity(context.Background(), tree(a), tree(b))
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
}

func TestSimilaritySymmetric(t *testing.T) {
	a := n("root", n("x", leaves("l", 6)...), n("y", leaves("k", 3)...), n("z"))
	b := n("root", n("x", leaves("l", 4)...), n("w", leaves("k", 5)...))

	ab, err := Default().Similarity(context.Background(), tree(a), tree(b))
	require.NoError(t, err)
	ba, err := Default().Similarity(context.Background(), tree(b), tree(a))
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
	assert.Greater(t, ab, 0.0)
	assert.Less(t, ab, 100.0)
}

func TestSimilarityResourceLimit(t *testing.T) {
	c := Default()
	c.MaxNodes = 5
	big := n("root", leaves("l", 10)...)

	_, err := c.Similarity(context.Background(), tree(big), tree(n("root")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrResourceLimit))
}

func TestSimilarityOnParsedSources(t *testing.T) {
	p := syntax.NewParser(0, 0)
	parse := func(src string) *canon.Tree {
		tr, err := canon.Parse(context.Background(), p, models.NewSourceFile("f", "a.py", []byte(src)))
		require.NoError(t, err)
		return tr
	}

	original := parse("def mean(values):\n    total = 0\n    for v in values:\n        total += v\n    return total / len(values)\n")
	renamed := parse("def average(nums):\n    s = 0\n    for n in nums:\n        s += n\n    return s / len(nums)\n")
	unrelated := parse("class Stack:\n    def __init__(self):\n        self.items = []\n\n    def push(self, item):\n        self.items.append(item)\n\n    def pop(self):\n        return self.items.pop()\n")

	sim, err := Default().Similarity(context.Background(), original, renamed)
	require.NoError(t, err)
	assert.Equal(t, 100.0, sim)

	sim, err = Default().Similarity(context.Background(), original, unrelated)
	require.NoError(t, err)
	assert.Less(t, sim, 70.0)
}

// chain is a right-nested operator chain, the worst shape for Zhang-Shasha
func chain(leaf string, terms int) *canon.Node {
	node := n(leaf)
	for i := 1; i < terms; i++ {
		node = n("binary_operator", n(leaf), n("<op>"), node)
	}
	return node
}

func chainModule(leaf string) *canon.Node {
	functions := make([]*canon.Node, 8)
	for i := range functions {
		functions[i] = n("function", n("<id>"), n("return", chain(leaf, 80)))
	}
	return n("module", functions...)
}

func TestSimilarityRightNestedChainsHitBudget(t *testing.T) {
	a, b := chainModule("<id>"), chainModule("<lit>")

	ha := hashed(a).children[0]
	require.LessOrEqual(t, ha.size, Default().TEDMaxNodes)
	assert.Greater(t, ha.order().work*ha.order().work*64, Default().TEDBudget)

	done := make(chan error, 1)
	go func() {
		_, err := Default().Similarity(context.Background(), tree(a), tree(b))
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrResourceLimit)
		var limit *models.ResourceLimitError
		require.ErrorAs(t, err, &limit)
		assert.Equal(t, "tree edit distance work", limit.Resource)
	case <-time.After(5 * time.Second):
		t.Fatal("refinement ran the edit distances instead of failing fast")
	}
}

func TestSimilarityShortChainsFitBudget(t *testing.T) {
	a := n("module", n("return", chain("<id>", 6)))
	b := n("module", n("return", chain("<lit>", 6)))

	sim, err := Default().Similarity(context.Background(), tree(a), tree(b))
	require.NoError(t, err)
	assert.Less(t, sim, 100.0)
}

func TestSimilaritySkipsPairsTooDifferentInSize(t *testing.T) {
	a := n("root", n("x", leaves("l", 10)...))
	b := n("root", n("x", leaves("l", 3)...))

	// no edit distance is computed, so even a budget of one cell is enough
	c := Default()
	c.TEDBudget = 1
	sim, err := c.Similarity(context.Background(), tree(a), tree(b))
	require.NoError(t, err)

	unbounded := Default()
	unbounded.TEDBudget = 0
	want, err := unbounded.Similarity(context.Background(), tree(a), tree(b))
	require.NoError(t, err)
	assert.Equal(t, want, sim)
}

func TestSimilarityBound(t *testing.T) {
	assert.Equal(t, 1.0, similarityBound(7, 7))
	assert.InDelta(t, 0.8, similarityBound(10, 8), 1e-12)
	assert.InDelta(t, 0.8, similarityBound(8, 10), 1e-12)
	assert.Less(t, similarityBound(10, 7), 0.8)
}

func TestSimilarityCancelledDuringRefinement(t *testing.T) {
	a := n("root", n("x", leaves("l", 10)...))
	b := n("root", n("x", append(leaves("l", 9), n("m"))...))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Default().Similarity(ctx, tree(a), tree(b))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPostorderWork(t *testing.T) {
	// postorder b d c a: the keyroots are c (2 nodes) and a (4 nodes)
	p := hashed(n("a", n("b"), n("c", n("d")))).order()
	assert.Equal(t, []int{3, 4}, p.keyroots)
	assert.Equal(t, int64(2+4), p.work)
}
