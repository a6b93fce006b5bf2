// Package canon rewrites raw syntax trees into a language-neutral canonical form in which
// renaming identifiers, changing literal values, reformatting or commenting code leaves the
// tree unchanged.
package canon

import (
	"context"
	"strings"

	"github.com/Ammarkarimi/plagarism-detector/internal/grammar"
	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	"github.com/Ammarkarimi/plagarism-detector/internal/syntax"
)

// Canonical kinds shared by every language
const (
	KindIdentifier = "<id>"
	KindLiteral    = "<lit>"
	KindOperator   = "<op>"
	KindLoop       = "loop"
	KindRoot       = "<root>"
)

// Node is a canonical tree node. Value holds the literal class, the operator text or the text
// of a keyword-like named leaf (self, int, ...); it is empty for identifiers and for any
// other leaf whose text is not a single word.
type Node struct {
	Kind     string
	Value    string
	Ordered  bool
	Children []*Node
}

// Tree is an immutable canonical tree with a single root
type Tree struct {
	Root     *Node
	Language models.Language
	size     int
}

// Size is the number of nodes in the tree
func (t *Tree) Size() int {
	return t.size
}

// Canonicalize converts a raw tree using the policy of g
func Canonicalize(raw *syntax.Node, g *grammar.Grammar) *Tree {
	nodes := build(raw, g)

	var root *Node
	if len(nodes) == 1 {
		root = nodes[0]
	} else {
		root = &Node{Kind: KindRoot, Ordered: true, Children: nodes}
	}
	return NewTree(root, g.Language)
}

// NewTree wraps root, which must not be modified afterwards
func NewTree(root *Node, lang models.Language) *Tree {
	return &Tree{Root: root, Language: lang, size: count(root)}
}

// Parse parses and canonicalizes file in one step
func Parse(ctx context.Context, p *syntax.Parser, file models.SourceFile) (*Tree, error) {
	g, err := grammar.Lookup(file.Language)
	if err != nil {
		return nil, err
	}
	raw, err := p.Parse(ctx, file)
	if err != nil {
		return nil, err
	}
	return Canonicalize(raw, g), nil
}

// build returns the canonical nodes replacing n: none for dropped nodes, several for spliced
// wrappers, one otherwise.
func build(n *syntax.Node, g *grammar.Grammar) []*Node {
	if g.Ignored(n.Kind) {
		return nil
	}

	if !n.Named {
		text := n.Kind
		if strings.TrimSpace(text) == "" || grammar.IsPunctuation(text) || (grammar.IsWord(text) && !g.IsWordOperator(text)) {
			return nil
		}
		return []*Node{{Kind: KindOperator, Value: text, Ordered: true}}
	}

	if class, ok := g.LiteralClass(n.Kind); ok {
		return []*Node{{Kind: KindLiteral, Value: class, Ordered: true}}
	}
	if len(n.Children) == 0 && g.IsIdentifier(n.Kind) {
		return []*Node{{Kind: KindIdentifier, Ordered: true}}
	}

	var children []*Node
	for _, c := range n.Children {
		children = append(children, build(c, g)...)
	}
	if g.IsWrapper(n.Kind) {
		return children
	}

	node := &Node{
		Kind:     n.Kind,
		Ordered:  !g.IsUnordered(n.Kind),
		Children: children,
	}
	if g.IsLoop(n.Kind) {
		node.Kind = KindLoop
		node.Children = dropHeaderWords(children)
	}
	if len(n.Children) == 0 && grammar.IsWord(n.Text) {
		node.Value = n.Text
	}
	return []*Node{node}
}

// dropHeaderWords removes the word operators of a loop header, such as the in of for x in xs
func dropHeaderWords(children []*Node) []*Node {
	kept := children[:0]
	for _, c := range children {
		if c.Kind == KindOperator && grammar.IsWord(c.Value) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func count(n *Node) int {
	size := 1
	for _, c := range n.Children {
		size += count(c)
	}
	return size
}
