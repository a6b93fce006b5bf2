// Package syntax builds the raw, language-specific parse tree of a source file.
package syntax

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ammarkarimi/plagarism-detector/internal/grammar"
	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	sitter "github.com/smacker/go-tree-sitter"
)

// Node is a parse tree node detached from tree-sitter memory
type Node struct {
	Kind     string
	Named    bool
	Text     string // leaves only
	Line     int
	Children []*Node
}

// Size returns the number of nodes in the subtree rooted at n
func (n *Node) Size() int {
	size := 1
	for _, c := range n.Children {
		size += c.Size()
	}
	return size
}

type Parser struct {
	MaxNodes int
	MaxDepth int
}

func NewParser(maxNodes, maxDepth int) *Parser {
	return &Parser{MaxNodes: maxNodes, MaxDepth: maxDepth}
}

// Parse returns the raw tree of file. Syntax errors yield a *models.ParseError located at the
// first ERROR or MISSING node; oversized trees yield a *models.ResourceLimitError.
func (p *Parser) Parse(ctx context.Context, file models.SourceFile) (*Node, error) {
	g, err := grammar.Lookup(file.Language)
	if err != nil {
		return nil, err
	}

	tree, err := g.Parse(ctx, file.Content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, firstError(root, file)
	}

	b := &builder{src: file.Content, maxNodes: p.MaxNodes, maxDepth: p.MaxDepth}
	return b.build(root, 1)
}

type builder struct {
	src      []byte
	maxNodes int
	maxDepth int
	count    int
}

func (b *builder) build(n *sitter.Node, depth int) (*Node, error) {
	b.count++
	if b.maxNodes > 0 && b.count > b.maxNodes {
		return nil, &models.ResourceLimitError{Resource: "syntax tree nodes", Limit: int64(b.maxNodes), Actual: int64(b.count)}
	}
	if b.maxDepth > 0 && depth > b.maxDepth {
		return nil, &models.ResourceLimitError{Resource: "syntax tree depth", Limit: int64(b.maxDepth), Actual: int64(depth)}
	}

	node := &Node{
		Kind:  n.Type(),
		Named: n.IsNamed(),
		Line:  int(n.StartPoint().Row) + 1,
	}

	count := int(n.ChildCount())
	if count == 0 {
		node.Text = n.Content(b.src)
		return node, nil
	}

	node.Children = make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		child, err := b.build(n.Child(i), depth+1)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// firstError finds the first ERROR or MISSING node in document order
func firstError(root *sitter.Node, file models.SourceFile) *models.ParseError {
	var found *sitter.Node
	var visit func(n *sitter.Node) bool
	visit = func(n *sitter.Node) bool {
		if n.IsError() || n.IsMissing() {
			found = n
			return true
		}
		if !n.HasError() {
			return false
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if visit(n.Child(i)) {
				return true
			}
		}
		return false
	}
	visit(root)

	perr := &models.ParseError{Language: file.Language, Line: 1, Column: 1, Message: "syntax error"}
	if found == nil {
		return perr
	}

	pos := found.StartPoint()
	perr.Line = int(pos.Row) + 1
	perr.Column = int(pos.Column) + 1
	if found.IsMissing() {
		perr.Message = fmt.Sprintf("missing %s", found.Type())
	} else {
		perr.Message = fmt.Sprintf("unexpected %q", snippet(found.Content(file.Content)))
	}
	return perr
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 32 {
		s = s[:32] + "..."
	}
	return s
}
