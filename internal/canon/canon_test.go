package canon

import (
	"context"
	"errors"
	"testing"

	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	"github.com/Ammarkarimi/plagarism-detector/internal/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canonical(t *testing.T, name, src string) *Tree {
	t.Helper()
	tree, err := Parse(context.Background(), syntax.NewParser(0, 0), models.NewSourceFile("f", name, []byte(src)))
	require.NoError(t, err)
	return tree
}

func find(n *Node, kind string) *Node {
	if n.Kind == kind {
		return n
	}
	for _, c := range n.Children {
		if found := find(c, kind); found != nil {
			return found
		}
	}
	return nil
}

func TestCanonicalInvariance(t *testing.T) {
	tests := []struct {
		name string
		file string
		a, b string
	}{
		{
			name: "identifier renaming",
			file: "a.py",
			a:    "def total(items):\n    s = 0\n    for it in items:\n        s += it\n    return s\n",
			b:    "def acc(xs):\n    r = 0\n    for v in xs:\n        r += v\n    return r\n",
		},
		{
			name: "literal values",
			file: "a.js",
			a:    "const greeting = 'hello'; let n = 3;",
			b:    "const greeting = \"bye\"; let n = 42;",
		},
		{
			name: "comments and whitespace",
			file: "A.java",
			a:    "class A { int f(int x) { return x * 2; } }",
			b:    "// doubles\nclass A {\n    /* f */\n    int f(int x) {\n        return x * 2; // twice\n    }\n}\n",
		},
		{
			name: "redundant parentheses",
			file: "a.c",
			a:    "int f(int a, int b) { return a + b; }",
			b:    "int f(int a, int b) { return (a + b); }",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := canonical(t, tt.file, tt.a)
			b := canonical(t, tt.file, tt.b)
			assert.Equal(t, a.Root, b.Root)
			assert.Equal(t, a.Size(), b.Size())
		})
	}
}

func TestCanonicalPlaceholders(t *testing.T) {
	tree := canonical(t, "a.py", "x = 'text'\ny = 7\n")

	assign := find(tree.Root, "assignment")
	require.NotNil(t, assign)
	require.Len(t, assign.Children, 3)
	assert.Equal(t, KindIdentifier, assign.Children[0].Kind)
	assert.Equal(t, KindOperator, assign.Children[1].Kind)
	assert.Equal(t, "=", assign.Children[1].Value)
	assert.Equal(t, KindLiteral, assign.Children[2].Kind)
	assert.Equal(t, "str", assign.Children[2].Value)
}

func TestCanonicalLoops(t *testing.T) {
	forLoop := canonical(t, "a.py", "for i in xs:\n    print(i)\n")
	whileLoop := canonical(t, "a.py", "while ok:\n    print(ok)\n")

	assert.NotNil(t, find(forLoop.Root, KindLoop))
	assert.NotNil(t, find(whileLoop.Root, KindLoop))
	assert.Nil(t, find(forLoop.Root, "for_statement"))
}

func TestCanonicalLoopHeaderWords(t *testing.T) {
	tree := canonical(t, "a.py", "for i in xs:\n    print(i)\n")

	loop := find(tree.Root, KindLoop)
	require.NotNil(t, loop)
	for _, c := range loop.Children {
		assert.False(t, c.Kind == KindOperator && c.Value == "in", "loop keeps header word %q", c.Value)
	}

	// membership tests keep their operator
	member := canonical(t, "a.py", "r = x in xs\n")
	cmp := find(member.Root, "comparison_operator")
	require.NotNil(t, cmp)
	assert.Contains(t, cmp.Children, &Node{Kind: KindOperator, Value: "in", Ordered: true})
}

func TestCanonicalFreeTextLeaves(t *testing.T) {
	macro := canonical(t, "a.c", "#define SQ(x) ((x)*(x))\n")
	def := find(macro.Root, "preproc_function_def")
	require.NotNil(t, def)
	assert.Contains(t, def.Children, &Node{Kind: KindLiteral, Value: "text", Ordered: true})

	hash := canonical(t, "a.rb", "opts = { count: 1 }\n")
	pair := find(hash.Root, "pair")
	require.NotNil(t, pair)
	require.NotEmpty(t, pair.Children)
	assert.Equal(t, KindIdentifier, pair.Children[0].Kind)
}

// every leaf value is a placeholder class, an operator or a single keyword-like word
func TestCanonicalLeafValues(t *testing.T) {
	sources := map[string]string{
		"a.c":    "#include <stdio.h>\n#define SQ(x) ((x)*(x))\nstruct pt { int x; };\nint f(struct pt p) { again: return SQ(p.x); }\n",
		"a.cpp":  "#define TWICE(v) ((v) + (v))\nnamespace geo { struct P { int x; }; }\nint f() { geo::P p{1}; return TWICE(p.x); }\n",
		"a.rb":   "class Box\n  def build(cfg)\n    { count: cfg.size, \"k\" => :sym, items: %w[a b] }\n  end\nend\n",
		"a.rs":   "macro_rules! id { ($e:expr) => { $e }; }\nstruct P { x: i32 }\nfn f(p: P) -> i32 { let P { x } = p; id!(x) }\n",
		"a.go":   "package main\n\ntype P struct{ x int }\n\nfunc (p P) f() int {\nloop:\n\tfor {\n\t\tbreak loop\n\t}\n\treturn p.x\n}\n",
		"a.js":   "class A { #n = 1; read() { const { a } = this; return this.#n + a; } }\n",
		"a.php":  "<?php\nclass Box { public $n; function get() { return $this->n; } }\n",
		"A.java": "class A { int n; int get() { return this.n; } }\n",
		"a.py":   "class A:\n    def get(self):\n        return self.n\n",
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			var visit func(n *Node)
			visit = func(n *Node) {
				if len(n.Children) == 0 && n.Kind != KindOperator && n.Value != "" {
					assert.Regexp(t, `^[\p{L}\p{N}_]+$`, n.Value, "leaf %s", n.Kind)
				}
				for _, c := range n.Children {
					visit(c)
				}
			}
			visit(canonical(t, name, src).Root)
		})
	}
}

func TestCanonicalUnorderedKinds(t *testing.T) {
	tree := canonical(t, "A.java", "class A { int a; int b; }")

	body := find(tree.Root, "class_body")
	require.NotNil(t, body)
	assert.False(t, body.Ordered)
	assert.True(t, tree.Root.Ordered)
}

func TestCanonicalDropsPunctuationAndKeywords(t *testing.T) {
	tree := canonical(t, "a.js", "if (a) { b(); }")

	var visit func(n *Node)
	visit = func(n *Node) {
		if n.Kind == KindOperator {
			assert.NotContains(t, []string{"(", ")", "{", "}", ";", "if"}, n.Value)
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(tree.Root)
	assert.Nil(t, find(tree.Root, "parenthesized_expression"))
}

func TestCanonicalKeepsWordOperators(t *testing.T) {
	and := canonical(t, "a.py", "r = a and b\n")
	or := canonical(t, "a.py", "r = a or b\n")
	assert.NotEqual(t, and.Root, or.Root)
}

func TestCanonicalSingleRoot(t *testing.T) {
	tree := canonical(t, "a.go", "package main\n")
	require.NotNil(t, tree.Root)
	assert.Equal(t, "source_file", tree.Root.Kind)
	assert.Equal(t, models.LangGo, tree.Language)
}

func TestParsePropagatesErrors(t *testing.T) {
	p := syntax.NewParser(0, 0)

	_, err := Parse(context.Background(), p, models.NewSourceFile("f", "a.py", []byte("def (:\n")))
	assert.True(t, errors.Is(err, models.ErrParse))

	_, err = Parse(context.Background(), p, models.NewSourceFile("f", "a.txt", []byte("x")))
	assert.True(t, errors.Is(err, models.ErrUnsupportedLanguage))
}
