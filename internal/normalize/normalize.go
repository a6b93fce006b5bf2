// Package normalize turns source files into language-neutral token streams: comments and
// whitespace disappear, literals become typed placeholders and identifiers are optionally
// replaced by positional aliases.
package normalize

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Ammarkarimi/plagarism-detector/internal/grammar"
	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	sitter "github.com/smacker/go-tree-sitter"
)

type Kind uint8

const (
	Keyword Kind = iota + 1
	Identifier
	Operator
	Punctuation
	Literal
)

func (k Kind) String() string {
	switch k {
	case Keyword:
		return "keyword"
	case Identifier:
		return "identifier"
	case Operator:
		return "operator"
	case Punctuation:
		return "punctuation"
	case Literal:
		return "literal"
	default:
		return "unknown"
	}
}

// Token is one normalized lexical unit. Start and End are byte offsets, Line is 1-based.
type Token struct {
	Kind  Kind
	Value string
	Start int
	End   int
	Line  int
}

type Options struct {
	// CanonicalizeIdentifiers replaces every identifier by idN, numbered by first occurrence
	CanonicalizeIdentifiers bool
}

type Normalizer struct {
	opts Options
}

func New(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Normalize tokenizes file with its language grammar. Broken syntax still tokenizes.
func (n *Normalizer) Normalize(ctx context.Context, file models.SourceFile) ([]Token, error) {
	g, err := grammar.Lookup(file.Language)
	if err != nil {
		return nil, err
	}
	if len(file.Content) == 0 {
		return []Token{}, nil
	}

	tree, err := g.Parse(ctx, file.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize %s: %w", file.Name, err)
	}
	defer tree.Close()

	w := &walker{
		g:       g,
		src:     file.Content,
		aliases: n.opts.CanonicalizeIdentifiers,
		seen:    make(map[string]string),
	}
	w.walk(tree.RootNode())
	return w.tokens, nil
}

type walker struct {
	g       *grammar.Grammar
	src     []byte
	aliases bool
	seen    map[string]string
	tokens  []Token
}

func (w *walker) walk(node *sitter.Node) {
	kind := node.Type()
	if node.IsMissing() || w.g.Ignored(kind) {
		return
	}

	if node.IsNamed() {
		if class, ok := w.g.LiteralClass(kind); ok {
			w.emit(node, Literal, "<"+class+">")
			return
		}
	}

	count := int(node.ChildCount())
	if count > 0 {
		for i := 0; i < count; i++ {
			w.walk(node.Child(i))
		}
		return
	}

	text := node.Content(w.src)
	if strings.TrimSpace(text) == "" {
		return
	}

	switch {
	case node.IsNamed() && w.g.IsIdentifier(kind):
		w.emit(node, Identifier, w.identifier(text))
	case node.IsNamed():
		w.emit(node, Keyword, text)
	case grammar.IsPunctuation(text):
		w.emit(node, Punctuation, text)
	case grammar.IsWord(text):
		w.emit(node, Keyword, text)
	default:
		w.emit(node, Operator, text)
	}
}

func (w *walker) identifier(name string) string {
	if !w.aliases {
		return name
	}
	alias, ok := w.seen[name]
	if !ok {
		alias = "id" + strconv.Itoa(len(w.seen)+1)
		w.seen[name] = alias
	}
	return alias
}

func (w *walker) emit(node *sitter.Node, kind Kind, value string) {
	w.tokens = append(w.tokens, Token{
		Kind:  kind,
		Value: value,
		Start: int(node.StartByte()),
		End:   int(node.EndByte()),
		Line:  int(node.StartPoint().Row) + 1,
	})
}
