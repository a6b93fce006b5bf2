// Package grammar holds the registered source languages: the tree-sitter grammar of each
// language and the per-language policy used to tokenize and canonicalize its syntax trees.
package grammar

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	sitter "github.com/smacker/go-tree-sitter"
)

// Grammar describes one registered language
type Grammar struct {
	Language models.Language

	language func() *sitter.Language

	// literal node kind -> placeholder class (str, num, bool, nil, regex)
	literals map[string]string
	// identifier leaf kinds besides the *identifier aliases
	identifiers map[string]bool
	// loop kinds desugared to a single canonical loop node
	loops map[string]bool
	// kinds whose children order carries no meaning
	unordered map[string]bool
	// formatting-only kinds spliced out of the canonical tree
	wrappers map[string]bool
	// extra (non-comment) kinds dropped everywhere
	ignored map[string]bool
	// keywords that act as operators (and, or, instanceof, ...)
	wordOperators map[string]bool
}

// TreeSitter returns the tree-sitter grammar
func (g *Grammar) TreeSitter() *sitter.Language {
	return g.language()
}

// Parse runs tree-sitter over src. The caller owns the returned tree and must Close it.
// A done ctx is reported as ctx's error.
func (g *Grammar) Parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g.language())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to parse %s source: %w", g.Language, err)
	}
	return tree, nil
}

// Ignored reports whether nodes of this kind carry no content (comments, line continuations)
func (g *Grammar) Ignored(kind string) bool {
	return strings.Contains(kind, "comment") || g.ignored[kind]
}

// LiteralClass returns the placeholder class of a literal node kind
func (g *Grammar) LiteralClass(kind string) (string, bool) {
	class, ok := g.literals[kind]
	return class, ok
}

// IsIdentifier reports whether a named leaf kind is an identifier. Every grammar aliases its
// user-chosen names to kinds ending in "identifier" (field_identifier, type_identifier, ...).
func (g *Grammar) IsIdentifier(kind string) bool {
	return strings.HasSuffix(kind, "identifier") || g.identifiers[kind]
}

func (g *Grammar) IsLoop(kind string) bool {
	return g.loops[kind]
}

func (g *Grammar) IsUnordered(kind string) bool {
	return g.unordered[kind]
}

func (g *Grammar) IsWrapper(kind string) bool {
	return g.wrappers[kind]
}

func (g *Grammar) IsWordOperator(text string) bool {
	return g.wordOperators[text]
}

var punctuation = map[string]bool{
	"(": true, ")": true, "[": true, "]": true, "{": true, "}": true,
	",": true, ";": true, ":": true, ".": true, "\"": true, "'": true, "`": true,
}

// IsPunctuation reports whether an anonymous token only delimits structure
func IsPunctuation(text string) bool {
	return punctuation[text]
}

// IsWord reports whether an anonymous token is a keyword-like word
func IsWord(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func set(kinds ...string) map[string]bool {
	m := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}
