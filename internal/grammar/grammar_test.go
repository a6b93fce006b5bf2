package grammar

import (
	"context"
	"errors"
	"testing"

	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	for _, lang := range []models.Language{
		models.LangPython, models.LangJavaScript, models.LangJava, models.LangC, models.LangCPP,
		models.LangPHP, models.LangRuby, models.LangGo, models.LangRust,
	} {
		t.Run(string(lang), func(t *testing.T) {
			g, err := Lookup(lang)
			require.NoError(t, err)
			assert.Equal(t, lang, g.Language)
			assert.NotNil(t, g.TreeSitter())
		})
	}
}

func TestLookupUnsupported(t *testing.T) {
	_, err := Lookup(models.Language("cobol"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnsupportedLanguage))

	var langErr *models.UnsupportedLanguageError
	require.ErrorAs(t, err, &langErr)
	assert.Equal(t, models.Language("cobol"), langErr.Language)
}

func TestLanguagesSorted(t *testing.T) {
	langs := Languages()
	assert.Len(t, langs, 9)
	for i := 1; i < len(langs); i++ {
		assert.Less(t, langs[i-1], langs[i])
	}
}

func TestClassification(t *testing.T) {
	py, err := Lookup(models.LangPython)
	require.NoError(t, err)

	assert.True(t, py.Ignored("comment"))
	assert.True(t, py.Ignored("line_continuation"))
	assert.False(t, py.Ignored("identifier"))

	class, ok := py.LiteralClass("string")
	assert.True(t, ok)
	assert.Equal(t, "str", class)
	_, ok = py.LiteralClass("identifier")
	assert.False(t, ok)

	assert.True(t, py.IsIdentifier("identifier"))
	assert.True(t, py.IsLoop("while_statement"))
	assert.True(t, py.IsWrapper("parenthesized_expression"))
	assert.True(t, py.IsWordOperator("and"))
	assert.False(t, py.IsWordOperator("def"))

	java, err := Lookup(models.LangJava)
	require.NoError(t, err)
	assert.True(t, java.Ignored("block_comment"))
	assert.True(t, java.IsUnordered("class_body"))
	assert.True(t, java.IsIdentifier("type_identifier"))
}

func TestFreeTextLeafPolicy(t *testing.T) {
	for _, lang := range Languages() {
		g, err := Lookup(lang)
		require.NoError(t, err)
		for _, kind := range []string{"identifier", "field_identifier", "type_identifier", "property_identifier", "namespace_identifier"} {
			assert.True(t, g.IsIdentifier(kind), "%s %s", lang, kind)
		}
		assert.False(t, g.IsIdentifier("primitive_type"), lang)
	}

	for _, lang := range []models.Language{models.LangC, models.LangCPP} {
		g, err := Lookup(lang)
		require.NoError(t, err)
		class, ok := g.LiteralClass("preproc_arg")
		assert.True(t, ok, lang)
		assert.Equal(t, "text", class)
	}

	rb, err := Lookup(models.LangRuby)
	require.NoError(t, err)
	assert.True(t, rb.IsIdentifier("hash_key_symbol"))
	assert.True(t, rb.IsIdentifier("constant"))

	rs, err := Lookup(models.LangRust)
	require.NoError(t, err)
	assert.True(t, rs.IsIdentifier("metavariable"))
	assert.True(t, rs.Ignored("shebang"))
}

func TestTokenShape(t *testing.T) {
	assert.True(t, IsPunctuation("("))
	assert.True(t, IsPunctuation(";"))
	assert.False(t, IsPunctuation("+"))

	assert.True(t, IsWord("return"))
	assert.True(t, IsWord("not_in"))
	assert.False(t, IsWord("=="))
	assert.False(t, IsWord(""))
}

func TestParse(t *testing.T) {
	g, err := Lookup(models.LangGo)
	require.NoError(t, err)

	tree, err := g.Parse(context.Background(), []byte("package main\n\nfunc main() {}\n"))
	require.NoError(t, err)
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "source_file", root.Type())
	assert.False(t, root.HasError())
}

func TestParseCancelled(t *testing.T) {
	g, err := Lookup(models.LangGo)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = g.Parse(ctx, []byte("package main\n"))
	assert.ErrorIs(t, err, context.Canceled)
}
