package grammar

import (
	"sort"

	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
)

const (
	classString = "str"
	classNumber = "num"
	classBool   = "bool"
	classNil    = "nil"
	classRegex  = "regex"
	// preprocessor macro bodies and other uninterpreted text
	classText   = "text"
)

var registry = map[models.Language]*Grammar{
	models.LangPython: {
		Language: models.LangPython,
		language: python.GetLanguage,
		literals: map[string]string{
			"string": classString, "concatenated_string": classString,
			"integer": classNumber, "float": classNumber,
			"true": classBool, "false": classBool, "none": classNil,
		},
		loops:         set("for_statement", "while_statement"),
		unordered:     set("import_from_statement", "dictionary", "set"),
		wrappers:      set("parenthesized_expression"),
		ignored:       set("line_continuation"),
		wordOperators: set("and", "or", "not", "in", "is"),
	},
	models.LangJavaScript: {
		Language: models.LangJavaScript,
		language: javascript.GetLanguage,
		literals: map[string]string{
			"string": classString, "template_string": classString,
			"number": classNumber, "regex": classRegex,
			"true": classBool, "false": classBool,
			"null": classNil, "undefined": classNil,
		},
		loops:         set("for_statement", "for_in_statement", "while_statement", "do_statement"),
		unordered:     set("object", "class_body", "named_imports", "export_clause"),
		wrappers:      set("parenthesized_expression"),
		ignored:       set("hash_bang_line"),
		wordOperators: set("instanceof", "typeof", "in", "delete", "void"),
	},
	models.LangJava: {
		Language: models.LangJava,
		language: java.GetLanguage,
		literals: map[string]string{
			"string_literal": classString, "character_literal": classString, "text_block": classString,
			"decimal_integer_literal": classNumber, "hex_integer_literal": classNumber,
			"octal_integer_literal": classNumber, "binary_integer_literal": classNumber,
			"decimal_floating_point_literal": classNumber, "hex_floating_point_literal": classNumber,
			"true": classBool, "false": classBool, "null_literal": classNil,
		},
		loops:         set("for_statement", "enhanced_for_statement", "while_statement", "do_statement"),
		unordered:     set("class_body", "interface_body", "modifiers"),
		wrappers:      set("parenthesized_expression"),
		wordOperators: set("instanceof"),
	},
	models.LangC: {
		Language: models.LangC,
		language: c.GetLanguage,
		literals: map[string]string{
			"string_literal": classString, "concatenated_string": classString,
			"char_literal": classString, "system_lib_string": classString,
			"number_literal": classNumber, "preproc_arg": classText,
			"true": classBool, "false": classBool, "null": classNil,
		},
		loops:         set("for_statement", "while_statement", "do_statement"),
		unordered:     set("field_declaration_list"),
		wrappers:      set("parenthesized_expression"),
		wordOperators: set("sizeof"),
	},
	models.LangCPP: {
		Language: models.LangCPP,
		language: cpp.GetLanguage,
		literals: map[string]string{
			"string_literal": classString, "raw_string_literal": classString,
			"concatenated_string": classString, "char_literal": classString,
			"system_lib_string": classString, "user_defined_literal": classNumber,
			"number_literal": classNumber, "preproc_arg": classText,
			"true": classBool, "false": classBool, "null": classNil, "nullptr": classNil,
		},
		loops:         set("for_statement", "for_range_loop", "while_statement", "do_statement"),
		unordered:     set("field_declaration_list"),
		wrappers:      set("parenthesized_expression"),
		wordOperators: set("sizeof", "new", "delete"),
	},
	models.LangPHP: {
		Language: models.LangPHP,
		language: php.GetLanguage,
		literals: map[string]string{
			"string": classString, "encapsed_string": classString,
			"heredoc": classString, "nowdoc": classString,
			"integer": classNumber, "float": classNumber,
			"boolean": classBool, "null": classNil,
		},
		identifiers:   set("name"),
		loops:         set("for_statement", "foreach_statement", "while_statement", "do_statement"),
		unordered:     set("declaration_list"),
		wrappers:      set("parenthesized_expression"),
		wordOperators: set("and", "or", "xor", "instanceof"),
	},
	models.LangRuby: {
		Language: models.LangRuby,
		language: ruby.GetLanguage,
		literals: map[string]string{
			"string": classString, "heredoc_body": classString, "character": classString,
			"simple_symbol": classString, "delimited_symbol": classString,
			"bare_string": classString, "bare_symbol": classString, "heredoc_beginning": classString,
			"integer": classNumber, "float": classNumber, "rational": classNumber,
			"regex": classRegex, "uninterpreted": classText,
			"true": classBool, "false": classBool, "nil": classNil,
		},
		identifiers: set("constant", "instance_variable", "class_variable", "global_variable",
			"hash_key_symbol"),
		loops:         set("while", "until", "for"),
		wrappers:      set("parenthesized_statements"),
		wordOperators: set("and", "or", "not"),
	},
	models.LangGo: {
		Language: models.LangGo,
		language: golang.GetLanguage,
		literals: map[string]string{
			"interpreted_string_literal": classString, "raw_string_literal": classString,
			"rune_literal": classString,
			"int_literal":  classNumber, "float_literal": classNumber, "imaginary_literal": classNumber,
			"true": classBool, "false": classBool, "nil": classNil,
		},
		identifiers: set("label_name"),
		loops:       set("for_statement"),
		unordered:   set("import_spec_list", "field_declaration_list"),
		wrappers:    set("parenthesized_expression"),
	},
	models.LangRust: {
		Language: models.LangRust,
		language: rust.GetLanguage,
		literals: map[string]string{
			"string_literal": classString, "raw_string_literal": classString, "char_literal": classString,
			"integer_literal": classNumber, "float_literal": classNumber,
			"boolean_literal": classBool,
		},
		identifiers: set("metavariable"),
		loops:       set("for_expression", "while_expression", "while_let_expression", "loop_expression"),
		unordered:   set("declaration_list", "field_declaration_list", "use_list"),
		wrappers:    set("parenthesized_expression"),
		ignored:     set("shebang"),
	},
}

// Lookup returns the grammar registered for lang
func Lookup(lang models.Language) (*Grammar, error) {
	g, ok := registry[lang]
	if !ok {
		return nil, &models.UnsupportedLanguageError{Language: lang}
	}
	return g, nil
}

// Languages lists the registered language tags in sorted order
func Languages() []models.Language {
	langs := make([]models.Language, 0, len(registry))
	for lang := range registry {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}
