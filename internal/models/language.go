package models

import (
	"path/filepath"
	"strings"
)

// Language is the tag of a registered source language
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangPHP        Language = "php"
	LangRuby       Language = "ruby"
	LangGo         Language = "go"
	LangRust       Language = "rust"
	LangUnknown    Language = "unknown"
)

// DetectLanguage maps a filename extension to its language tag
func DetectLanguage(filename string) Language {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".py", ".pyw":
		return LangPython
	case ".js", ".mjs", ".cjs":
		return LangJavaScript
	case ".java":
		return LangJava
	case ".c", ".h":
		return LangC
	case ".cpp", ".cc", ".cxx", ".hpp", ".hxx":
		return LangCPP
	case ".php":
		return LangPHP
	case ".rb":
		return LangRuby
	case ".go":
		return LangGo
	case ".rs":
		return LangRust
	default:
		return LangUnknown
	}
}
