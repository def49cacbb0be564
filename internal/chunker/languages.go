// Package chunker parses source files into semantic chunks (functions,
// classes, methods) for retrieval. Parsing is tree-sitter based; files
// in unsupported languages report an error instead of falling back to
// line splitting.
package chunker

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// SymbolKind classifies an extracted chunk.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindClass     SymbolKind = "class"
	KindInterface SymbolKind = "interface"
	KindType      SymbolKind = "type"
)

// langSpec binds a tree-sitter grammar to the node types worth chunking.
type langSpec struct {
	name    string
	grammar *sitter.Language
	// kinds maps AST node types to the symbol kind they produce.
	kinds map[string]SymbolKind
}

var specs = map[string]*langSpec{
	"go": {
		name:    "go",
		grammar: golang.GetLanguage(),
		kinds: map[string]SymbolKind{
			"function_declaration": KindFunction,
			"method_declaration":   KindMethod,
			"type_declaration":     KindType,
		},
	},
	"python": {
		name:    "python",
		grammar: python.GetLanguage(),
		kinds: map[string]SymbolKind{
			"function_definition": KindFunction,
			"class_definition":    KindClass,
		},
	},
	"javascript": {
		name:    "javascript",
		grammar: javascript.GetLanguage(),
		kinds: map[string]SymbolKind{
			"function_declaration": KindFunction,
			"method_definition":    KindMethod,
			"class_declaration":    KindClass,
		},
	},
	"typescript": {
		name:    "typescript",
		grammar: typescript.GetLanguage(),
		kinds: map[string]SymbolKind{
			"function_declaration":   KindFunction,
			"method_definition":      KindMethod,
			"class_declaration":      KindClass,
			"interface_declaration":  KindInterface,
			"type_alias_declaration": KindType,
		},
	},
	"tsx": {
		name:    "tsx",
		grammar: tsx.GetLanguage(),
		kinds: map[string]SymbolKind{
			"function_declaration":  KindFunction,
			"method_definition":     KindMethod,
			"class_declaration":     KindClass,
			"interface_declaration": KindInterface,
		},
	},
}

var extToLang = map[string]string{
	".go":  "go",
	".py":  "python",
	".js":  "javascript",
	".mjs": "javascript",
	".jsx": "javascript",
	".ts":  "typescript",
	".tsx": "tsx",
}

// detectLanguage resolves a file path to a supported language spec.
func detectLanguage(path string) (*langSpec, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	name, ok := extToLang[ext]
	if !ok {
		return nil, false
	}
	spec, ok := specs[name]
	return spec, ok
}

// SupportedExtensions lists the file extensions the chunker handles.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extToLang))
	for ext := range extToLang {
		exts = append(exts, ext)
	}
	return exts
}
