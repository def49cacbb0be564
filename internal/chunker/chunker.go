package chunker

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
)

// maxSignatureChars bounds rendered signatures.
const maxSignatureChars = 200

// Symbol is one extracted chunk.
type Symbol struct {
	Kind      SymbolKind `json:"chunk_type"`
	Name      string     `json:"name"`
	StartLine int        `json:"start_line"` // 1-indexed
	EndLine   int        `json:"end_line"`   // inclusive
	Signature string     `json:"signature"`
}

// Result is the outcome of chunking one file.
type Result struct {
	FilePath    string        `json:"file_path"`
	Language    string        `json:"language"`
	Symbols     []Symbol      `json:"chunks"`
	ParseTime   time.Duration `json:"-"`
	ParseTimeMS float64       `json:"parsing_time_ms"`
}

// ChunkFile parses a source file and extracts its top-level symbols.
func ChunkFile(ctx context.Context, path string) (*Result, error) {
	spec, ok := detectLanguage(path)
	if !ok {
		return nil, fmt.Errorf("unsupported file type: %s (supported: %v)",
			path, SupportedExtensions())
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	start := time.Now()
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(spec.grammar)

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	res := &Result{
		FilePath: path,
		Language: spec.name,
		Symbols:  extractSymbols(tree.RootNode(), source, spec),
	}
	res.ParseTime = time.Since(start)
	res.ParseTimeMS = float64(res.ParseTime.Microseconds()) / 1000
	return res, nil
}

// extractSymbols walks the AST collecting nodes whose type appears in
// the language spec. Nested definitions (Python methods) are collected
// too since the walk is exhaustive.
func extractSymbols(root *sitter.Node, source []byte, spec *langSpec) []Symbol {
	var symbols []Symbol

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if kind, ok := spec.kinds[n.Type()]; ok {
			if name := symbolName(n, source); name != "" {
				symbols = append(symbols, Symbol{
					Kind:      kind,
					Name:      name,
					StartLine: int(n.StartPoint().Row) + 1,
					EndLine:   int(n.EndPoint().Row) + 1,
					Signature: signature(n, source),
				})
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if child := n.Child(i); child != nil {
				walk(child)
			}
		}
	}
	walk(root)
	return symbols
}

// symbolName finds the declared identifier for a symbol node. Grammars
// disagree on the identifier node type, so several are probed in order.
func symbolName(n *sitter.Node, source []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return name.Content(source)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "identifier", "field_identifier", "type_identifier":
			return child.Content(source)
		case "type_spec":
			// Go type declarations nest the name one level down.
			for j := 0; j < int(child.ChildCount()); j++ {
				if gc := child.Child(j); gc != nil && gc.Type() == "type_identifier" {
					return gc.Content(source)
				}
			}
		}
	}
	return ""
}

// signature is the declaration's first line, trimmed at the body.
func signature(n *sitter.Node, source []byte) string {
	content := n.Content(source)
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		content = content[:i]
	}
	content = strings.TrimSpace(content)
	if i := strings.IndexByte(content, '{'); i >= 0 {
		content = strings.TrimSpace(content[:i])
	}
	if len(content) > maxSignatureChars {
		content = content[:maxSignatureChars]
	}
	return content
}

// Format renders a chunking result as markdown for tool output.
func (r *Result) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Code Chunks: %s\n", r.FilePath)
	fmt.Fprintf(&b, "Language: %s\n", r.Language)
	fmt.Fprintf(&b, "Chunks: %d\n", len(r.Symbols))
	fmt.Fprintf(&b, "Parse time: %.2fms\n\n", r.ParseTimeMS)
	for _, s := range r.Symbols {
		fmt.Fprintf(&b, "### [%s] %s\n", s.Kind, s.Name)
		fmt.Fprintf(&b, "Lines: %d-%d\n", s.StartLine, s.EndLine)
		if s.Signature != "" {
			fmt.Fprintf(&b, "```\n%s\n```\n", s.Signature)
		}
		b.WriteString("\n")
	}
	return b.String()
}
