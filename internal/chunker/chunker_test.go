package chunker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		lang string
	}{
		{"main.go", "go"},
		{"script.py", "python"},
		{"app.js", "javascript"},
		{"mod.mjs", "javascript"},
		{"types.ts", "typescript"},
		{"View.tsx", "tsx"},
	}
	for _, tt := range tests {
		spec, ok := detectLanguage(tt.path)
		require.True(t, ok, tt.path)
		assert.Equal(t, tt.lang, spec.name)
	}

	_, ok := detectLanguage("README.md")
	assert.False(t, ok)
	_, ok = detectLanguage("Makefile")
	assert.False(t, ok)
}

func TestChunkFileGo(t *testing.T) {
	src := `package sample

// Greeter says hello.
type Greeter struct {
	name string
}

func (g *Greeter) Greet() string {
	return "hello " + g.name
}

func NewGreeter(name string) *Greeter {
	return &Greeter{name: name}
}
`
	path := writeSource(t, "sample.go", src)

	res, err := ChunkFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "go", res.Language)
	require.Len(t, res.Symbols, 3)

	byName := map[string]Symbol{}
	for _, s := range res.Symbols {
		byName[s.Name] = s
	}

	assert.Equal(t, KindType, byName["Greeter"].Kind)
	assert.Equal(t, KindMethod, byName["Greet"].Kind)
	assert.Equal(t, KindFunction, byName["NewGreeter"].Kind)

	greet := byName["Greet"]
	assert.Equal(t, 8, greet.StartLine)
	assert.Equal(t, 10, greet.EndLine)
	assert.Equal(t, "func (g *Greeter) Greet() string", greet.Signature)
}

func TestChunkFilePython(t *testing.T) {
	src := `class Store:
    def add(self, item):
        self.items.append(item)

def main():
    pass
`
	path := writeSource(t, "store.py", src)

	res, err := ChunkFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "python", res.Language)

	names := map[string]SymbolKind{}
	for _, s := range res.Symbols {
		names[s.Name] = s.Kind
	}
	assert.Equal(t, KindClass, names["Store"])
	// Methods inside classes are collected by the exhaustive walk.
	assert.Equal(t, KindFunction, names["add"])
	assert.Equal(t, KindFunction, names["main"])
}

func TestChunkFileTypeScript(t *testing.T) {
	src := `interface Config {
  root: string;
}

function load(path: string): Config {
  return { root: path };
}
`
	path := writeSource(t, "config.ts", src)

	res, err := ChunkFile(context.Background(), path)
	require.NoError(t, err)

	names := map[string]SymbolKind{}
	for _, s := range res.Symbols {
		names[s.Name] = s.Kind
	}
	assert.Equal(t, KindInterface, names["Config"])
	assert.Equal(t, KindFunction, names["load"])
}

func TestChunkFileUnsupported(t *testing.T) {
	path := writeSource(t, "notes.md", "# notes")

	_, err := ChunkFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
	assert.Contains(t, err.Error(), ".go")
}

func TestChunkFileMissing(t *testing.T) {
	_, err := ChunkFile(context.Background(), filepath.Join(t.TempDir(), "gone.go"))
	require.Error(t, err)
}

func TestResultFormat(t *testing.T) {
	path := writeSource(t, "fmt.go", "package p\n\nfunc One() {}\n")

	res, err := ChunkFile(context.Background(), path)
	require.NoError(t, err)

	out := res.Format()
	assert.Contains(t, out, "## Code Chunks: "+path)
	assert.Contains(t, out, "Language: go")
	assert.Contains(t, out, "Chunks: 1")
	assert.Contains(t, out, "### [function] One")
	assert.Contains(t, out, "Lines: 3-3")
	assert.Contains(t, out, "func One()")
}
