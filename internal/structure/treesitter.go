package structure

import (
	"context"

	"github.com/dusk-indust/chronicle/internal/catalog"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Compile-time interface check.
var _ Extractor = (*TreeSitterExtractor)(nil)

// Language identifies a grammar used for fact extraction.
type Language string

const (
	LangCpp        Language = "cpp"
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangTypeScript Language = "typescript"
)

// extToLanguage maps file extensions to grammars. The .i extension is a
// generated C++ interface file in the tool's original target tree.
var extToLanguage = map[string]Language{
	".h":   LangCpp,
	".hpp": LangCpp,
	".cc":  LangCpp,
	".cpp": LangCpp,
	".cxx": LangCpp,
	".i":   LangCpp,
	".go":  LangGo,
	".py":  LangPython,
	".rs":  LangRust,
	".ts":  LangTypeScript,
	".tsx": LangTypeScript,
}

// walker extracts facts from a parsed tree-sitter AST.
type walker interface {
	Walk(root *tree_sitter.Node, source []byte, facts *Facts)
}

// TreeSitterExtractor implements Extractor using tree-sitter grammars. A new
// tree-sitter parser is created per Parse call, so concurrent Parse calls are
// safe.
type TreeSitterExtractor struct {
	languages map[Language]*tree_sitter.Language
	walkers   map[Language]walker
}

// NewTreeSitterExtractor registers the C++, Go, Python, Rust, and TypeScript
// grammars.
func NewTreeSitterExtractor() *TreeSitterExtractor {
	return &TreeSitterExtractor{
		languages: map[Language]*tree_sitter.Language{
			LangCpp:        tree_sitter.NewLanguage(tree_sitter_cpp.Language()),
			LangGo:         tree_sitter.NewLanguage(tree_sitter_go.Language()),
			LangPython:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
			LangRust:       tree_sitter.NewLanguage(tree_sitter_rust.Language()),
			LangTypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		},
		walkers: map[Language]walker{
			LangCpp:        &cppWalker{},
			LangGo:         &goWalker{},
			LangPython:     &pyWalker{},
			LangRust:       &rsWalker{},
			LangTypeScript: &tsWalker{},
		},
	}
}

// Parse extracts structural facts for one file. Files with no registered
// grammar, empty content, or an unparseable AST yield empty facts: structure
// extraction is best-effort by contract.
func (e *TreeSitterExtractor) Parse(_ context.Context, file catalog.SourceFile) Facts {
	facts := Facts{
		Path:     file.Path,
		Includes: []string{},
	}

	lang, ok := extToLanguage[file.Ext]
	if !ok || len(file.Content) == 0 {
		return facts
	}

	tsLang := e.languages[lang]
	w := e.walkers[lang]
	if tsLang == nil || w == nil {
		return facts
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tsLang); err != nil {
		return facts
	}

	tree := parser.Parse(file.Content, nil)
	if tree == nil {
		return facts
	}
	defer tree.Close()

	w.Walk(tree.RootNode(), file.Content, &facts)
	normalize(&facts)
	return facts
}

// Close is a no-op because parsers are created per Parse call.
func (e *TreeSitterExtractor) Close() error { return nil }

// walkTree visits every node depth-first, invoking visit on each.
func walkTree(cursor *tree_sitter.TreeCursor, visit func(node *tree_sitter.Node)) {
	visit(cursor.Node())
	if cursor.GotoFirstChild() {
		walkTree(cursor, visit)
		for cursor.GotoNextSibling() {
			walkTree(cursor, visit)
		}
		cursor.GotoParent()
	}
}
