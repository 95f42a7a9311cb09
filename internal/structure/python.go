package structure

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// pyWalker extracts facts from Python modules. Import tokens are rewritten
// into path-like form ("pkg.mod" -> "pkg/mod") so graph resolution can match
// them against catalogued file paths.
type pyWalker struct{}

func (w *pyWalker) Walk(root *tree_sitter.Node, source []byte, facts *Facts) {
	cursor := root.Walk()
	defer cursor.Close()

	walkTree(cursor, func(node *tree_sitter.Node) {
		switch node.Kind() {
		case "import_statement":
			for i := uint(0); i < node.ChildCount(); i++ {
				child := node.Child(i)
				if child != nil && child.Kind() == "dotted_name" {
					if tok := pyModuleToken(child.Utf8Text(source)); tok != "" {
						facts.Includes = append(facts.Includes, tok)
					}
				}
			}

		case "import_from_statement":
			if moduleNode := node.ChildByFieldName("module_name"); moduleNode != nil {
				if tok := pyModuleToken(moduleNode.Utf8Text(source)); tok != "" {
					facts.Includes = append(facts.Includes, tok)
				}
			}

		case "function_definition":
			if isPyTopLevel(node) {
				if fn := w.function(node, source); fn != nil {
					facts.Functions = append(facts.Functions, *fn)
				}
			}

		case "class_definition":
			if isPyTopLevel(node) {
				if cl := w.class(node, source); cl != nil {
					facts.Classes = append(facts.Classes, *cl)
				}
			}
		}
	})
}

func (w *pyWalker) function(node *tree_sitter.Node, source []byte) *Function {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	sig := nameNode.Utf8Text(source)
	if params := node.ChildByFieldName("parameters"); params != nil {
		sig += collapseSpace(params.Utf8Text(source))
	}

	return &Function{
		Name:      nameNode.Utf8Text(source),
		Signature: sig,
	}
}

func (w *pyWalker) class(node *tree_sitter.Node, source []byte) *Class {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	cl := &Class{Name: nameNode.Utf8Text(source)}

	// Members are the direct method names of the class body.
	body := node.ChildByFieldName("body")
	if body != nil {
		for i := uint(0); i < body.ChildCount(); i++ {
			child := body.Child(i)
			if child == nil {
				continue
			}
			def := child
			if def.Kind() == "decorated_definition" {
				def = def.ChildByFieldName("definition")
				if def == nil {
					continue
				}
			}
			if def.Kind() != "function_definition" {
				continue
			}
			if n := def.ChildByFieldName("name"); n != nil {
				cl.Members = append(cl.Members, n.Utf8Text(source))
			}
		}
	}

	return cl
}

// pyModuleToken rewrites "pkg.mod" into "pkg/mod". Relative imports keep
// their leading dots stripped; a purely-dotted import yields nothing.
func pyModuleToken(module string) string {
	module = strings.TrimLeft(module, ".")
	if module == "" {
		return ""
	}
	return strings.ReplaceAll(module, ".", "/")
}

// isPyTopLevel reports whether node sits at module scope, directly or under a
// decorator.
func isPyTopLevel(node *tree_sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	if parent.Kind() == "module" {
		return true
	}
	if parent.Kind() == "decorated_definition" {
		grandparent := parent.Parent()
		return grandparent != nil && grandparent.Kind() == "module"
	}
	return false
}
