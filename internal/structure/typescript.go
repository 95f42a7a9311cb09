package structure

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// tsWalker extracts facts from TypeScript source files.
type tsWalker struct{}

func (w *tsWalker) Walk(root *tree_sitter.Node, source []byte, facts *Facts) {
	cursor := root.Walk()
	defer cursor.Close()

	walkTree(cursor, func(node *tree_sitter.Node) {
		switch node.Kind() {
		case "import_statement":
			if src := node.ChildByFieldName("source"); src != nil {
				p := strings.Trim(src.Utf8Text(source), "\"'`")
				if p != "" {
					facts.Includes = append(facts.Includes, p)
				}
			}

		case "function_declaration":
			if fn := w.function(node, source); fn != nil {
				facts.Functions = append(facts.Functions, *fn)
			}

		case "class_declaration", "interface_declaration":
			if cl := w.class(node, source); cl != nil {
				facts.Classes = append(facts.Classes, *cl)
			}
		}
	})
}

func (w *tsWalker) function(node *tree_sitter.Node, source []byte) *Function {
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

func (w *tsWalker) class(node *tree_sitter.Node, source []byte) *Class {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	cl := &Class{Name: nameNode.Utf8Text(source)}

	body := node.ChildByFieldName("body")
	if body != nil {
		seen := make(map[string]bool)
		cursor := body.Walk()
		defer cursor.Close()
		walkTree(cursor, func(n *tree_sitter.Node) {
			kind := n.Kind()
			if kind != "property_identifier" {
				return
			}
			name := n.Utf8Text(source)
			if name != "" && !seen[name] {
				seen[name] = true
				cl.Members = append(cl.Members, name)
			}
		})
	}

	return cl
}
