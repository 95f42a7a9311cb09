package structure

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// goWalker extracts facts from Go source files. Struct and interface types
// map onto the class slot; intra-module import paths become include tokens.
type goWalker struct{}

func (w *goWalker) Walk(root *tree_sitter.Node, source []byte, facts *Facts) {
	cursor := root.Walk()
	defer cursor.Close()

	walkTree(cursor, func(node *tree_sitter.Node) {
		switch node.Kind() {
		case "import_spec":
			if pathNode := node.ChildByFieldName("path"); pathNode != nil {
				p := strings.Trim(pathNode.Utf8Text(source), `"`)
				if p != "" {
					facts.Includes = append(facts.Includes, p)
				}
			}

		case "function_declaration", "method_declaration":
			if fn := w.function(node, source); fn != nil {
				facts.Functions = append(facts.Functions, *fn)
			}

		case "type_spec":
			if cl := w.typeSpec(node, source); cl != nil {
				facts.Classes = append(facts.Classes, *cl)
			}
		}
	})
}

func (w *goWalker) function(node *tree_sitter.Node, source []byte) *Function {
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

func (w *goWalker) typeSpec(node *tree_sitter.Node, source []byte) *Class {
	nameNode := node.ChildByFieldName("name")
	typeNode := node.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil {
		return nil
	}

	kind := typeNode.Kind()
	if kind != "struct_type" && kind != "interface_type" {
		return nil
	}

	cl := &Class{Name: nameNode.Utf8Text(source)}

	cursor := typeNode.Walk()
	defer cursor.Close()
	walkTree(cursor, func(n *tree_sitter.Node) {
		if n.Kind() != "field_identifier" {
			return
		}
		if name := n.Utf8Text(source); name != "" {
			cl.Members = append(cl.Members, name)
		}
	})

	return cl
}
