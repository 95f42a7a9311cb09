package structure

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// rsWalker extracts facts from Rust source files. Crate-relative use paths
// become path-like include tokens ("crate::cts::clock" -> "cts/clock").
type rsWalker struct{}

func (w *rsWalker) Walk(root *tree_sitter.Node, source []byte, facts *Facts) {
	cursor := root.Walk()
	defer cursor.Close()

	walkTree(cursor, func(node *tree_sitter.Node) {
		switch node.Kind() {
		case "use_declaration":
			if arg := node.ChildByFieldName("argument"); arg != nil {
				if tok := rsUseToken(arg.Utf8Text(source)); tok != "" {
					facts.Includes = append(facts.Includes, tok)
				}
			}

		case "function_item":
			if fn := w.function(node, source); fn != nil {
				facts.Functions = append(facts.Functions, *fn)
			}

		case "struct_item", "enum_item", "trait_item":
			if cl := w.item(node, source); cl != nil {
				facts.Classes = append(facts.Classes, *cl)
			}
		}
	})
}

func (w *rsWalker) function(node *tree_sitter.Node, source []byte) *Function {
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

func (w *rsWalker) item(node *tree_sitter.Node, source []byte) *Class {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	cl := &Class{Name: nameNode.Utf8Text(source)}

	cursor := node.Walk()
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

// rsUseToken rewrites a crate-relative use path into path-like form. External
// crates and glob/brace tails are cut; non-crate paths yield nothing.
func rsUseToken(arg string) string {
	if idx := strings.IndexAny(arg, "{*"); idx != -1 {
		arg = strings.TrimRight(arg[:idx], ": ")
	}
	switch {
	case strings.HasPrefix(arg, "crate::"):
		arg = strings.TrimPrefix(arg, "crate::")
	case strings.HasPrefix(arg, "self::"):
		arg = strings.TrimPrefix(arg, "self::")
	case strings.HasPrefix(arg, "super::"):
		arg = strings.TrimPrefix(arg, "super::")
	default:
		return ""
	}
	if arg == "" {
		return ""
	}
	return strings.ReplaceAll(arg, "::", "/")
}
