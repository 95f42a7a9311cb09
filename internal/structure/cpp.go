package structure

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// cppWalker extracts facts from C/C++ translation units. The .h/.cpp split
// means a name commonly appears twice across a pair: declared in the header,
// defined (possibly qualified, Class::method) in the implementation file.
type cppWalker struct{}

func (w *cppWalker) Walk(root *tree_sitter.Node, source []byte, facts *Facts) {
	cursor := root.Walk()
	defer cursor.Close()

	walkTree(cursor, func(node *tree_sitter.Node) {
		switch node.Kind() {
		case "preproc_include":
			if inc := w.includePath(node, source); inc != "" {
				facts.Includes = append(facts.Includes, inc)
			}

		case "function_definition":
			if fn := w.function(node, source); fn != nil {
				facts.Functions = append(facts.Functions, *fn)
			}

		case "class_specifier", "struct_specifier":
			if cl := w.class(node, source); cl != nil {
				facts.Classes = append(facts.Classes, *cl)
			}
		}
	})
}

// includePath returns the include target with quote or angle-bracket
// delimiters stripped, e.g. `#include "Clock.h"` -> "Clock.h".
func (w *cppWalker) includePath(node *tree_sitter.Node, source []byte) string {
	pathNode := node.ChildByFieldName("path")
	if pathNode == nil {
		return ""
	}
	switch pathNode.Kind() {
	case "string_literal", "system_lib_string":
		return strings.Trim(pathNode.Utf8Text(source), `"<>`)
	}
	return ""
}

func (w *cppWalker) function(node *tree_sitter.Node, source []byte) *Function {
	decl := findDescendant(node.ChildByFieldName("declarator"), "function_declarator")
	if decl == nil {
		return nil
	}

	nameNode := decl.ChildByFieldName("declarator")
	if nameNode == nil {
		return nil
	}

	name := nameNode.Utf8Text(source)
	if name == "" {
		return nil
	}

	return &Function{
		Name:      name,
		Signature: collapseSpace(decl.Utf8Text(source)),
	}
}

func (w *cppWalker) class(node *tree_sitter.Node, source []byte) *Class {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil // anonymous or forward declaration
	}

	cl := &Class{Name: nameNode.Utf8Text(source)}

	body := node.ChildByFieldName("body")
	if body == nil {
		return nil // forward declaration, skip
	}

	// Field and method names inside a class body are field_identifiers.
	seen := make(map[string]bool)
	cursor := body.Walk()
	defer cursor.Close()
	walkTree(cursor, func(n *tree_sitter.Node) {
		if n.Kind() != "field_identifier" {
			return
		}
		name := n.Utf8Text(source)
		if name != "" && !seen[name] {
			seen[name] = true
			cl.Members = append(cl.Members, name)
		}
	})

	return cl
}

// findDescendant returns the first depth-first descendant of node (node
// included) with the given kind, or nil.
func findDescendant(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	if node == nil {
		return nil
	}
	if node.Kind() == kind {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := findDescendant(node.Child(i), kind); found != nil {
			return found
		}
	}
	return nil
}

// collapseSpace normalizes whitespace runs so multi-line declarators become
// single-line signatures.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
