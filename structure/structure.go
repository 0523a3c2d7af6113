package structure

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// ClassStructure is the outline of one decompiled class: everything a caller
// needs to see the shape of the type without reading method bodies.
type ClassStructure struct {
	Package          string   `json:"package"`
	Imports          []string `json:"imports"`
	ClassDeclaration string   `json:"class_declaration"`
	Fields           []string `json:"fields"`
	Methods          []string `json:"methods"`
}

// Parse extracts the structural outline from decompiled source. Returns nil
// when the source is empty or cannot be parsed at all.
func Parse(source string) *ClassStructure {
	if strings.TrimSpace(source) == "" {
		return nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(source))
	if err != nil || tree == nil {
		return nil
	}
	defer tree.Close()

	src := []byte(source)
	cs := &ClassStructure{
		Imports: []string{},
		Fields:  []string{},
		Methods: []string{},
	}

	root := tree.RootNode()
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "package_declaration":
			cs.Package = packageName(child, src)
		case "import_declaration":
			if imp := importPath(child, src); imp != "" {
				cs.Imports = append(cs.Imports, imp)
			}
		case "class_declaration", "interface_declaration", "enum_declaration",
			"record_declaration", "annotation_type_declaration":
			cs.ClassDeclaration = declarationLine(child, src)
			collectMembers(child, src, cs)
		}
	}
	return cs
}

func packageName(node *sitter.Node, src []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "scoped_identifier" || child.Type() == "identifier" {
			return child.Content(src)
		}
	}
	return ""
}

func importPath(node *sitter.Node, src []byte) string {
	path := ""
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "scoped_identifier", "identifier", "asterisk":
			path = child.Content(src)
		}
	}
	return path
}

// declarationLine renders the declaration up to the body, joining child nodes
// with spaces except directly-attached parameter lists.
func declarationLine(node *sitter.Node, src []byte) string {
	var b strings.Builder
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "class_body", "interface_body", "enum_body",
			"annotation_type_body", "record_declaration_body":
			return strings.TrimSpace(b.String())
		}
		if b.Len() > 0 && !attached(child.Type()) {
			b.WriteByte(' ')
		}
		b.WriteString(child.Content(src))
	}
	return strings.TrimSpace(b.String())
}

func collectMembers(node *sitter.Node, src []byte, cs *ClassStructure) {
	body := findBody(node)
	if body == nil {
		return
	}

	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "field_declaration", "constant_declaration", "enum_constant":
			cs.Fields = append(cs.Fields, normalizeWhitespace(child.Content(src)))
		case "method_declaration", "constructor_declaration":
			if sig := methodSignature(child, src); sig != "" {
				cs.Methods = append(cs.Methods, sig)
			}
		case "annotation_type_element_declaration":
			cs.Methods = append(cs.Methods, normalizeWhitespace(child.Content(src)))
		case "enum_body_declarations":
			for j := 0; j < int(child.ChildCount()); j++ {
				inner := child.Child(j)
				switch inner.Type() {
				case "field_declaration":
					cs.Fields = append(cs.Fields, normalizeWhitespace(inner.Content(src)))
				case "method_declaration", "constructor_declaration":
					if sig := methodSignature(inner, src); sig != "" {
						cs.Methods = append(cs.Methods, sig)
					}
				}
			}
		}
	}
}

func findBody(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "class_body", "interface_body", "enum_body", "annotation_type_body":
			return child
		}
	}
	return nil
}

func methodSignature(node *sitter.Node, src []byte) string {
	var b strings.Builder
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "block", "constructor_body":
			return strings.TrimSpace(b.String())
		case ";":
			continue
		}
		if b.Len() > 0 && !attached(child.Type()) {
			b.WriteByte(' ')
		}
		b.WriteString(child.Content(src))
	}
	return strings.TrimSpace(b.String())
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func attached(kind string) bool {
	switch kind {
	case "type_parameters", "formal_parameters", "type_arguments":
		return true
	}
	return false
}
