package treesitter

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeText extracts text from a node using byte offsets
func NodeText(node *sitter.Node, code []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if int(end) > len(code) {
		end = uint(len(code))
	}
	if start > end {
		return ""
	}
	return string(code[start:end])
}

// SameNode reports whether two handles refer to the same syntax node.
func SameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}

// Children returns every child of node, named or not, in order.
func Children(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	count := node.ChildCount()
	out := make([]*sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		if child := node.Child(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// NamedChildren returns the named children of node in order.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	count := node.NamedChildCount()
	out := make([]*sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		if child := node.NamedChild(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// HasChildKind reports whether node has a direct child of the given kind.
func HasChildKind(node *sitter.Node, kind string) bool {
	for _, c := range Children(node) {
		if c.Kind() == kind {
			return true
		}
	}
	return false
}

// ChildrenOfKind returns the direct children of node with the given kind.
func ChildrenOfKind(node *sitter.Node, kind string) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range Children(node) {
		if c.Kind() == kind {
			out = append(out, c)
		}
	}
	return out
}

// FindSyntaxErrors collects ERROR and MISSING nodes below root.
func FindSyntaxErrors(root *sitter.Node) []SyntaxError {
	var errs []SyntaxError
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch {
		case n.IsMissing():
			errs = append(errs, SyntaxError{Node: n, Missing: true, Expected: n.Kind()})
			return
		case n.IsError():
			errs = append(errs, SyntaxError{Node: n})
			return
		}
		if !n.HasError() {
			return
		}
		for _, c := range Children(n) {
			walk(c)
		}
	}
	walk(root)
	return errs
}
