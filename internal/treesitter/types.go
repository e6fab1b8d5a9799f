package treesitter

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// SyntaxError is a node the grammar could not fit into a valid parse
type SyntaxError struct {
	Node *sitter.Node
	// Missing is set when the parser inserted a zero-width token
	Missing  bool
	Expected string
}

// Row is the zero-based row the error starts at
func (e SyntaxError) Row() uint {
	return e.Node.StartPosition().Row
}

// Column is the zero-based byte column the error starts at
func (e SyntaxError) Column() uint {
	return e.Node.StartPosition().Column
}
