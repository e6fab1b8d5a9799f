package treesitter

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
)

// Grammar names accepted by NewLanguageParser.
const (
	LangC   = "c"
	LangCpp = "cpp"
)

// LanguageParser wraps tree-sitter parser with language-specific grammar
// IMPORTANT: Always call Close() to prevent memory leaks (CGO requirement)
type LanguageParser struct {
	parser   *sitter.Parser
	language *sitter.Language
	langName string
}

// NewLanguageParser creates a parser for the specified language
// Supported languages: c, cpp
// Returns error if language is unsupported
func NewLanguageParser(lang string) (*LanguageParser, error) {
	parser := sitter.NewParser()
	if parser == nil {
		return nil, fmt.Errorf("failed to create tree-sitter parser")
	}

	var language *sitter.Language
	switch lang {
	case LangC:
		language = sitter.NewLanguage(tree_sitter_c.Language())
	case LangCpp, "c++":
		language = sitter.NewLanguage(tree_sitter_cpp.Language())
	default:
		parser.Close()
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	if err := parser.SetLanguage(language); err != nil {
		parser.Close()
		return nil, fmt.Errorf("failed to set language %s: %w", lang, err)
	}

	return &LanguageParser{
		parser:   parser,
		language: language,
		langName: lang,
	}, nil
}

// Language returns the grammar name the parser was created with
func (lp *LanguageParser) Language() string {
	return lp.langName
}

// Close releases parser resources (REQUIRED - CGO memory management)
func (lp *LanguageParser) Close() {
	if lp.parser != nil {
		lp.parser.Close()
	}
}

// Parse parses source code and returns the syntax tree
// Caller must call tree.Close() when done
func (lp *LanguageParser) Parse(code []byte) (*sitter.Tree, error) {
	tree := lp.parser.Parse(code, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse code")
	}
	return tree, nil
}

// DetectLanguage returns the grammar for a header or source file, or "" when
// the extension is not a C family one. Plain .h is parsed as C, matching
// what a C compiler driver assumes.
func DetectLanguage(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))

	langMap := map[string]string{
		".h":   LangC,
		".c":   LangC,
		".hh":  LangCpp,
		".hpp": LangCpp,
		".hxx": LangCpp,
		".h++": LangCpp,
		".cc":  LangCpp,
		".cpp": LangCpp,
		".cxx": LangCpp,
	}

	return langMap[ext]
}
