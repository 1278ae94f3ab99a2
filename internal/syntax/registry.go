package syntax

import (
	"path/filepath"
	"strings"
	"unsafe"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Language describes how one grammar's node kinds map onto the normalized
// tree.
type Language struct {
	Name       string
	Extensions []string

	grammar   func() unsafe.Pointer
	blocks    map[string]bool
	functions map[string]bool
	// detailed lowering into decl/expr/name/operator nodes; nil lowers
	// blocks and functions only
	lowerStatements func(l *lowerer, n *sitter.Node) []*Node
}

func (l *Language) sitterLanguage() *sitter.Language {
	return sitter.NewLanguage(l.grammar())
}

func set(kinds ...string) map[string]bool {
	m := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}

var (
	langC = &Language{
		Name:            "C",
		Extensions:      []string{".c", ".h"},
		grammar:         tree_sitter_c.Language,
		blocks:          set("compound_statement", "field_declaration_list"),
		functions:       set("function_definition"),
		lowerStatements: lowerCStatement,
	}
	langGo = &Language{
		Name:       "Go",
		Extensions: []string{".go"},
		grammar:    tree_sitter_go.Language,
		blocks:     set("block", "field_declaration_list", "interface_type"),
		functions:  set("function_declaration", "method_declaration", "func_literal"),
	}
	langJava = &Language{
		Name:       "Java",
		Extensions: []string{".java"},
		grammar:    tree_sitter_java.Language,
		blocks:     set("block", "constructor_body", "class_body", "interface_body", "enum_body", "switch_block"),
		functions:  set("method_declaration", "constructor_declaration", "lambda_expression"),
	}
	langPython = &Language{
		Name:       "Python",
		Extensions: []string{".py"},
		grammar:    tree_sitter_python.Language,
		blocks:     set("block"),
		functions:  set("function_definition", "lambda"),
	}
	langTypeScript = &Language{
		Name:       "TypeScript",
		Extensions: []string{".ts"},
		grammar:    tree_sitter_typescript.LanguageTypescript,
		blocks:     set("statement_block", "class_body", "interface_body", "switch_body"),
		functions:  set("function_declaration", "method_definition", "arrow_function", "function_expression", "generator_function_declaration"),
	}
	langTSX = &Language{
		Name:       "TSX",
		Extensions: []string{".tsx"},
		grammar:    tree_sitter_typescript.LanguageTSX,
		blocks:     langTypeScript.blocks,
		functions:  langTypeScript.functions,
	}
	langJavaScript = &Language{
		Name:       "JavaScript",
		Extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		grammar:    tree_sitter_javascript.Language,
		blocks:     set("statement_block", "class_body", "switch_body"),
		functions:  set("function_declaration", "method_definition", "arrow_function", "function_expression", "generator_function_declaration"),
	}
)

// Registry maps file extensions to languages.
type Registry struct {
	languages map[string]*Language
}

func NewRegistry() *Registry {
	r := &Registry{languages: make(map[string]*Language)}
	for _, lang := range []*Language{langC, langGo, langJava, langPython, langTypeScript, langTSX, langJavaScript} {
		r.Register(lang)
	}
	return r
}

func (r *Registry) Register(lang *Language) {
	for _, ext := range lang.Extensions {
		r.languages[ext] = lang
	}
}

// ForFile returns the language of fileName, or nil when no grammar is
// registered for its extension.
func (r *Registry) ForFile(fileName string) *Language {
	ext := strings.ToLower(filepath.Ext(fileName))
	return r.languages[ext]
}

func (r *Registry) IsSupported(fileName string) bool {
	return r.ForFile(fileName) != nil
}
