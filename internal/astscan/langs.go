package astscan

import (
	"fmt"
	"path/filepath"
	"strings"
	"unsafe"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// langForPath maps a file suffix to the grammar key, or "" when the file
// is not claimed.
func langForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".ts":
		return "typescript"
	case ".tsx":
		return "tsx"
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".rs":
		return "rust"
	case ".java":
		return "java"
	default:
		return ""
	}
}

// jsFamily reports whether the grammar shares the JavaScript expression
// node shapes (member_expression, subscript_expression, object_pattern).
func jsFamily(lang string) bool {
	return lang == "javascript" || lang == "typescript" || lang == "tsx"
}

func loadLanguage(lang string) (*sitter.Language, error) {
	var ptr unsafe.Pointer
	switch lang {
	case "javascript":
		ptr = tree_sitter_javascript.Language()
	case "typescript":
		ptr = tree_sitter_typescript.LanguageTypescript()
	case "tsx":
		ptr = tree_sitter_typescript.LanguageTSX()
	case "go":
		ptr = tree_sitter_go.Language()
	case "python":
		ptr = tree_sitter_python.Language()
	case "rust":
		ptr = tree_sitter_rust.Language()
	case "java":
		ptr = tree_sitter_java.Language()
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	if ptr == nil {
		return nil, fmt.Errorf("failed to load %s grammar", lang)
	}
	return sitter.NewLanguage(ptr), nil
}
