// Package astscan is the source-semantics provider. It parses code files
// with tree-sitter and extracts environment accesses together with their
// guard context, so a variable read behind a fallback is reported as
// optional while a bare read is reported as required.
package astscan

import (
	"errors"
	"fmt"
	"os"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/jenian/envscout/internal/finding"
	"github.com/jenian/envscout/internal/provider"
)

// errParse marks a recoverable per-file parse failure. Anything else
// coming out of extraction aborts the whole provider run.
var errParse = errors.New("parse failure")

// envVarNode is one raw observation inside a file, before the per-file
// fold into findings.
type envVarNode struct {
	name         string
	source       finding.Source
	line, col    int
	context      string
	hint         string
	hasGuards    bool
	defaultValue string
}

// Provider implements source-semantics extraction. Grammars are loaded
// lazily and cached; tree-sitter parsers themselves are created per file
// because they are not safe for concurrent use.
type Provider struct {
	languages map[string]*sitter.Language
}

func New() *Provider {
	return &Provider{languages: make(map[string]*sitter.Language)}
}

func (p *Provider) Name() string           { return "ast" }
func (p *Provider) Source() finding.Source { return finding.SourceAST }

func (p *Provider) Extensions() []string {
	return []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".go", ".py", ".rs", ".java"}
}

func (p *Provider) language(lang string) (*sitter.Language, error) {
	if language, ok := p.languages[lang]; ok {
		return language, nil
	}
	language, err := loadLanguage(lang)
	if err != nil {
		return nil, err
	}
	p.languages[lang] = language
	return language, nil
}

func (p *Provider) Scan(files []string, opts provider.Options) (provider.Report, error) {
	var rep provider.Report
	for _, path := range files {
		lang := langForPath(path)
		if lang == "" {
			continue
		}
		content, ok := opts.ReadFile(path)
		if !ok {
			continue
		}
		nodes, err := p.extract(path, lang, content)
		if errors.Is(err, errParse) {
			if opts.Debug {
				fmt.Fprintf(os.Stderr, "[DEBUG] skipping %s: %v\n", path, err)
			}
			rep.ParseErrors++
			continue
		}
		if err != nil {
			return rep, err
		}
		rep.Findings = append(rep.Findings, foldFile(path, nodes, opts)...)
	}
	return rep, nil
}

func (p *Provider) extract(path, lang string, content []byte) ([]envVarNode, error) {
	language, err := p.language(lang)
	if err != nil {
		return nil, err
	}

	tsParser := sitter.NewParser()
	defer tsParser.Close()
	tsParser.SetLanguage(language)

	tree := tsParser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("%w: %s", errParse, path)
	}
	defer tree.Close()
	root := tree.RootNode()
	if root == nil || parseFailed(root) {
		return nil, fmt.Errorf("%w: %s", errParse, path)
	}

	if jsFamily(lang) {
		return walkJS(content, root), nil
	}
	return queryExtract(lang, language, content, root)
}

// parseFailed reports whether the tree carries no usable structure.
// tree-sitter parsing is error-tolerant, so a file with a localized syntax
// error still yields extractable siblings; only a tree whose every
// top-level construct is an error node counts as a failed parse.
func parseFailed(root *sitter.Node) bool {
	if !root.HasError() {
		return false
	}
	count := root.NamedChildCount()
	if count == 0 {
		return false
	}
	for i := uint(0); i < count; i++ {
		if !root.NamedChild(i).IsError() {
			return false
		}
	}
	return true
}

// foldFile merges observations of the same (source, name) within one file:
// file refs accumulate, guard status ORs, and the finding is required only
// when every occurrence in the file lacked a guard.
func foldFile(path string, nodes []envVarNode, opts provider.Options) []finding.Finding {
	type key struct {
		source finding.Source
		name   string
	}
	var order []key
	groups := make(map[key][]envVarNode)
	for _, n := range nodes {
		k := key{n.source, n.name}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], n)
	}

	out := make([]finding.Finding, 0, len(order))
	for _, k := range order {
		group := groups[k]
		f := finding.Finding{
			Name:     k.name,
			Source:   k.source,
			Required: true,
			IsPublic: opts.IsPublic(k.name),
		}
		for _, n := range group {
			f.Files = append(f.Files, finding.FileRef{
				FilePath: path,
				Line:     n.line,
				Column:   n.col,
				Context:  n.context,
				Hint:     n.hint,
			})
			if n.hasGuards {
				f.Required = false
			}
			if f.DefaultValue == "" {
				f.DefaultValue = n.defaultValue
			}
		}
		out = append(out, f)
	}
	return out
}

// lineAt returns the trimmed content of the line containing the byte
// offset, for display context.
func lineAt(content []byte, offset uint) string {
	start := int(offset)
	if start > len(content) {
		start = len(content)
	}
	for start > 0 && content[start-1] != '\n' {
		start--
	}
	end := int(offset)
	for end < len(content) && content[end] != '\n' {
		end++
	}
	return strings.TrimSpace(string(content[start:end]))
}

func nodeText(content []byte, n *sitter.Node) string {
	return string(content[n.StartByte():n.EndByte()])
}

// trimQuotes removes one layer of surrounding quotes from a literal.
func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') ||
			(s[0] == '\'' && s[len(s)-1] == '\'') ||
			(s[0] == '`' && s[len(s)-1] == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
