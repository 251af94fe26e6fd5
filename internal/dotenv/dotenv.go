// Package dotenv extracts variable declarations from .env-style files.
package dotenv

import (
	"path/filepath"
	"strings"

	"github.com/jenian/envscout/internal/finding"
	"github.com/jenian/envscout/internal/provider"
)

// placeholders are values that mean "fill me in" rather than a real
// default. Matched case-insensitively.
var placeholders = map[string]bool{
	"your_value_here": true,
	"change_me":       true,
	"replace_me":      true,
	"todo":            true,
	"tbd":             true,
	"...":             true,
	"xxx":             true,
}

// Provider implements the declaration-file extraction for dotenv files.
type Provider struct{}

func New() *Provider { return &Provider{} }

func (p *Provider) Name() string           { return "dotenv" }
func (p *Provider) Source() finding.Source { return finding.SourceDotenv }
func (p *Provider) Extensions() []string   { return []string{".env"} }

// claims matches .env, .env.local, .env.example, prod.env and similar
// names by basename rather than a plain extension check.
func (p *Provider) claims(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".env") {
		return true
	}
	if strings.HasSuffix(base, ".env") {
		return true
	}
	return base == "env.example" || base == "env.sample" || base == "env.template"
}

func (p *Provider) Scan(files []string, opts provider.Options) (provider.Report, error) {
	var rep provider.Report
	for _, path := range files {
		if !p.claims(path) {
			continue
		}
		content, ok := opts.ReadFile(path)
		if !ok {
			continue
		}
		rep.Findings = append(rep.Findings, p.parse(path, string(content), opts)...)
	}
	return rep, nil
}

// parse applies the line grammar: optional trailing comment (only when the
// preceding quote runs are balanced), then NAME = VALUE. Lines that do not
// fit the grammar are ignored, never an error.
func (p *Provider) parse(path, content string, opts provider.Options) []finding.Finding {
	var out []finding.Finding
	for i, raw := range strings.Split(content, "\n") {
		line := strings.TrimRight(raw, "\r")
		code, comment := splitComment(line)
		trimmed := strings.TrimSpace(code)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		eq := strings.Index(trimmed, "=")
		if eq < 0 {
			continue
		}
		name := strings.TrimSpace(trimmed[:eq])
		if !finding.ValidName(name) {
			continue
		}
		value := unquote(strings.TrimSpace(trimmed[eq+1:]))

		f := finding.Finding{
			Name:     name,
			Source:   finding.SourceDotenv,
			Required: value == "" || placeholders[strings.ToLower(value)],
			IsPublic: opts.IsPublic(name),
			Files: []finding.FileRef{{
				FilePath: path,
				Line:     i + 1,
				Column:   strings.Index(line, name) + 1,
				Context:  strings.TrimSpace(line),
				Hint:     "declaration",
			}},
		}
		if !f.Required {
			f.DefaultValue = value
		}
		if comment != "" {
			f.Notes = []string{comment}
		}
		out = append(out, f)
	}
	return out
}

// splitComment strips a trailing # comment unless the # sits inside an
// unbalanced quote run. A # starts a comment only when both the single-
// and double-quote counts before it are even.
func splitComment(line string) (code, comment string) {
	singles, doubles := 0, 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\'':
			singles++
		case '"':
			doubles++
		case '#':
			if singles%2 == 0 && doubles%2 == 0 {
				return line[:i], strings.TrimSpace(line[i+1:])
			}
		}
	}
	return line, ""
}

// unquote strips one layer of symmetric single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
