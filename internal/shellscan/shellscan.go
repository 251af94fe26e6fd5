// Package shellscan finds environment variable references in shell scripts
// with a two-pass, line-oriented heuristic. It is deliberately not a shell
// parser: heredocs and nested quoting ambiguities are out of scope.
package shellscan

import (
	"regexp"
	"strings"

	"github.com/jenian/envscout/internal/finding"
	"github.com/jenian/envscout/internal/provider"
)

var (
	assignRe = regexp.MustCompile(`^\s*(?:export\s+)?([A-Za-z_][A-Za-z0-9_]*)=`)
	declRe   = regexp.MustCompile(`^\s*(?:declare|local|readonly)(?:\s+-[A-Za-z]+)*\s+([A-Za-z_][A-Za-z0-9_]*)`)

	// One pattern for every reference form: $NAME, ${NAME}, ${NAME:-d},
	// ${NAME:=d}, ${NAME-d}, ${NAME=d}. Groups: 1 braced name, 2 operator,
	// 3 default text, 4 bare name.
	refRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::?([-=])([^}]*))?\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

	funcRe = regexp.MustCompile(`^\s*(?:function\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*\(\)\s*\{?`)
)

// denylist covers shell builtins, special variables and common loop
// variable idioms that are never external environment dependencies.
// Positional parameters already fail the identifier grammar.
var denylist = map[string]bool{
	"IFS": true, "PATH": true, "HOME": true, "PWD": true, "OLDPWD": true,
	"SHELL": true, "USER": true, "HOSTNAME": true, "LANG": true, "TERM": true,
	"RANDOM": true, "SECONDS": true, "LINENO": true, "REPLY": true,
	"FUNCNAME": true, "BASH_SOURCE": true, "OPTARG": true, "OPTIND": true,
	"UID": true, "EUID": true, "PPID": true, "PS1": true, "PS2": true,
	"i": true, "j": true, "k": true, "n": true, "x": true,
	"arg": true, "args": true, "f": true, "file": true, "files": true,
	"dir": true, "line": true, "item": true, "tmp": true, "opt": true,
}

// Provider implements the shell heuristics extraction.
type Provider struct{}

func New() *Provider { return &Provider{} }

func (p *Provider) Name() string           { return "shell" }
func (p *Provider) Source() finding.Source { return finding.SourceShell }
func (p *Provider) Extensions() []string   { return []string{".sh", ".bash", ".zsh"} }

func (p *Provider) Scan(files []string, opts provider.Options) (provider.Report, error) {
	var rep provider.Report
	for _, path := range files {
		if !provider.MatchExt(path, p.Extensions()) {
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

func (p *Provider) parse(path, content string, opts provider.Options) []finding.Finding {
	lines := strings.Split(content, "\n")

	// Pass 1: names assigned within this script. A reference to one of
	// these without a fallback is internal bookkeeping, not an external
	// dependency.
	local := make(map[string]bool)
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if m := assignRe.FindStringSubmatch(raw); m != nil {
			local[m[1]] = true
		}
		if m := declRe.FindStringSubmatch(raw); m != nil {
			local[m[1]] = true
		}
	}

	// Pass 2: references.
	var out []finding.Finding
	currentFunc := ""
	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		if m := funcRe.FindStringSubmatch(raw); m != nil {
			currentFunc = m[1]
		} else if trimmed == "}" {
			currentFunc = ""
		}

		for _, loc := range refRe.FindAllStringSubmatchIndex(raw, -1) {
			name, op, def := refAt(raw, loc)
			if name == "" || denylist[name] {
				continue
			}
			hasDefault := op != ""
			if local[name] && !hasDefault {
				continue
			}

			ref := finding.FileRef{
				FilePath: path,
				Line:     i + 1,
				Column:   loc[0] + 1,
				Context:  trimmed,
				Hint:     classify(trimmed, currentFunc),
			}
			f := finding.Finding{
				Name:     name,
				Source:   finding.SourceShell,
				Files:    []finding.FileRef{ref},
				Required: !hasDefault,
				IsPublic: opts.IsPublic(name),
			}
			if hasDefault {
				f.DefaultValue = unquote(def)
			}
			out = append(out, f)
		}
	}
	return out
}

// refAt decodes one refRe match from its submatch indexes.
func refAt(line string, loc []int) (name, op, def string) {
	group := func(n int) string {
		if loc[2*n] < 0 {
			return ""
		}
		return line[loc[2*n]:loc[2*n+1]]
	}
	if braced := group(1); braced != "" {
		return braced, group(2), group(3)
	}
	return group(4), "", ""
}

// classify labels the line for the human-readable hint. It has no effect
// on required/default/public computation.
func classify(line, currentFunc string) string {
	switch {
	case strings.HasPrefix(line, "if ") || strings.HasPrefix(line, "elif ") ||
		strings.HasPrefix(line, "while ") || strings.HasPrefix(line, "until ") ||
		strings.HasPrefix(line, "["):
		return "conditional"
	case strings.HasPrefix(line, "export "):
		return "export"
	case strings.HasPrefix(line, "echo ") || strings.HasPrefix(line, "printf "):
		return "output"
	case assignRe.MatchString(line):
		return "assignment"
	case currentFunc != "":
		return "in " + currentFunc + "()"
	default:
		return ""
	}
}

// unquote strips one layer of matching surrounding quotes from a braced
// default value.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
