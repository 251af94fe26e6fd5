// Package manifest extracts environment declarations from YAML-shaped
// manifests: container compose files and CI workflow files. Anything else
// is left alone - there is no generic key sniffing.
package manifest

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jenian/envscout/internal/finding"
	"github.com/jenian/envscout/internal/provider"
)

// kind is the tagged variant a file is classified into before any decoding.
type kind int

const (
	kindUnrecognized kind = iota
	kindCompose
	kindWorkflow
)

func classify(path string) kind {
	base := filepath.Base(path)
	if strings.Contains(base, "compose") {
		return kindCompose
	}
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == "workflows" {
			return kindWorkflow
		}
	}
	return kindUnrecognized
}

type composeDoc struct {
	Services map[string]composeService `yaml:"services"`
}

type composeService struct {
	Environment any `yaml:"environment"`
	EnvFile     any `yaml:"env_file"`
}

type workflowDoc struct {
	Env  map[string]any         `yaml:"env"`
	Jobs map[string]workflowJob `yaml:"jobs"`
}

type workflowJob struct {
	Env   map[string]any `yaml:"env"`
	Steps []workflowStep `yaml:"steps"`
}

type workflowStep struct {
	Name string         `yaml:"name"`
	Env  map[string]any `yaml:"env"`
}

// Provider implements the structured-config extraction.
type Provider struct{}

func New() *Provider { return &Provider{} }

func (p *Provider) Name() string           { return "manifest" }
func (p *Provider) Source() finding.Source { return finding.SourceDocker }
func (p *Provider) Extensions() []string   { return []string{".yml", ".yaml"} }

func (p *Provider) Scan(files []string, opts provider.Options) (provider.Report, error) {
	var rep provider.Report
	for _, path := range files {
		if !provider.MatchExt(path, p.Extensions()) {
			continue
		}
		k := classify(path)
		if k == kindUnrecognized {
			continue
		}
		content, ok := opts.ReadFile(path)
		if !ok {
			continue
		}
		var (
			fs  []finding.Finding
			err error
		)
		switch k {
		case kindCompose:
			fs, err = parseCompose(path, content, opts)
		case kindWorkflow:
			fs, err = parseWorkflow(path, content, opts)
		}
		if err != nil {
			rep.ParseErrors++
			continue
		}
		rep.Findings = append(rep.Findings, fs...)
	}
	return rep, nil
}

// walker hands out placeholder positions in traversal order. Structural
// decoding loses real line/column information, so positions here only
// serve dedup identity and stable ordering.
type walker struct {
	path string
	ord  int
	opts provider.Options
	out  []finding.Finding
}

func (w *walker) emit(name string, src finding.Source, required bool, def, context, hint string, notes []string) {
	if !finding.ValidName(name) {
		return
	}
	w.ord++
	f := finding.Finding{
		Name:     name,
		Source:   src,
		Required: required,
		IsPublic: w.opts.IsPublic(name),
		Notes:    notes,
		Files: []finding.FileRef{{
			FilePath: w.path,
			Line:     w.ord,
			Column:   1,
			Context:  context,
			Hint:     hint,
		}},
	}
	if !required {
		f.DefaultValue = def
	}
	w.out = append(w.out, f)
}

func parseCompose(path string, content []byte, opts provider.Options) ([]finding.Finding, error) {
	var doc composeDoc
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}
	w := &walker{path: path, opts: opts}
	for _, svc := range sortedKeys(doc.Services) {
		service := doc.Services[svc]
		first := len(w.out)
		switch env := service.Environment.(type) {
		case []any:
			for _, item := range env {
				s, ok := item.(string)
				if !ok {
					continue
				}
				name, value, hasValue := strings.Cut(s, "=")
				name = strings.TrimSpace(name)
				if hasValue {
					w.emit(name, finding.SourceDocker, false, strings.TrimSpace(value),
						"service "+svc, "compose environment", nil)
				} else {
					w.emit(name, finding.SourceDocker, true, "",
						"service "+svc, "compose environment", nil)
				}
			}
		case map[string]any:
			for _, name := range sortedKeys(env) {
				value := env[name]
				if value == nil {
					w.emit(name, finding.SourceDocker, true, "",
						"service "+svc, "compose environment", nil)
				} else {
					w.emit(name, finding.SourceDocker, false, stringify(value),
						"service "+svc, "compose environment", nil)
				}
			}
		}
		// env_file contents surface through the dotenv provider scanning
		// the referenced file itself; only note the pointer on the
		// service's own findings.
		if refs := envFileRefs(service.EnvFile); len(refs) > 0 && first < len(w.out) {
			note := fmt.Sprintf("service %s references env_file %s (not followed)",
				svc, strings.Join(refs, ", "))
			w.out[first].Notes = append(w.out[first].Notes, note)
		}
	}
	return w.out, nil
}

func parseWorkflow(path string, content []byte, opts provider.Options) ([]finding.Finding, error) {
	var doc workflowDoc
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}
	w := &walker{path: path, opts: opts}

	// Workflow, job and step env entries are optional overrides by
	// definition: the manifest cannot express "must be set", so none of
	// them are ever marked required.
	emitEnv := func(env map[string]any, context string) {
		for _, name := range sortedKeys(env) {
			w.emit(name, finding.SourceGHA, false, stringify(env[name]),
				context, "workflow env", nil)
		}
	}

	emitEnv(doc.Env, "workflow env")
	for _, jobID := range sortedKeys(doc.Jobs) {
		job := doc.Jobs[jobID]
		emitEnv(job.Env, "job "+jobID)
		for i, step := range job.Steps {
			label := step.Name
			if label == "" {
				label = fmt.Sprintf("step %d", i+1)
			}
			emitEnv(step.Env, "job "+jobID+" / "+label)
		}
	}
	return w.out, nil
}

// envFileRefs normalizes the env_file field, which may be a scalar or a
// list.
func envFileRefs(v any) []string {
	switch ref := v.(type) {
	case string:
		return []string{ref}
	case []any:
		var out []string
		for _, item := range ref {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// sortedKeys fixes map iteration order so placeholder positions, default
// tie-breaks and note order are reproducible across runs.
func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
