package provider

import (
	"os"
	"strings"

	"github.com/jenian/envscout/internal/finding"
)

// Options is the read-only configuration for a single scan invocation.
// Providers must not mutate it.
type Options struct {
	PublicPrefixes   []string
	MaxFileSize      int64
	IncludeProviders []string
	ExcludeProviders []string
	Debug            bool
}

// DefaultMaxFileSize caps file reads when no ceiling is configured.
const DefaultMaxFileSize = 1 << 20 // 1 MiB

// IsPublic reports whether name matches one of the configured public
// prefixes (case-sensitive).
func (o Options) IsPublic(name string) bool {
	for _, p := range o.PublicPrefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Enabled reports whether the named provider participates in this scan.
// An include list, when present, wins over the exclude list.
func (o Options) Enabled(name string) bool {
	if len(o.IncludeProviders) > 0 {
		for _, n := range o.IncludeProviders {
			if n == name {
				return true
			}
		}
		return false
	}
	for _, n := range o.ExcludeProviders {
		if n == name {
			return false
		}
	}
	return true
}

// ReadFile reads path subject to the configured size ceiling. Oversize
// files are never read and unreadable files are a silent skip; both return
// ok=false so callers treat the file as absent.
func (o Options) ReadFile(path string) ([]byte, bool) {
	limit := o.MaxFileSize
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() > limit {
		return nil, false
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return content, true
}

// Report is what a provider hands back for one scan: its raw findings plus
// the number of files it had to skip over recoverable parse failures.
type Report struct {
	Findings    []finding.Finding
	ParseErrors int
}

// Provider extracts raw findings from the subset of files it claims.
// Implementations must be safe to invoke concurrently with other providers:
// no shared mutable state, no dependence on file order beyond the input
// list. A malformed file must never abort the batch.
type Provider interface {
	Name() string
	Source() finding.Source
	Extensions() []string
	Scan(files []string, opts Options) (Report, error)
}

// Registry holds providers in a fixed registration order. The order is the
// canonical iteration order for the merge engine's first-wins tie-breaks,
// so it must be stable across runs.
type Registry struct {
	providers []Provider
}

// NewRegistry builds a registry preserving the given order.
func NewRegistry(ps ...Provider) *Registry {
	return &Registry{providers: ps}
}

// Providers returns the registered providers in registration order.
func (r *Registry) Providers() []Provider {
	return r.providers
}

// Enabled returns the providers that participate under opts, still in
// registration order.
func (r *Registry) Enabled(opts Options) []Provider {
	var out []Provider
	for _, p := range r.providers {
		if opts.Enabled(p.Name()) {
			out = append(out, p)
		}
	}
	return out
}

// MatchExt reports whether path carries one of the given suffixes.
func MatchExt(path string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
