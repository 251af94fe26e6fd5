// Package scan runs the enabled providers over a discovered file list and
// assembles the merged result plus statistics.
package scan

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jenian/envscout/internal/astscan"
	"github.com/jenian/envscout/internal/dotenv"
	"github.com/jenian/envscout/internal/finding"
	"github.com/jenian/envscout/internal/manifest"
	"github.com/jenian/envscout/internal/merge"
	"github.com/jenian/envscout/internal/provider"
	"github.com/jenian/envscout/internal/shellscan"
)

// Stats summarizes one scan for renderers and exit-code logic.
type Stats struct {
	TotalFiles     int                    `json:"totalFiles"`
	TotalFindings  int                    `json:"totalFindings"`
	ParseErrors    int                    `json:"parseErrors"`
	ScanTimeMs     int64                  `json:"scanTimeMs"`
	CountsBySource map[finding.Source]int `json:"countsBySource"`
}

// Result is the full outcome of one scan invocation.
type Result struct {
	Findings []finding.Finding `json:"findings"`
	Stats    Stats             `json:"stats"`
}

// DefaultRegistry returns the four providers in their canonical
// registration order. This order fixes the merge engine's first-wins
// tie-breaks, so it must not change casually.
func DefaultRegistry() *provider.Registry {
	return provider.NewRegistry(
		astscan.New(),
		dotenv.New(),
		manifest.New(),
		shellscan.New(),
	)
}

// Orchestrator fans the file list out to providers and merges their
// reports.
type Orchestrator struct {
	registry *provider.Registry
	silent   bool
}

func New(registry *provider.Registry, silent bool) *Orchestrator {
	return &Orchestrator{registry: registry, silent: silent}
}

// Run invokes the enabled providers concurrently and merges their raw
// findings. A provider-level failure (error or panic) is isolated: its
// contribution becomes empty and the scan continues, so a scan always
// produces a report. Reports land in registration-order slots, keeping
// the merged output independent of goroutine completion order.
func (o *Orchestrator) Run(files []string, opts provider.Options) Result {
	start := time.Now()
	enabled := o.registry.Enabled(opts)
	reports := make([]provider.Report, len(enabled))

	var wg sync.WaitGroup
	for i, p := range enabled {
		wg.Add(1)
		go func(slot int, p provider.Provider) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					o.warnf("provider %s panicked: %v", p.Name(), r)
					reports[slot] = provider.Report{}
				}
			}()
			rep, err := p.Scan(files, opts)
			if err != nil {
				o.warnf("provider %s failed: %v", p.Name(), err)
				rep.Findings = nil
			}
			reports[slot] = rep
		}(i, p)
	}
	wg.Wait()

	var raw []finding.Finding
	parseErrors := 0
	for _, rep := range reports {
		raw = append(raw, rep.Findings...)
		parseErrors += rep.ParseErrors
	}

	merged := []finding.Finding{}
	if len(raw) > 0 {
		merged = merge.Findings(raw)
	}

	counts := make(map[finding.Source]int)
	for _, f := range merged {
		counts[f.Source]++
	}

	return Result{
		Findings: merged,
		Stats: Stats{
			TotalFiles:     len(files),
			TotalFindings:  len(merged),
			ParseErrors:    parseErrors,
			ScanTimeMs:     time.Since(start).Milliseconds(),
			CountsBySource: counts,
		},
	}
}

func (o *Orchestrator) warnf(format string, args ...any) {
	if o.silent {
		return
	}
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}
