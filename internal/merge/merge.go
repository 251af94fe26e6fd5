// Package merge reconciles raw provider findings into one canonical
// finding per variable name.
package merge

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jenian/envscout/internal/finding"
)

// sourcePriority ranks source tags for the representative tag of a merged
// finding. Lower is better.
var sourcePriority = map[finding.Source]int{
	finding.SourceAST:        0,
	finding.SourceProcess:    1,
	finding.SourceImportMeta: 2,
	finding.SourceDotenv:     3,
	finding.SourceShell:      4,
	finding.SourceDocker:     5,
	finding.SourceGHA:        6,
}

// Findings folds the concatenated provider outputs into exactly one
// finding per distinct name and returns them sorted for deterministic
// output. Group iteration order is the input order, which callers keep
// stable by concatenating provider reports in registration order.
//
// Merging an empty list is a contract violation and panics.
func Findings(raw []finding.Finding) []finding.Finding {
	if len(raw) == 0 {
		panic("merge: empty finding list")
	}

	var order []string
	groups := make(map[string][]finding.Finding)
	for _, f := range raw {
		if _, ok := groups[f.Name]; !ok {
			order = append(order, f.Name)
		}
		groups[f.Name] = append(groups[f.Name], f)
	}

	out := make([]finding.Finding, 0, len(order))
	for _, name := range order {
		group := groups[name]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		out = append(out, fold(group))
	}

	c := collate.New(language.English)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}

// fold collapses one name group. required and isPublic are ORs: partial
// evidence of optionality never overrides a single piece of evidence of
// necessity. The default is the first non-empty value in group order and
// notes concatenate without dedup.
func fold(group []finding.Finding) finding.Finding {
	merged := finding.Finding{
		Name:   group[0].Name,
		Source: pickSource(group),
	}

	seen := make(map[string]bool)
	for _, f := range group {
		for _, ref := range f.Files {
			pos := ref.Pos()
			if seen[pos] {
				continue
			}
			seen[pos] = true
			merged.Files = append(merged.Files, ref)
		}
		merged.Required = merged.Required || f.Required
		merged.IsPublic = merged.IsPublic || f.IsPublic
		if merged.DefaultValue == "" {
			merged.DefaultValue = f.DefaultValue
		}
		merged.Notes = append(merged.Notes, f.Notes...)
	}
	return merged
}

// pickSource returns the highest-priority tag present in the group,
// falling back to the first member's tag if no member carries a ranked
// tag (defensive against future source tags).
func pickSource(group []finding.Finding) finding.Source {
	best := group[0].Source
	bestRank, ok := sourcePriority[best]
	if !ok {
		bestRank = len(sourcePriority)
	}
	for _, f := range group[1:] {
		if rank, ok := sourcePriority[f.Source]; ok && rank < bestRank {
			best, bestRank = f.Source, rank
		}
	}
	return best
}
