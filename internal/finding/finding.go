package finding

import (
	"fmt"
	"regexp"
)

// Source identifies how an occurrence of a variable was observed, not what
// the variable is. The set is closed; the merge engine ranks these when
// several providers report the same name.
type Source string

const (
	SourceAST        Source = "ast"        // non-JS language extractors
	SourceProcess    Source = "process"    // process.env access in JS/TS
	SourceImportMeta Source = "importmeta" // import.meta.env access in JS/TS
	SourceDotenv     Source = "dotenv"     // .env-style declaration files
	SourceDocker     Source = "docker"     // compose manifests
	SourceGHA        Source = "gha"        // CI workflow manifests
	SourceShell      Source = "shell"      // shell script heuristics
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidName reports whether s is a legal environment variable identifier.
func ValidName(s string) bool {
	return identRe.MatchString(s)
}

// FileRef points at one occurrence of a variable. Identity for
// deduplication is the (FilePath, Line, Column) triple; Context and Hint
// are display-only.
type FileRef struct {
	FilePath string `json:"filePath"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Context  string `json:"context,omitempty"`
	Hint     string `json:"hint,omitempty"`
}

// Pos returns the dedup key for the reference.
func (r FileRef) Pos() string {
	return fmt.Sprintf("%s:%d:%d", r.FilePath, r.Line, r.Column)
}

// Finding is one record of an environment variable's usage. Providers emit
// raw findings (often one per occurrence); the merge engine folds them into
// a single canonical finding per name. A Finding is constructed once and
// never mutated afterwards - updates produce a replacement value.
type Finding struct {
	Name         string    `json:"name"`
	Source       Source    `json:"source"`
	Files        []FileRef `json:"files"`
	Required     bool      `json:"required"`
	DefaultValue string    `json:"defaultValue,omitempty"`
	IsPublic     bool      `json:"isPublic"`
	Notes        []string  `json:"notes,omitempty"`
}

// HasDefault reports whether a non-empty default value was observed.
func (f Finding) HasDefault() bool {
	return f.DefaultValue != ""
}
