// Package output renders the merged finding list for humans and tooling.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jenian/envscout/internal/finding"
	"github.com/jenian/envscout/internal/scan"
)

// EnvExample writes a .env.example skeleton: required variables first with
// a marker comment, optional variables with their discovered default.
func EnvExample(w io.Writer, findings []finding.Finding) error {
	var required, optional []finding.Finding
	for _, f := range findings {
		if f.Required {
			required = append(required, f)
		} else {
			optional = append(optional, f)
		}
	}

	writeVar := func(f finding.Finding) {
		for _, note := range f.Notes {
			fmt.Fprintf(w, "# %s\n", note)
		}
		if f.Required {
			fmt.Fprintf(w, "# required")
			if f.HasDefault() {
				fmt.Fprintf(w, " (a fallback %q exists at some call sites)", f.DefaultValue)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s=%s\n\n", f.Name, f.DefaultValue)
	}

	if len(required) > 0 {
		fmt.Fprintln(w, "# --- required ---")
		fmt.Fprintln(w)
		for _, f := range required {
			writeVar(f)
		}
	}
	if len(optional) > 0 {
		fmt.Fprintln(w, "# --- optional ---")
		fmt.Fprintln(w)
		for _, f := range optional {
			writeVar(f)
		}
	}
	return nil
}

type schemaProperty struct {
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

type jsonSchema struct {
	Schema               string                    `json:"$schema"`
	Type                 string                    `json:"type"`
	Properties           map[string]schemaProperty `json:"properties"`
	Required             []string                  `json:"required,omitempty"`
	AdditionalProperties bool                      `json:"additionalProperties"`
}

// JSONSchema writes a draft-07 object schema with one string property per
// variable.
func JSONSchema(w io.Writer, findings []finding.Finding) error {
	schema := jsonSchema{
		Schema:               "http://json-schema.org/draft-07/schema#",
		Type:                 "object",
		Properties:           make(map[string]schemaProperty, len(findings)),
		AdditionalProperties: true,
	}
	for _, f := range findings {
		prop := schemaProperty{Type: "string", Default: f.DefaultValue}
		if len(f.Notes) > 0 {
			prop.Description = strings.Join(f.Notes, "; ")
		}
		schema.Properties[f.Name] = prop
		if f.Required {
			schema.Required = append(schema.Required, f.Name)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(schema)
}

// Markdown writes a summary table plus a stats footer.
func Markdown(w io.Writer, result scan.Result) error {
	fmt.Fprintln(w, "# Environment variables")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Name | Required | Default | Public | Source | Occurrences |")
	fmt.Fprintln(w, "| --- | --- | --- | --- | --- | --- |")
	for _, f := range result.Findings {
		def := f.DefaultValue
		if def != "" {
			def = "`" + def + "`"
		}
		fmt.Fprintf(w, "| `%s` | %s | %s | %s | %s | %s |\n",
			f.Name, yesNo(f.Required), def, yesNo(f.IsPublic), f.Source, locations(f.Files))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "_%d variables across %d files (%d parse errors, %d ms)._\n",
		result.Stats.TotalFindings, result.Stats.TotalFiles,
		result.Stats.ParseErrors, result.Stats.ScanTimeMs)
	return nil
}

// JSONReport dumps the full result for tooling.
func JSONReport(w io.Writer, result scan.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// Summary writes the human terminal report. Color is applied only when the
// destination is an interactive stdout; cells are padded before painting so
// escape codes never skew the columns.
func Summary(w io.Writer, result scan.Result) error {
	pal := paletteFor(w)

	fmt.Fprintf(w, "%sScanned %d files in %d ms: %d variables%s",
		pal.paint(colorBold), result.Stats.TotalFiles, result.Stats.ScanTimeMs,
		result.Stats.TotalFindings, pal.paint(colorReset))
	if result.Stats.ParseErrors > 0 {
		fmt.Fprintf(w, " %s(%d files skipped on parse errors)%s",
			pal.paint(colorGray), result.Stats.ParseErrors, pal.paint(colorReset))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	nameWidth := len("NAME")
	for _, f := range result.Findings {
		if len(f.Name) > nameWidth {
			nameWidth = len(f.Name)
		}
	}
	fmt.Fprintf(w, "%s%-*s  %-8s  %-6s  %-10s  %s%s\n",
		pal.paint(colorBold), nameWidth, "NAME", "REQUIRED", "PUBLIC", "SOURCE", "DEFAULT",
		pal.paint(colorReset))
	for _, f := range result.Findings {
		reqColor := colorGreen
		if f.Required {
			reqColor = colorRed
		}
		name := fmt.Sprintf("%-*s", nameWidth, f.Name)
		req := fmt.Sprintf("%-8s", yesNo(f.Required))
		pub := fmt.Sprintf("%-6s", yesNo(f.IsPublic))
		src := fmt.Sprintf("%-10s", f.Source)
		fmt.Fprintf(w, "%s  %s%s%s  %s  %s%s%s  %s%s%s\n",
			name,
			pal.paint(reqColor), req, pal.paint(colorReset),
			pub,
			pal.paint(colorCyan), src, pal.paint(colorReset),
			pal.paint(colorGray), f.DefaultValue, pal.paint(colorReset))
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func locations(refs []finding.FileRef) string {
	parts := make([]string, 0, len(refs))
	for _, ref := range refs {
		parts = append(parts, fmt.Sprintf("%s:%d", ref.FilePath, ref.Line))
	}
	return strings.Join(parts, ", ")
}
