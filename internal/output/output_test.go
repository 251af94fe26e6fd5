package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jenian/envscout/internal/finding"
	"github.com/jenian/envscout/internal/scan"
)

func sampleFindings() []finding.Finding {
	return []finding.Finding{
		{
			Name:     "API_KEY",
			Source:   finding.SourceProcess,
			Required: true,
			Files:    []finding.FileRef{{FilePath: "/app/src/client.ts", Line: 12, Column: 20}},
		},
		{
			Name:         "PORT",
			Source:       finding.SourceDotenv,
			DefaultValue: "3000",
			Notes:        []string{"http listen port"},
			Files:        []finding.FileRef{{FilePath: "/app/.env", Line: 2, Column: 1}},
		},
	}
}

func sampleResult() scan.Result {
	return scan.Result{
		Findings: sampleFindings(),
		Stats: scan.Stats{
			TotalFiles:     7,
			TotalFindings:  2,
			ParseErrors:    1,
			ScanTimeMs:     42,
			CountsBySource: map[finding.Source]int{finding.SourceProcess: 1, finding.SourceDotenv: 1},
		},
	}
}

func TestEnvExample(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EnvExample(&buf, sampleFindings()))
	out := buf.String()

	reqIdx := strings.Index(out, "# --- required ---")
	optIdx := strings.Index(out, "# --- optional ---")
	require.True(t, reqIdx >= 0 && optIdx >= 0)
	assert.Less(t, reqIdx, optIdx, "required section comes first")
	assert.Contains(t, out, "# required\nAPI_KEY=\n")
	assert.Contains(t, out, "# http listen port\nPORT=3000\n")
}

func TestEnvExampleRequiredWithFallback(t *testing.T) {
	var buf bytes.Buffer
	findings := []finding.Finding{{
		Name: "DB_URL", Source: finding.SourceProcess,
		Required: true, DefaultValue: "postgres://localhost/app",
	}}
	require.NoError(t, EnvExample(&buf, findings))
	assert.Contains(t, buf.String(), `fallback "postgres://localhost/app"`)
	assert.Contains(t, buf.String(), "DB_URL=postgres://localhost/app\n")
}

func TestJSONSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONSchema(&buf, sampleFindings()))

	var schema struct {
		Schema     string `json:"$schema"`
		Properties map[string]struct {
			Type        string `json:"type"`
			Default     string `json:"default"`
			Description string `json:"description"`
		} `json:"properties"`
		Required             []string `json:"required"`
		AdditionalProperties bool     `json:"additionalProperties"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &schema))

	assert.Equal(t, "http://json-schema.org/draft-07/schema#", schema.Schema)
	assert.Equal(t, []string{"API_KEY"}, schema.Required)
	assert.True(t, schema.AdditionalProperties)
	assert.Equal(t, "string", schema.Properties["API_KEY"].Type)
	assert.Equal(t, "3000", schema.Properties["PORT"].Default)
	assert.Equal(t, "http listen port", schema.Properties["PORT"].Description)
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, sampleResult()))
	out := buf.String()

	assert.Contains(t, out, "| `API_KEY` | yes |  | no | process | /app/src/client.ts:12 |")
	assert.Contains(t, out, "| `PORT` | no | `3000` | no | dotenv | /app/.env:2 |")
	assert.Contains(t, out, "_2 variables across 7 files (1 parse errors, 42 ms)._")
}

func TestJSONReportRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONReport(&buf, sampleResult()))

	var back scan.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, sampleResult(), back)
}

func TestSummaryPlainOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Summary(&buf, sampleResult()))
	assert.NotContains(t, buf.String(), "\033[", "pipes and files must never receive ANSI codes")
}

func TestPalettePaint(t *testing.T) {
	on := palette{on: true}
	assert.Equal(t, colorRed, on.paint(colorRed))

	off := paletteFor(&bytes.Buffer{})
	assert.Equal(t, "", off.paint(colorRed))
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Summary(&buf, sampleResult()))
	out := buf.String()

	assert.Contains(t, out, "Scanned 7 files in 42 ms: 2 variables (1 files skipped on parse errors)")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	header := lines[len(lines)-3]
	assert.True(t, strings.HasPrefix(header, "NAME"), "header row: %q", header)
	assert.Contains(t, out, "API_KEY  yes")
	assert.Contains(t, out, "PORT     no")
}
