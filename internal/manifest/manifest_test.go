package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jenian/envscout/internal/finding"
	"github.com/jenian/envscout/internal/provider"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func byName(findings []finding.Finding) map[string]finding.Finding {
	out := make(map[string]finding.Finding)
	for _, f := range findings {
		out[f.Name] = f
	}
	return out
}

func TestComposeListEncoding(t *testing.T) {
	content := `
services:
  web:
    image: app
    environment:
      - DATABASE_URL=postgres://db:5432/app
      - SESSION_SECRET
`
	path := writeFile(t, t.TempDir(), "docker-compose.yml", content)
	rep, err := New().Scan([]string{path}, provider.Options{})
	require.NoError(t, err)
	require.Len(t, rep.Findings, 2)

	got := byName(rep.Findings)
	assert.False(t, got["DATABASE_URL"].Required)
	assert.Equal(t, "postgres://db:5432/app", got["DATABASE_URL"].DefaultValue)
	assert.Equal(t, finding.SourceDocker, got["DATABASE_URL"].Source)
	assert.True(t, got["SESSION_SECRET"].Required)
	assert.Empty(t, got["SESSION_SECRET"].DefaultValue)
}

func TestComposeMapEncoding(t *testing.T) {
	content := `
services:
  worker:
    environment:
      QUEUE_URL: amqp://mq:5672
      WORKER_TOKEN: null
      CONCURRENCY: 4
`
	path := writeFile(t, t.TempDir(), "compose.yaml", content)
	rep, err := New().Scan([]string{path}, provider.Options{})
	require.NoError(t, err)

	got := byName(rep.Findings)
	require.Len(t, got, 3)
	assert.False(t, got["QUEUE_URL"].Required)
	assert.True(t, got["WORKER_TOKEN"].Required, "null value means the variable must be supplied")
	assert.Equal(t, "4", got["CONCURRENCY"].DefaultValue, "scalar values are stringified")
}

func TestComposeEnvFileNotedNotFollowed(t *testing.T) {
	content := `
services:
  api:
    env_file: .env.production
    environment:
      - LOG_LEVEL=info
`
	path := writeFile(t, t.TempDir(), "docker-compose.yml", content)
	rep, err := New().Scan([]string{path}, provider.Options{})
	require.NoError(t, err)
	require.Len(t, rep.Findings, 1)
	require.Len(t, rep.Findings[0].Notes, 1)
	assert.Contains(t, rep.Findings[0].Notes[0], ".env.production")
	assert.Contains(t, rep.Findings[0].Notes[0], "not followed")
}

func TestWorkflowLevels(t *testing.T) {
	content := `
name: ci
env:
  CI_REGISTRY: ghcr.io
jobs:
  build:
    env:
      GOFLAGS: -mod=readonly
    steps:
      - name: deploy
        env:
          DEPLOY_TOKEN: ${{ secrets.DEPLOY_TOKEN }}
`
	path := writeFile(t, t.TempDir(), ".github/workflows/ci.yml", content)
	rep, err := New().Scan([]string{path}, provider.Options{})
	require.NoError(t, err)

	got := byName(rep.Findings)
	require.Len(t, got, 3)
	for name, f := range got {
		assert.False(t, f.Required, "workflow env entries are never required: %s", name)
		assert.Equal(t, finding.SourceGHA, f.Source)
	}
	assert.Equal(t, "workflow env", got["CI_REGISTRY"].Files[0].Context)
	assert.Equal(t, "job build", got["GOFLAGS"].Files[0].Context)
	assert.Equal(t, "job build / deploy", got["DEPLOY_TOKEN"].Files[0].Context)
}

func TestUnrecognizedShapeIgnored(t *testing.T) {
	content := `
kind: ConfigMap
data:
  SOME_VAR: value
`
	path := writeFile(t, t.TempDir(), "configmap.yaml", content)
	rep, err := New().Scan([]string{path}, provider.Options{})
	require.NoError(t, err)
	assert.Empty(t, rep.Findings)
}

func TestMalformedYAMLIsParseError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "docker-compose.yml", "services: [unclosed\n  nope")
	rep, err := New().Scan([]string{path}, provider.Options{})
	require.NoError(t, err, "a malformed file must not abort the batch")
	assert.Equal(t, 1, rep.ParseErrors)
	assert.Empty(t, rep.Findings)
}

func TestPlaceholderPositionsAreStable(t *testing.T) {
	content := `
services:
  app:
    environment:
      B_VAR: 1
      A_VAR: 2
`
	dir := t.TempDir()
	path := writeFile(t, dir, "compose.yml", content)
	rep1, err := New().Scan([]string{path}, provider.Options{})
	require.NoError(t, err)
	rep2, err := New().Scan([]string{path}, provider.Options{})
	require.NoError(t, err)
	assert.Equal(t, rep1.Findings, rep2.Findings, "traversal order must not depend on map iteration")
	assert.Equal(t, "A_VAR", rep1.Findings[0].Name)
	assert.Equal(t, 1, rep1.Findings[0].Files[0].Line)
	assert.Equal(t, 2, rep1.Findings[1].Files[0].Line)
}
