package shellscan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jenian/envscout/internal/finding"
	"github.com/jenian/envscout/internal/provider"
)

func scanScript(t *testing.T, content string) []finding.Finding {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deploy.sh")
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		t.Fatalf("failed to write test script: %v", err)
	}
	rep, err := New().Scan([]string{path}, provider.Options{})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	return rep.Findings
}

func TestBracedDefaultWithQuotes(t *testing.T) {
	findings := scanScript(t, `DATABASE_URL=${DATABASE_URL:-"postgresql://localhost:5432/app"}`+"\n")
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Name != "DATABASE_URL" {
		t.Errorf("expected DATABASE_URL, got %s", f.Name)
	}
	if f.Required {
		t.Error("expected required=false for defaulted reference")
	}
	if f.DefaultValue != "postgresql://localhost:5432/app" {
		t.Errorf("unexpected default: %q", f.DefaultValue)
	}
}

func TestReferences(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		want    map[string]bool // name -> required
		nothing bool
	}{
		{
			name:   "bare reference is required",
			script: "curl -H \"Authorization: Bearer $API_TOKEN\" https://example.com\n",
			want:   map[string]bool{"API_TOKEN": true},
		},
		{
			name:   "braced reference is required",
			script: "echo ${DEPLOY_ENV}\n",
			want:   map[string]bool{"DEPLOY_ENV": true},
		},
		{
			name:   "assign-default operator",
			script: ": ${CACHE_DIR:=/tmp/cache}\n",
			want:   map[string]bool{"CACHE_DIR": false},
		},
		{
			name:    "loop variable denylisted",
			script:  "for i in 1 2 3; do\n  echo $i\ndone\n",
			nothing: true,
		},
		{
			name:    "PATH denylisted",
			script:  "echo $PATH\n",
			nothing: true,
		},
		{
			name:    "locally assigned without fallback suppressed",
			script:  "RESULT=$(compute)\necho $RESULT\n",
			nothing: true,
		},
		{
			name:   "locally assigned with fallback still counts",
			script: "REGION=us-east-1\nREGION=${REGION:-eu-west-1}\n",
			want:   map[string]bool{"REGION": false},
		},
		{
			name:    "comment lines skipped",
			script:  "# echo $SECRET_TOKEN\n",
			nothing: true,
		},
		{
			name:    "declare registers local",
			script:  "declare -r COUNTER=0\necho $COUNTER\n",
			nothing: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := scanScript(t, tt.script)
			if tt.nothing {
				if len(findings) != 0 {
					t.Fatalf("expected no findings, got %v", findings)
				}
				return
			}
			got := make(map[string]bool)
			for _, f := range findings {
				got[f.Name] = f.Required
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for name, required := range tt.want {
				gotReq, ok := got[name]
				if !ok {
					t.Errorf("missing finding for %s", name)
					continue
				}
				if gotReq != required {
					t.Errorf("%s: required expected %v, got %v", name, required, gotReq)
				}
			}
		})
	}
}

func TestHints(t *testing.T) {
	findings := scanScript(t, "if [ -z \"$DEPLOY_KEY\" ]; then\n  exit 1\nfi\n")
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Files[0].Hint != "conditional" {
		t.Errorf("expected conditional hint, got %q", findings[0].Files[0].Hint)
	}
}

func TestFunctionHint(t *testing.T) {
	script := "setup() {\n  run --token $ROLLBAR_TOKEN\n}\n"
	findings := scanScript(t, script)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	if findings[0].Files[0].Hint != "in setup()" {
		t.Errorf("expected function hint, got %q", findings[0].Files[0].Hint)
	}
}
