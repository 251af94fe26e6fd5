package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jenian/envscout/internal/config"
	"github.com/jenian/envscout/internal/discover"
	"github.com/jenian/envscout/internal/framework"
	"github.com/jenian/envscout/internal/output"
	"github.com/jenian/envscout/internal/provider"
	"github.com/jenian/envscout/internal/scan"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	rootCmd = &cobra.Command{
		Use:   "envscout",
		Short: "Discover every environment variable a codebase depends on",
		Long:  "envscout scans source code, .env files, compose/CI manifests and shell scripts, then merges everything into one canonical record per variable.",
	}

	scanCmd = &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a project and report its environment variables",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan,
	}

	initConfigCmd = &cobra.Command{
		Use:   "init-config",
		Short: "Create a " + config.FileName + " file in the current directory",
		RunE:  runInitConfig,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(Version)
		},
	}

	// Flags
	format         string
	outputPath     string
	publicPrefixes []string
	includeGlobs   []string
	excludeGlobs   []string
	onlyProviders  []string
	skipProviders  []string
	maxFileSize    int64
	failOnRequired bool
	silent         bool
	debug          bool
)

func init() {
	scanCmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, env-example, json-schema, markdown, json")
	scanCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report to a file instead of stdout")
	scanCmd.Flags().StringSliceVar(&publicPrefixes, "public-prefix", nil, "Prefix marking a variable as client-exposed (repeatable)")
	scanCmd.Flags().StringSliceVar(&includeGlobs, "include", nil, "Glob patterns to include")
	scanCmd.Flags().StringSliceVar(&excludeGlobs, "exclude", nil, "Glob patterns to exclude")
	scanCmd.Flags().StringSliceVar(&onlyProviders, "providers", nil, "Run only these providers (ast, dotenv, manifest, shell)")
	scanCmd.Flags().StringSliceVar(&skipProviders, "skip-providers", nil, "Skip these providers")
	scanCmd.Flags().Int64Var(&maxFileSize, "max-file-size", provider.DefaultMaxFileSize, "Per-file byte ceiling; larger files are never read")
	scanCmd.Flags().BoolVar(&failOnRequired, "fail-on-required", false, "Exit 1 when any required variable is found (CI gate)")
	scanCmd.Flags().BoolVar(&silent, "silent", false, "Suppress warnings and progress output")
	scanCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(initConfigCmd)
	rootCmd.AddCommand(versionCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", absPath)
	}

	cfg, err := config.Load(absPath)
	if err != nil {
		if !silent {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		cfg = &config.Config{}
	}

	prefixes := append([]string{}, cfg.PublicPrefixes...)
	prefixes = append(prefixes, publicPrefixes...)
	if tag := framework.Detect(absPath); tag != "" {
		prefixes = append(prefixes, framework.PublicPrefixes(tag)...)
		if !silent {
			fmt.Fprintf(os.Stderr, "Detected framework: %s\n", tag)
		}
	}

	ceiling := maxFileSize
	if cfg.MaxFileSize > 0 && !cmd.Flags().Changed("max-file-size") {
		ceiling = cfg.MaxFileSize
	}

	files, err := discover.Files(discover.Config{
		Root:         absPath,
		IncludeGlobs: append(append([]string{}, cfg.Include...), includeGlobs...),
		ExcludeGlobs: append(append([]string{}, cfg.Exclude...), excludeGlobs...),
		ExcludeDirs:  cfg.ExcludeDirs,
		MaxFileSize:  ceiling,
	})
	if err != nil {
		return fmt.Errorf("failed to scan directory: %w", err)
	}
	if !silent {
		fmt.Fprintf(os.Stderr, "Scanning %d files under %s...\n", len(files), absPath)
	}

	opts := provider.Options{
		PublicPrefixes:   prefixes,
		MaxFileSize:      ceiling,
		IncludeProviders: firstNonEmpty(onlyProviders, cfg.Providers.Include),
		ExcludeProviders: firstNonEmpty(skipProviders, cfg.Providers.Exclude),
		Debug:            debug,
	}

	orchestrator := scan.New(scan.DefaultRegistry(), silent)
	result := orchestrator.Run(files, opts)

	if err := render(result); err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}

	if failOnRequired {
		for _, f := range result.Findings {
			if f.Required {
				os.Exit(1)
			}
		}
	}
	return nil
}

func render(result scan.Result) error {
	var w io.Writer = os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "env-example":
		return output.EnvExample(w, result.Findings)
	case "json-schema":
		return output.JSONSchema(w, result.Findings)
	case "markdown":
		return output.Markdown(w, result)
	case "json":
		return output.JSONReport(w, result)
	case "table":
		return output.Summary(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func firstNonEmpty(a, b []string) []string {
	if len(a) > 0 {
		return a
	}
	return b
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(config.FileName); err == nil {
		return fmt.Errorf("%s already exists in the current directory", config.FileName)
	}

	content := `# ` + config.FileName + `
# Configuration for envscout.

# Prefixes marking a variable as safe to expose to client-side code.
# Framework detection (next, vite, ...) adds its own prefixes on top.
publicPrefixes:
  # - NEXT_PUBLIC_

# Glob patterns applied to paths relative to the scan root.
include: []
exclude: []

# Directory names skipped entirely (node_modules, .git etc. are built in).
excludeDirs: []

# Files larger than this many bytes are never read.
maxFileSize: 1048576

providers:
  # Run only these providers (ast, dotenv, manifest, shell)...
  include: []
  # ...or run everything except these.
  exclude: []
`
	if err := os.WriteFile(config.FileName, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to create %s: %w", config.FileName, err)
	}
	fmt.Printf("Created %s in the current directory\n", config.FileName)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
