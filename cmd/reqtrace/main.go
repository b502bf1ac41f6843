package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/journalbrand/reqtrace/internal/config"
	"github.com/journalbrand/reqtrace/internal/dashboard"
	"github.com/journalbrand/reqtrace/internal/jsonld"
	"github.com/journalbrand/reqtrace/internal/matrix"
	"github.com/journalbrand/reqtrace/internal/registry"
	"github.com/journalbrand/reqtrace/internal/report"
	"github.com/journalbrand/reqtrace/internal/validate"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// codeError returns an exitErr for the given code.
func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// validateFlags holds the parsed flags for the validate command.
type validateFlags struct {
	early        bool
	testResults  string
	testMappings []string
	format       string
	out          string
	verbose      bool
}

// aggregateFlags holds the parsed flags for the aggregate command.
type aggregateFlags struct {
	results      string
	requirements string
	components   string
	out          string
	verbose      bool
}

func main() {
	root := &cobra.Command{
		Use:     "reqtrace",
		Short:   "Requirements traceability and compliance reporting",
		Long:    "Reqtrace validates requirement hierarchies and test-to-requirement mappings across component repositories, and aggregates test results into a compliance matrix.",
		Version: version,
	}

	root.AddCommand(newValidateCmd(), newAggregateCmd(), newDiffCmd(), newServeCmd())

	if err := root.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		// cobra already printed the error
		os.Exit(1)
	}
}

func newValidateCmd() *cobra.Command {
	var flags validateFlags
	cmd := &cobra.Command{
		Use:   "validate <systemReqsFile> [componentReqsFile...]",
		Short: "Check referential integrity of requirements and test mappings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args, flags)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&flags.early, "early", false, "Early validation: structural integrity before tests run")
	f.StringVar(&flags.testResults, "test-results", "", "Results validation: check test-result documents under this directory")
	f.StringArrayVar(&flags.testMappings, "test-mappings", nil, "Glob of test-mapping files (may be repeated; early mode only)")
	f.StringVar(&flags.format, "format", "text", "Output format: text or json")
	f.StringVar(&flags.out, "out", "", "Write report to file instead of stdout")
	f.BoolVar(&flags.verbose, "verbose", false, "Print processing steps to stderr")

	return cmd
}

func runValidate(args []string, flags validateFlags) error {
	if err := checkValidateFlags(flags); err != nil {
		return codeError(1, "invalid flags: %s", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return codeError(1, "loading config: %s", err)
	}

	// Build the registry: system file first, then one document per component.
	logVerbose(flags.verbose, "Loading system requirements: %s", args[0])
	sysDoc, err := jsonld.Load(args[0])
	if err != nil {
		return codeError(1, "loading system requirements: %s", err)
	}
	reg := registry.New()
	reg.AddSystem(sysDoc)
	warnings := append([]string(nil), sysDoc.Warnings...)

	for _, path := range args[1:] {
		component := cfg.ComponentName(filepath.Base(filepath.Dir(path)))
		logVerbose(flags.verbose, "Loading requirements for %s: %s", component, path)
		doc, err := jsonld.Load(path)
		if err != nil {
			return codeError(1, "loading component requirements: %s", err)
		}
		reg.AddComponent(doc, component)
		warnings = append(warnings, doc.Warnings...)
	}

	mappings, mapWarnings, err := loadMappings(flags)
	if err != nil {
		return codeError(1, "%s", err)
	}
	warnings = append(warnings, mapWarnings...)

	result := validate.Run(reg, mappings, warnings, validate.Options{Early: flags.early})

	renderer, err := report.NewRenderer(flags.format)
	if err != nil {
		return codeError(1, "invalid format: %s", err)
	}
	output, err := renderer.Render(result)
	if err != nil {
		return codeError(1, "rendering report: %s", err)
	}
	if err := writeOutput(flags.out, output); err != nil {
		return codeError(1, "%s", err)
	}

	if !result.Passed() {
		return codeError(1, "validation failed with %d error(s)", result.TotalErrors)
	}
	return nil
}

// loadMappings collects test mappings for the selected mode: mapping
// documents matched by the --test-mappings globs in early mode, or every
// test-result document under the results directory otherwise.
func loadMappings(flags validateFlags) ([]jsonld.TestMapping, []string, error) {
	var mappings []jsonld.TestMapping
	var warnings []string

	if flags.early {
		files, err := jsonld.ResolveGlobs(flags.testMappings)
		if err != nil {
			return nil, nil, err
		}
		for _, file := range files {
			logVerbose(flags.verbose, "Loading test mappings: %s", file)
			doc, err := jsonld.Load(file)
			if err != nil {
				return nil, nil, fmt.Errorf("loading test mappings: %w", err)
			}
			mappings = append(mappings, doc.Mappings...)
			warnings = append(warnings, doc.Warnings...)
		}
		return mappings, warnings, nil
	}

	files, err := jsonld.ResultFiles(flags.testResults)
	if err != nil {
		return nil, nil, err
	}
	for _, file := range files {
		component := jsonld.ComponentForResult(file)
		logVerbose(flags.verbose, "Loading test results for %s: %s", component, file)
		ms, err := jsonld.LoadResults(file, component)
		if err != nil {
			return nil, nil, fmt.Errorf("loading test results: %w", err)
		}
		mappings = append(mappings, ms...)
	}
	return mappings, warnings, nil
}

// checkValidateFlags returns an error if any validate flag value is invalid.
func checkValidateFlags(flags validateFlags) error {
	if flags.early == (flags.testResults != "") {
		return fmt.Errorf("exactly one of --early or --test-results is required")
	}
	if !flags.early && len(flags.testMappings) > 0 {
		return fmt.Errorf("--test-mappings only applies with --early")
	}
	switch flags.format {
	case "text", "json":
	default:
		return fmt.Errorf("--format must be text or json, got %q", flags.format)
	}
	return nil
}

func newAggregateCmd() *cobra.Command {
	var flags aggregateFlags
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Build the compliance matrix from requirements and test results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAggregate(flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.results, "results", "", "Test results directory (default from config)")
	f.StringVar(&flags.requirements, "requirements", "", "System requirements file (default from config)")
	f.StringVar(&flags.components, "components", "", "Components directory (default from config)")
	f.StringVar(&flags.out, "out", "", "Output matrix path (default <reports_dir>/compliance_matrix.jsonld)")
	f.BoolVar(&flags.verbose, "verbose", false, "Print processing steps to stderr")

	return cmd
}

func runAggregate(flags aggregateFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return codeError(1, "loading config: %s", err)
	}
	if flags.results != "" {
		cfg.ResultsDir = flags.results
	}
	if flags.requirements != "" {
		cfg.Requirements = flags.requirements
	}
	if flags.components != "" {
		cfg.ComponentsDir = flags.components
	}

	outPath := flags.out
	if outPath == "" {
		outPath = filepath.Join(cfg.ReportsDir, dashboard.MatrixFileName)
	}

	m, notes, err := matrix.Aggregate(matrix.Inputs{
		SystemFile:    cfg.Requirements,
		ComponentsDir: cfg.ComponentsDir,
		ResultsDir:    cfg.ResultsDir,
		Name:          cfg.MatrixName,
		Description:   cfg.MatrixDescription,
	})
	if err != nil {
		return codeError(1, "aggregating: %s", err)
	}
	for _, note := range notes {
		fmt.Fprintln(os.Stderr, "WARN:", note)
	}

	if err := matrix.WriteFile(outPath, m, cfg.Context); err != nil {
		return codeError(1, "%s", err)
	}
	// The dashboard fetches its own copy.
	if flags.out == "" && cfg.DashboardDir != "" {
		if err := matrix.WriteFile(filepath.Join(cfg.DashboardDir, dashboard.MatrixFileName), m, cfg.Context); err != nil {
			return codeError(1, "%s", err)
		}
	}

	s := m.Statistics
	fmt.Printf("Compliance matrix generated: %s\n", outPath)
	fmt.Println("Statistics:")
	fmt.Printf("- Total requirements: %d\n", s.TotalRequirements)
	fmt.Printf("- Tested requirements: %d (%.1f%%)\n", s.TestedRequirements, s.CoveragePercentage)
	fmt.Printf("- Untested requirements: %d\n", s.UntestedRequirements)
	fmt.Printf("- Total tests: %d\n", s.TotalTests)
	fmt.Printf("- Passed tests: %d\n", s.PassingTests)
	fmt.Printf("- Failed tests: %d\n", s.FailingTests)
	fmt.Printf("- Components: %d\n", s.Components)
	return nil
}

func newDiffCmd() *cobra.Command {
	var format string
	var full bool
	cmd := &cobra.Command{
		Use:   "diff <oldMatrix> <newMatrix>",
		Short: "Summarize changes between two compliance matrices",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(args[0], args[1], format, full)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&full, "full", false, "Also print a patch-format diff of the matrix JSON")
	return cmd
}

func runDiff(oldPath, newPath, format string, full bool) error {
	prev, err := matrix.ReadFile(oldPath)
	if err != nil {
		return codeError(1, "%s", err)
	}
	curr, err := matrix.ReadFile(newPath)
	if err != nil {
		return codeError(1, "%s", err)
	}

	delta := matrix.Compare(prev, curr)
	switch format {
	case "text":
		fmt.Print(delta.FormatText())
		if full && delta.Changed() {
			prevJSON, err := matrix.Encode(prev, "")
			if err != nil {
				return codeError(1, "encoding %s: %s", oldPath, err)
			}
			currJSON, err := matrix.Encode(curr, "")
			if err != nil {
				return codeError(1, "encoding %s: %s", newPath, err)
			}
			fmt.Print(matrix.LineDiff(prevJSON, currJSON))
		}
	case "json":
		out, err := deltaJSON(delta)
		if err != nil {
			return codeError(1, "%s", err)
		}
		fmt.Println(string(out))
	default:
		return codeError(1, "--format must be text or json, got %q", format)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	var port int
	var refresh time.Duration
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the compliance dashboard locally with periodic refresh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port, refresh, watch)
		},
	}
	f := cmd.Flags()
	f.IntVar(&port, "port", 0, "Listen port (default from config)")
	f.DurationVar(&refresh, "refresh", 0, "Re-aggregation interval (default from config)")
	f.BoolVar(&watch, "watch", false, "Refresh immediately on results directory changes")
	return cmd
}

func runServe(port int, refresh time.Duration, watch bool) error {
	cfg, err := config.Load()
	if err != nil {
		return codeError(1, "loading config: %s", err)
	}

	logger, err := newServerLogger(cfg.Server.LogFile)
	if err != nil {
		return codeError(1, "creating logger: %s", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := dashboard.New(cfg, logger, port, refresh, watch)
	if err := srv.Run(ctx); err != nil {
		return codeError(1, "%s", err)
	}
	return nil
}

func deltaJSON(d *matrix.Delta) ([]byte, error) {
	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding delta: %w", err)
	}
	return out, nil
}

// newServerLogger builds a zap logger writing to stderr and, when set, the
// configured log file.
func newServerLogger(logFile string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{"stderr"}
	if logFile != "" {
		zcfg.OutputPaths = append(zcfg.OutputPaths, logFile)
	}
	return zcfg.Build()
}

// writeOutput writes bytes to a file, or to stdout with a trailing newline
// for terminal friendliness.
func writeOutput(path string, data []byte) error {
	if path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing output file: %w", err)
		}
		return nil
	}
	if _, err := os.Stdout.Write(data); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Fprintln(os.Stdout)
	}
	return nil
}

// logVerbose writes a message to stderr when verbose mode is enabled.
func logVerbose(verbose bool, format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "INFO: "+format+"\n", args...)
	}
}
