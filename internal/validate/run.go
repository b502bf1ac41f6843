package validate

import (
	"github.com/journalbrand/reqtrace/internal/jsonld"
	"github.com/journalbrand/reqtrace/internal/registry"
)

// Check names as they appear in reports.
const (
	CheckNameHierarchy   = "hierarchy"
	CheckNamePrefix      = "component-prefix"
	CheckNameTestMapping = "test-mapping"
	CheckNameIDFormat    = "id-format"
	CheckNameDuplicates  = "duplicate-id"
)

// Options selects which validation mode is running. Early validation checks
// authoring integrity before any tests run and additionally rejects
// duplicate IDs; results validation checks the references of actual test
// results and keeps the pipeline's observed last-write-wins merge behavior.
type Options struct {
	Early bool
}

// Run executes every check over the registry and mappings, never
// short-circuiting, and returns the aggregate result. Running twice on the
// same inputs yields identical results.
func Run(reg *registry.Registry, mappings []jsonld.TestMapping, warnings []string, opts Options) *Result {
	checks := []CheckResult{
		{Name: CheckNameHierarchy, Findings: CheckHierarchy(reg)},
		{Name: CheckNamePrefix, Findings: CheckComponentPrefix(reg)},
		{Name: CheckNameTestMapping, Findings: CheckMappings(reg, mappings)},
		{Name: CheckNameIDFormat, Findings: CheckIDFormat(reg)},
	}
	if opts.Early {
		checks = append(checks, CheckResult{Name: CheckNameDuplicates, Findings: CheckDuplicates(reg)})
	}

	total := 0
	for _, c := range checks {
		total += c.ErrorCount()
	}

	return &Result{
		Checks:       checks,
		Requirements: reg.Len(),
		Mappings:     len(mappings),
		Components:   len(reg.Components()),
		Warnings:     warnings,
		TotalErrors:  total,
	}
}
