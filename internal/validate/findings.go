// Package validate implements the referential checks over a requirement
// registry and a list of test-to-requirement mappings. Each check is a pure
// function returning its findings; the orchestrator runs every check
// regardless of earlier failures so one invocation yields maximum
// diagnostics.
package validate

// Kind classifies a finding.
type Kind string

const (
	KindMissingParent     Kind = "MISSING_PARENT"
	KindComponentMismatch Kind = "COMPONENT_MISMATCH"
	KindDanglingVerifies  Kind = "DANGLING_VERIFIES"
	KindBadIDFormat       Kind = "BAD_ID_FORMAT"
	KindDuplicateID       Kind = "DUPLICATE_ID"
	KindEmptyVerifies     Kind = "EMPTY_VERIFIES"
)

// Severity separates findings that fail the run from advisory ones.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// Finding is a single diagnostic tied to a record.
type Finding struct {
	Kind       Kind     `json:"kind"`
	Severity   Severity `json:"severity"`
	ID         string   `json:"id"`
	SourceFile string   `json:"source_file,omitempty"`
	Message    string   `json:"message"`
}

// CheckResult holds the findings of one named check.
type CheckResult struct {
	Name     string    `json:"name"`
	Findings []Finding `json:"findings"`
}

// ErrorCount returns the number of error-severity findings.
func (c CheckResult) ErrorCount() int {
	n := 0
	for _, f := range c.Findings {
		if f.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Passed reports whether the check produced no errors. Warnings do not fail
// a check.
func (c CheckResult) Passed() bool { return c.ErrorCount() == 0 }

// Result aggregates all checks for one run plus input counts and any loader
// warnings.
type Result struct {
	Checks       []CheckResult `json:"checks"`
	Requirements int           `json:"requirements"`
	Mappings     int           `json:"mappings"`
	Components   int           `json:"components"`
	Warnings     []string      `json:"warnings,omitempty"`
	TotalErrors  int           `json:"total_errors"`
}

// Passed reports whether the run produced zero errors across all checks.
// There is no partial-success state.
func (r *Result) Passed() bool { return r.TotalErrors == 0 }
