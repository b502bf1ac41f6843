package jsonld

// Status is the lifecycle state of a requirement.
type Status string

const (
	StatusDraft      Status = "Draft"
	StatusActive     Status = "Active"
	StatusDeprecated Status = "Deprecated"
	StatusFulfilled  Status = "Fulfilled"
)

// IsValidStatus reports whether s is one of the defined requirement statuses.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusActive, StatusDeprecated, StatusFulfilled:
		return true
	}
	return false
}

// Priority ranks a requirement.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// IsValidPriority reports whether p is one of the defined priorities.
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Requirement is a hierarchically-identified statement of required system
// behavior. The ID is a dot-delimited path (e.g. "System.2.1.iOS.1") whose
// segments encode ancestry and, optionally, an embedded component name.
type Requirement struct {
	ID          string
	Name        string
	Description string
	Status      Status
	Priority    Priority
	Component   string // declared in the document, not derived from layout
	Parent      string
	SourceFile  string
}

// Component is a named grouping of requirements (e.g. "iOS Client").
// Purely descriptive; structure is enforced only through ID prefixes.
type Component struct {
	ID          string
	Name        string
	Description string
	Parent      string
	SourceFile  string
}

// TestMapping asserts that a named test verifies a specific requirement ID.
// Result is only present for mappings extracted from test-result documents.
type TestMapping struct {
	ID         string
	Name       string
	Component  string
	Verifies   string
	Result     string
	SourceFile string
}

// Passing and failing result spellings, as emitted by the component test
// harnesses.
func (m TestMapping) Passed() bool { return m.Result == "Pass" || m.Result == "Passed" }
func (m TestMapping) Failed() bool { return m.Result == "Fail" || m.Result == "Failed" }
