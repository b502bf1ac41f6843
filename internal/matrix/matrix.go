// Package matrix builds the compliance matrix: the materialized join of
// requirements, test cases, and pass/fail statistics for one CI run. The
// output is a JSON-LD document with a single ComplianceMatrix graph node,
// consumed read-only by the dashboard.
package matrix

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/journalbrand/reqtrace/internal/jsonld"
)

// Statistics summarizes requirement coverage and test outcomes.
type Statistics struct {
	TotalRequirements    int     `json:"totalRequirements"`
	TestedRequirements   int     `json:"testedRequirements"`
	UntestedRequirements int     `json:"untestedRequirements"`
	CoveragePercentage   float64 `json:"coveragePercentage"`
	TotalTests           int     `json:"totalTests"`
	PassingTests         int     `json:"passingTests"`
	FailingTests         int     `json:"failingTests"`
	Components           int     `json:"components"`
}

// Requirement is the matrix-local requirement shape. Tested is derived: true
// when at least one test case verifies this ID.
type Requirement struct {
	ID          string `json:"@id"`
	Type        string `json:"@type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Component   string `json:"component"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Parent      string `json:"parent"`
	Tested      bool   `json:"tested"`
}

// TestCase is the matrix-local test case shape.
type TestCase struct {
	ID        string `json:"@id"`
	Type      string `json:"@type"`
	Component string `json:"component"`
	Name      string `json:"name"`
	Verifies  string `json:"verifies"`
	Result    string `json:"result"`
}

// Matrix is the single graph node of the compliance matrix document.
type Matrix struct {
	ID           string        `json:"@id"`
	Type         string        `json:"@type"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Timestamp    string        `json:"timestamp"`
	Components   []string      `json:"components"`
	Requirements []Requirement `json:"requirements"`
	TestCases    []TestCase    `json:"testCases"`
	Statistics   Statistics    `json:"statistics"`
}

// Envelope is the on-disk JSON-LD wrapper.
type Envelope struct {
	Context string   `json:"@context"`
	Graph   []Matrix `json:"@graph"`
}

// Inputs names the files and directories one aggregation run reads.
type Inputs struct {
	// SystemFile is the system-level requirements document. Missing file is
	// fatal; nothing sensible can be aggregated without it.
	SystemFile string

	// ComponentsDir holds one subdirectory per component, each with a
	// requirements.jsonld. Components without one are noted and skipped.
	ComponentsDir string

	// ResultsDir holds staged test-result documents, one subdirectory per
	// component. Result files with invalid JSON are noted and skipped.
	ResultsDir string

	// Name and Description fill the matrix header.
	Name        string
	Description string

	// Now supplies the run timestamp; nil means time.Now.
	Now func() time.Time
}

// Aggregate builds the compliance matrix. Non-fatal irregularities (missing
// component requirements, unreadable result files) are returned as notes so
// the caller can surface them without failing the run.
func Aggregate(in Inputs) (*Matrix, []string, error) {
	var notes []string

	sysDoc, err := jsonld.Load(in.SystemFile)
	if err != nil {
		return nil, notes, fmt.Errorf("system requirements: %w", err)
	}
	notes = append(notes, sysDoc.Warnings...)

	// The dashboard iterates these three fields as arrays, so they must
	// serialize as [] rather than null even when empty.
	requirements := []Requirement{}
	for _, req := range sysDoc.Requirements {
		if req.Component != "System" && req.Component != "" {
			continue
		}
		requirements = append(requirements, toMatrixRequirement(req, "System"))
	}

	// One subdirectory per component, by convention named after it.
	if entries, err := os.ReadDir(in.ComponentsDir); err == nil {
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			component := entry.Name()
			reqFile := filepath.Join(in.ComponentsDir, component, "requirements.jsonld")
			doc, err := jsonld.Load(reqFile)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					notes = append(notes, fmt.Sprintf("no requirements.jsonld for component %s", component))
				} else {
					notes = append(notes, fmt.Sprintf("skipping %s: %v", reqFile, err))
				}
				continue
			}
			notes = append(notes, doc.Warnings...)
			for _, req := range doc.Requirements {
				requirements = append(requirements, toMatrixRequirement(req, component))
			}
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, notes, fmt.Errorf("components directory: %w", err)
	}

	components := []string{}
	compSeen := make(map[string]bool)
	testCases := []TestCase{}

	resultFiles, err := jsonld.ResultFiles(in.ResultsDir)
	if err != nil {
		return nil, notes, err
	}
	for _, file := range resultFiles {
		component := jsonld.ComponentForResult(file)
		mappings, err := jsonld.LoadResults(file, component)
		if err != nil {
			notes = append(notes, fmt.Sprintf("skipping %s: %v", file, err))
			continue
		}
		if !compSeen[component] {
			compSeen[component] = true
			components = append(components, component)
		}
		for _, m := range mappings {
			testCases = append(testCases, TestCase{
				ID:        m.ID,
				Type:      "TestCase",
				Component: component,
				Name:      m.Name,
				Verifies:  m.Verifies,
				Result:    m.Result,
			})
		}
	}

	tested := make(map[string]bool)
	for _, tc := range testCases {
		if tc.Verifies != "" {
			tested[tc.Verifies] = true
		}
	}
	for i := range requirements {
		requirements[i].Tested = tested[requirements[i].ID]
	}

	now := time.Now
	if in.Now != nil {
		now = in.Now
	}

	m := &Matrix{
		ID:           "compliance-matrix",
		Type:         "ComplianceMatrix",
		Name:         in.Name,
		Description:  in.Description,
		Timestamp:    now().UTC().Format("2006-01-02T15:04:05Z"),
		Components:   components,
		Requirements: requirements,
		TestCases:    testCases,
	}
	m.Statistics = computeStatistics(m)
	return m, notes, nil
}

func toMatrixRequirement(req jsonld.Requirement, component string) Requirement {
	return Requirement{
		ID:          req.ID,
		Type:        "Requirement",
		Name:        req.Name,
		Description: req.Description,
		Component:   component,
		Status:      string(req.Status),
		Priority:    string(req.Priority),
		Parent:      req.Parent,
	}
}

func computeStatistics(m *Matrix) Statistics {
	s := Statistics{
		TotalRequirements: len(m.Requirements),
		TotalTests:        len(m.TestCases),
		Components:        len(m.Components),
	}
	for _, req := range m.Requirements {
		if req.Tested {
			s.TestedRequirements++
		}
	}
	s.UntestedRequirements = s.TotalRequirements - s.TestedRequirements
	for _, tc := range m.TestCases {
		switch tc.Result {
		case "Pass", "Passed":
			s.PassingTests++
		case "Fail", "Failed":
			s.FailingTests++
		}
	}
	if s.TotalRequirements > 0 {
		// Half-even to one decimal, the rounding the published matrices use.
		pct := float64(s.TestedRequirements) * 100 / float64(s.TotalRequirements)
		s.CoveragePercentage = math.RoundToEven(pct*10) / 10
	}
	return s
}

// Encode serializes the matrix inside its JSON-LD envelope.
func Encode(m *Matrix, contextIRI string) ([]byte, error) {
	return json.MarshalIndent(Envelope{Context: contextIRI, Graph: []Matrix{*m}}, "", "  ")
}

// WriteFile writes the enveloped matrix to path, creating parent directories
// as needed.
func WriteFile(path string, m *Matrix, contextIRI string) error {
	data, err := Encode(m, contextIRI)
	if err != nil {
		return fmt.Errorf("encoding matrix: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing matrix: %w", err)
	}
	return nil
}

// ReadFile loads an enveloped matrix from disk.
func ReadFile(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading matrix %s: %w", path, err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing matrix %s: %w", path, err)
	}
	if len(env.Graph) == 0 {
		return nil, fmt.Errorf("matrix %s has an empty @graph", path)
	}
	return &env.Graph[0], nil
}
