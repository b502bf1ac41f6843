package matrix

import (
	"strings"
	"testing"
)

func baseMatrix() *Matrix {
	m := &Matrix{
		ID:         "compliance-matrix",
		Type:       "ComplianceMatrix",
		Components: []string{"iOS"},
		Requirements: []Requirement{
			{ID: "System.1", Type: "Requirement"},
			{ID: "System.1.1.iOS.1", Type: "Requirement", Tested: true},
		},
		TestCases: []TestCase{
			{ID: "ios.test.1", Type: "TestCase", Verifies: "System.1.1.iOS.1", Result: "Pass"},
		},
	}
	m.Statistics = computeStatistics(m)
	return m
}

func TestCompare_SelfIsUnchanged(t *testing.T) {
	m := baseMatrix()
	d := Compare(m, m)
	if d.Changed() {
		t.Errorf("self-diff reports changes: %+v", d)
	}
	if !strings.Contains(d.FormatText(), "No changes") {
		t.Errorf("FormatText = %q", d.FormatText())
	}
}

func TestCompare_AddedTestRaisesCoverage(t *testing.T) {
	prev := baseMatrix()
	curr := baseMatrix()
	curr.TestCases = append(curr.TestCases, TestCase{
		ID: "ios.test.2", Type: "TestCase", Verifies: "System.1", Result: "Pass",
	})
	curr.Requirements[0].Tested = true
	curr.Statistics = computeStatistics(curr)

	d := Compare(prev, curr)
	if !d.Changed() {
		t.Fatal("delta not detected")
	}
	if len(d.AddedTests) != 1 || d.AddedTests[0] != "ios.test.2" {
		t.Errorf("AddedTests = %v, want [ios.test.2]", d.AddedTests)
	}
	if d.NewStats.CoveragePercentage <= d.OldStats.CoveragePercentage {
		t.Errorf("coverage did not rise: %v -> %v", d.OldStats.CoveragePercentage, d.NewStats.CoveragePercentage)
	}

	text := d.FormatText()
	for _, want := range []string{"Coverage: 50.0% -> 100.0%", "Passing tests: 1 -> 2", "Added tests:"} {
		if !strings.Contains(text, want) {
			t.Errorf("FormatText missing %q:\n%s", want, text)
		}
	}
}

func TestCompare_RemovedRequirement(t *testing.T) {
	prev := baseMatrix()
	curr := baseMatrix()
	curr.Requirements = curr.Requirements[:1]
	curr.Statistics = computeStatistics(curr)

	d := Compare(prev, curr)
	if len(d.RemovedRequirements) != 1 || d.RemovedRequirements[0] != "System.1.1.iOS.1" {
		t.Errorf("RemovedRequirements = %v", d.RemovedRequirements)
	}
}

func TestLineDiff_IdenticalInputsEmpty(t *testing.T) {
	data, err := Encode(baseMatrix(), "ctx")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if out := LineDiff(data, data); out != "" {
		t.Errorf("LineDiff of identical inputs = %q, want empty", out)
	}
}

func TestLineDiff_ReportsChange(t *testing.T) {
	prev, err := Encode(baseMatrix(), "ctx")
	if err != nil {
		t.Fatal(err)
	}
	changed := baseMatrix()
	changed.TestCases[0].Result = "Fail"
	curr, err := Encode(changed, "ctx")
	if err != nil {
		t.Fatal(err)
	}

	if out := LineDiff(prev, curr); out == "" {
		t.Error("LineDiff of differing inputs is empty")
	}
}
