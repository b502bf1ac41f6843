package matrix

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const systemReqsFixture = `{
	"@graph": [
		{"@id": "System.1", "@type": "Requirement", "name": "Sync", "component": "System", "status": "Active", "priority": "High"},
		{"@id": "System.2", "@type": "Requirement", "name": "Store"},
		{"@id": "System.1.1.iOS.1", "@type": "Requirement", "component": "iOS"}
	]
}`

const iosReqsFixture = `{
	"@graph": [
		{"@id": "System.1.1.iOS.1", "@type": "Requirement", "name": "Push", "component": "iOS", "parent": "System.1"},
		{"@id": "System.1.2.iOS.1", "@type": "Requirement", "name": "Pull", "component": "iOS", "parent": "System.1"}
	]
}`

const iosResultsFixture = `{
	"@graph": [{
		"testSuites": [{"testCases": [
			{"@id": "ios.test.1", "name": "TestPush", "verifies": "System.1.1.iOS.1", "result": "Pass"},
			{"@id": "ios.test.2", "name": "TestPull", "verifies": "System.1.2.iOS.1", "result": "Failed"}
		]}]
	}]
}`

// fixtureTree lays out the conventional repository structure in a temp dir.
func fixtureTree(t *testing.T) (base string, in Inputs) {
	t.Helper()
	base = t.TempDir()
	files := map[string]string{
		"requirements/requirements.jsonld":      systemReqsFixture,
		"components/ios/requirements.jsonld":    iosReqsFixture,
		"compliance/results/iOS/results.jsonld": iosResultsFixture,
	}
	for name, content := range files {
		path := filepath.Join(base, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	in = Inputs{
		SystemFile:    filepath.Join(base, "requirements/requirements.jsonld"),
		ComponentsDir: filepath.Join(base, "components"),
		ResultsDir:    filepath.Join(base, "compliance/results"),
		Name:          "Test Matrix",
		Description:   "fixture",
		Now:           func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	return base, in
}

func TestAggregate_Statistics(t *testing.T) {
	_, in := fixtureTree(t)

	m, notes, err := Aggregate(in)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("notes = %v, want none", notes)
	}

	// System contributes 2 (component-owned record filtered out), ios 2.
	s := m.Statistics
	if s.TotalRequirements != 4 {
		t.Errorf("TotalRequirements = %d, want 4", s.TotalRequirements)
	}
	if s.TestedRequirements != 2 || s.UntestedRequirements != 2 {
		t.Errorf("tested/untested = %d/%d, want 2/2", s.TestedRequirements, s.UntestedRequirements)
	}
	if s.CoveragePercentage != 50.0 {
		t.Errorf("CoveragePercentage = %v, want 50.0", s.CoveragePercentage)
	}
	if s.TotalTests != 2 || s.PassingTests != 1 || s.FailingTests != 1 {
		t.Errorf("tests = %d/%d/%d, want 2 total, 1 pass, 1 fail", s.TotalTests, s.PassingTests, s.FailingTests)
	}
	if s.Components != 1 {
		t.Errorf("Components = %d, want 1", s.Components)
	}

	if m.Timestamp != "2026-03-01T12:00:00Z" {
		t.Errorf("Timestamp = %q", m.Timestamp)
	}
	if len(m.Components) != 1 || m.Components[0] != "iOS" {
		t.Errorf("Components = %v, want [iOS]", m.Components)
	}
}

func TestAggregate_TestedFlags(t *testing.T) {
	_, in := fixtureTree(t)

	m, _, err := Aggregate(in)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	tested := make(map[string]bool)
	for _, r := range m.Requirements {
		tested[r.ID] = r.Tested
	}
	if !tested["System.1.1.iOS.1"] || !tested["System.1.2.iOS.1"] {
		t.Error("verified requirements not marked tested")
	}
	if tested["System.1"] || tested["System.2"] {
		t.Error("unverified requirements marked tested")
	}
}

func TestAggregate_InvalidResultFileSkipped(t *testing.T) {
	base, in := fixtureTree(t)
	bad := filepath.Join(base, "compliance/results/Android/results.jsonld")
	if err := os.MkdirAll(filepath.Dir(bad), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, notes, err := Aggregate(in)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(notes) != 1 || !strings.Contains(notes[0], "skipping") {
		t.Errorf("notes = %v, want one skip note", notes)
	}
	// The broken component must not appear.
	for _, c := range m.Components {
		if c == "Android" {
			t.Error("component with invalid results should not be listed")
		}
	}
	if m.Statistics.TotalTests != 2 {
		t.Errorf("TotalTests = %d, want 2", m.Statistics.TotalTests)
	}
}

func TestAggregate_MissingComponentRequirementsNoted(t *testing.T) {
	base, in := fixtureTree(t)
	if err := os.MkdirAll(filepath.Join(base, "components/android"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, notes, err := Aggregate(in)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	found := false
	for _, n := range notes {
		if strings.Contains(n, "no requirements.jsonld for component android") {
			found = true
		}
	}
	if !found {
		t.Errorf("notes = %v, want missing-requirements note for android", notes)
	}
}

func TestAggregate_MissingSystemFileFatal(t *testing.T) {
	_, in := fixtureTree(t)
	in.SystemFile = filepath.Join(t.TempDir(), "absent.jsonld")

	if _, _, err := Aggregate(in); err == nil {
		t.Fatal("expected error for missing system requirements")
	}
}

func TestWriteAndReadFile_RoundTrip(t *testing.T) {
	_, in := fixtureTree(t)
	m, _, err := Aggregate(in)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	path := filepath.Join(t.TempDir(), "reports", "compliance_matrix.jsonld")
	if err := WriteFile(path, m, "../requirements/context/requirements-context.jsonld"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got.Statistics != m.Statistics {
		t.Errorf("statistics changed through round trip: %+v vs %+v", got.Statistics, m.Statistics)
	}
	if got.ID != "compliance-matrix" || got.Type != "ComplianceMatrix" {
		t.Errorf("graph node identity wrong: %q %q", got.ID, got.Type)
	}
}

func TestAggregate_EmptyInputsSerializeAsArrays(t *testing.T) {
	base := t.TempDir()
	sys := filepath.Join(base, "requirements.jsonld")
	if err := os.WriteFile(sys, []byte(`{"@graph": []}`), 0o644); err != nil {
		t.Fatal(err)
	}

	m, _, err := Aggregate(Inputs{
		SystemFile:    sys,
		ComponentsDir: filepath.Join(base, "components"),
		ResultsDir:    filepath.Join(base, "results"),
	})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if m.Statistics.TotalRequirements != 0 || m.Statistics.TotalTests != 0 {
		t.Errorf("statistics = %+v, want all zero", m.Statistics)
	}

	data, err := Encode(m, "ctx")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// The dashboard iterates these fields, so empty must be [], not null.
	for _, want := range []string{`"components": []`, `"requirements": []`, `"testCases": []`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("output missing %s:\n%s", want, data)
		}
	}
	for _, field := range []string{"components", "requirements", "testCases"} {
		if strings.Contains(string(data), `"`+field+`": null`) {
			t.Errorf("%s serialized as null:\n%s", field, data)
		}
	}
}

func TestCoverageRounding_HalfEven(t *testing.T) {
	// 1 of 16 is exactly 6.25%, which rounds half-even to 6.2.
	reqs := make([]Requirement, 16)
	for i := range reqs {
		reqs[i].ID = "r"
	}
	reqs[0].Tested = true
	s := computeStatistics(&Matrix{Requirements: reqs})
	if s.CoveragePercentage != 6.2 {
		t.Errorf("CoveragePercentage = %v, want 6.2", s.CoveragePercentage)
	}

	// 3 of 8 is exactly 37.5%, already one decimal, and passes through
	// unchanged.
	reqs = make([]Requirement, 8)
	reqs[0].Tested = true
	reqs[1].Tested = true
	reqs[2].Tested = true
	s = computeStatistics(&Matrix{Requirements: reqs})
	if s.CoveragePercentage != 37.5 {
		t.Errorf("CoveragePercentage = %v, want 37.5", s.CoveragePercentage)
	}
}

func TestCoverageRounding(t *testing.T) {
	m := &Matrix{
		Requirements: []Requirement{{ID: "a", Tested: true}, {ID: "b"}, {ID: "c"}},
	}
	s := computeStatistics(m)
	if s.CoveragePercentage != 33.3 {
		t.Errorf("CoveragePercentage = %v, want 33.3", s.CoveragePercentage)
	}
}
