package jsonld

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExtractsTypedRecords(t *testing.T) {
	path := writeDoc(t, "requirements.jsonld", `{
		"@graph": [
			{"@id": "System.1", "@type": "Requirement", "name": "Sync", "status": "Active", "priority": "High", "component": "System"},
			{"id": "System.1.1", "type": "Requirement", "name": "Push", "parent": "System.1"},
			{"@id": "ios-client", "@type": "Component", "name": "iOS Client"},
			{"@id": "T.1", "@type": "TestMapping", "verifies": "System.1"}
		]
	}`)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(doc.Requirements) != 2 {
		t.Fatalf("Requirements = %d, want 2", len(doc.Requirements))
	}
	if doc.Requirements[0].ID != "System.1" {
		t.Errorf("first requirement ID = %q, want System.1", doc.Requirements[0].ID)
	}
	if doc.Requirements[1].ID != "System.1.1" {
		t.Errorf("plain id/type spelling not accepted: %q", doc.Requirements[1].ID)
	}
	if doc.Requirements[1].Parent != "System.1" {
		t.Errorf("parent = %q, want System.1", doc.Requirements[1].Parent)
	}
	if len(doc.Components) != 1 || doc.Components[0].Name != "iOS Client" {
		t.Errorf("Components = %+v, want one iOS Client", doc.Components)
	}
	if len(doc.Mappings) != 1 || doc.Mappings[0].Verifies != "System.1" {
		t.Errorf("Mappings = %+v, want one verifying System.1", doc.Mappings)
	}
	if doc.Requirements[0].SourceFile != path {
		t.Errorf("SourceFile = %q, want %q", doc.Requirements[0].SourceFile, path)
	}
}

func TestLoad_TestCaseTagAccepted(t *testing.T) {
	path := writeDoc(t, "mappings.jsonld", `{
		"@graph": [{"@id": "T.1", "@type": "TestCase", "verifies": "System.1", "result": "Pass"}]
	}`)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Mappings) != 1 {
		t.Fatalf("Mappings = %d, want 1", len(doc.Mappings))
	}
	if !doc.Mappings[0].Passed() {
		t.Errorf("Passed() = false for result Pass")
	}
}

func TestLoad_MissingIDIsWarningNotError(t *testing.T) {
	path := writeDoc(t, "requirements.jsonld", `{
		"@graph": [
			{"@type": "Requirement", "name": "orphan"},
			{"@id": "System.1", "@type": "Requirement", "name": "ok"}
		]
	}`)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Requirements) != 1 {
		t.Errorf("Requirements = %d, want 1 (record without id dropped)", len(doc.Requirements))
	}
	if len(doc.Warnings) != 1 || !strings.Contains(doc.Warnings[0], "no id/@id") {
		t.Errorf("Warnings = %v, want one missing-id warning", doc.Warnings)
	}
}

func TestLoad_UnrecognizedTypeWarns(t *testing.T) {
	path := writeDoc(t, "doc.jsonld", `{
		"@graph": [{"@id": "x", "@type": "Gadget"}]
	}`)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Requirements)+len(doc.Components)+len(doc.Mappings) != 0 {
		t.Errorf("unrecognized type produced records: %+v", doc)
	}
	if len(doc.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one unrecognized-type warning", doc.Warnings)
	}
}

func TestLoad_MalformedJSONIsParseError(t *testing.T) {
	path := writeDoc(t, "bad.jsonld", `{"@graph": [`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Errorf("error %T is not a ParseError", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/requirements.jsonld")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		t.Error("missing file should not be a ParseError")
	}
}
