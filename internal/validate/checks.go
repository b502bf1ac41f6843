package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/journalbrand/reqtrace/internal/jsonld"
	"github.com/journalbrand/reqtrace/internal/registry"
)

// idPattern is the hierarchical ID grammar: system-numeric segments
// optionally followed by one alphabetic component tag and further numeric
// segments, e.g. System.2.1 or System.2.1.iOS.1.
var idPattern = regexp.MustCompile(`^System(\.\d+)+((\.[A-Za-z]+)(\.\d+)+)?$`)

// CheckHierarchy verifies that every non-empty parent reference that is
// system-scoped (starts with "System.") or component-scoped (contains any
// known component as a path segment) resolves to a registered requirement.
// Relative parent references are outside the registry's namespace and are
// skipped.
func CheckHierarchy(reg *registry.Registry) []Finding {
	var findings []Finding
	components := reg.Components()
	for _, e := range reg.Entries() {
		parent := e.Req.Parent
		if parent == "" {
			continue
		}
		scoped := strings.HasPrefix(parent, "System.")
		if !scoped {
			for _, c := range components {
				if strings.Contains(parent, "."+c+".") {
					scoped = true
					break
				}
			}
		}
		if !scoped {
			continue
		}
		if !reg.Has(parent) {
			findings = append(findings, Finding{
				Kind:       KindMissingParent,
				Severity:   SeverityError,
				ID:         e.Req.ID,
				SourceFile: e.SourceFile,
				Message:    fmt.Sprintf("%s: parent %q does not exist", e.Req.ID, parent),
			})
		}
	}
	return findings
}

// CheckComponentPrefix verifies that a requirement whose ID embeds its
// positional component as a path segment also declares that component in its
// component field. The positional name comes from the directory layout, the
// declared one from the document; a mismatch means the file was authored for
// a different component than it is staged under.
func CheckComponentPrefix(reg *registry.Registry) []Finding {
	var findings []Finding
	for _, e := range reg.Entries() {
		if !strings.Contains(e.Req.ID, "."+e.Component+".") {
			continue
		}
		if e.Req.Component != e.Component {
			findings = append(findings, Finding{
				Kind:       KindComponentMismatch,
				Severity:   SeverityError,
				ID:         e.Req.ID,
				SourceFile: e.SourceFile,
				Message: fmt.Sprintf("%s: id embeds component %q but record declares component %q",
					e.Req.ID, e.Component, e.Req.Component),
			})
		}
	}
	return findings
}

// CheckMappings verifies that every test mapping's verifies field resolves to
// a registered requirement. An empty verifies is a warning: the test exists
// but is not yet traced to a requirement.
func CheckMappings(reg *registry.Registry, mappings []jsonld.TestMapping) []Finding {
	var findings []Finding
	for _, m := range mappings {
		if m.Verifies == "" {
			findings = append(findings, Finding{
				Kind:       KindEmptyVerifies,
				Severity:   SeverityWarning,
				ID:         m.ID,
				SourceFile: m.SourceFile,
				Message:    fmt.Sprintf("%s: mapping has empty verifies", m.ID),
			})
			continue
		}
		if !reg.Has(m.Verifies) {
			findings = append(findings, Finding{
				Kind:       KindDanglingVerifies,
				Severity:   SeverityError,
				ID:         m.ID,
				SourceFile: m.SourceFile,
				Message:    fmt.Sprintf("%s: verifies %q which does not exist", m.ID, m.Verifies),
			})
		}
	}
	return findings
}

// CheckIDFormat verifies every requirement ID against the hierarchical
// grammar.
func CheckIDFormat(reg *registry.Registry) []Finding {
	var findings []Finding
	for _, e := range reg.Entries() {
		if !idPattern.MatchString(e.Req.ID) {
			findings = append(findings, Finding{
				Kind:       KindBadIDFormat,
				Severity:   SeverityError,
				ID:         e.Req.ID,
				SourceFile: e.SourceFile,
				Message:    fmt.Sprintf("%s: id does not match System(.N)+(.Component(.N)+)? grammar", e.Req.ID),
			})
		}
	}
	return findings
}

// CheckDuplicates reports every requirement ID registered from more than one
// place. The registry merge is last-write-wins, so without this check a
// duplicate silently shadows the earlier record.
func CheckDuplicates(reg *registry.Registry) []Finding {
	var findings []Finding
	for _, d := range reg.Duplicates() {
		findings = append(findings, Finding{
			Kind:       KindDuplicateID,
			Severity:   SeverityError,
			ID:         d.ID,
			SourceFile: d.SecondSource,
			Message: fmt.Sprintf("%s: declared in both %s and %s",
				d.ID, d.FirstSource, d.SecondSource),
		})
	}
	return findings
}
