package matrix

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Delta summarizes what changed between two compliance matrices. CI posts it
// on matrix updates; the dashboard server logs it after each refresh.
type Delta struct {
	OldStats            Statistics `json:"old_statistics"`
	NewStats            Statistics `json:"new_statistics"`
	AddedRequirements   []string   `json:"added_requirements,omitempty"`
	RemovedRequirements []string   `json:"removed_requirements,omitempty"`
	AddedTests          []string   `json:"added_tests,omitempty"`
	RemovedTests        []string   `json:"removed_tests,omitempty"`
}

// Changed reports whether anything beyond the timestamp differs.
func (d *Delta) Changed() bool {
	return d.OldStats != d.NewStats ||
		len(d.AddedRequirements) > 0 || len(d.RemovedRequirements) > 0 ||
		len(d.AddedTests) > 0 || len(d.RemovedTests) > 0
}

// Compare computes the delta from prev to curr.
func Compare(prev, curr *Matrix) *Delta {
	d := &Delta{OldStats: prev.Statistics, NewStats: curr.Statistics}

	prevReqs := requirementIDs(prev)
	currReqs := requirementIDs(curr)
	d.AddedRequirements = missingFrom(currReqs, prevReqs)
	d.RemovedRequirements = missingFrom(prevReqs, currReqs)

	prevTests := testIDs(prev)
	currTests := testIDs(curr)
	d.AddedTests = missingFrom(currTests, prevTests)
	d.RemovedTests = missingFrom(prevTests, currTests)

	return d
}

// FormatText renders the delta as a short human-readable summary.
func (d *Delta) FormatText() string {
	var sb strings.Builder
	if !d.Changed() {
		sb.WriteString("No changes.\n")
		return sb.String()
	}
	if d.OldStats.CoveragePercentage != d.NewStats.CoveragePercentage {
		fmt.Fprintf(&sb, "Coverage: %.1f%% -> %.1f%%\n",
			d.OldStats.CoveragePercentage, d.NewStats.CoveragePercentage)
	}
	if d.OldStats.PassingTests != d.NewStats.PassingTests {
		fmt.Fprintf(&sb, "Passing tests: %d -> %d\n", d.OldStats.PassingTests, d.NewStats.PassingTests)
	}
	if d.OldStats.FailingTests != d.NewStats.FailingTests {
		fmt.Fprintf(&sb, "Failing tests: %d -> %d\n", d.OldStats.FailingTests, d.NewStats.FailingTests)
	}
	if d.OldStats.TotalRequirements != d.NewStats.TotalRequirements {
		fmt.Fprintf(&sb, "Requirements: %d -> %d\n", d.OldStats.TotalRequirements, d.NewStats.TotalRequirements)
	}
	writeIDList(&sb, "Added requirements", d.AddedRequirements)
	writeIDList(&sb, "Removed requirements", d.RemovedRequirements)
	writeIDList(&sb, "Added tests", d.AddedTests)
	writeIDList(&sb, "Removed tests", d.RemovedTests)
	return sb.String()
}

// LineDiff returns a patch-format text diff of two encoded matrices.
func LineDiff(prevJSON, currJSON []byte) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(prevJSON), string(currJSON), false)
	patches := dmp.PatchMake(string(prevJSON), diffs)
	return dmp.PatchToText(patches)
}

func writeIDList(sb *strings.Builder, label string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s:\n", label)
	for _, id := range ids {
		fmt.Fprintf(sb, "    %s\n", id)
	}
}

func requirementIDs(m *Matrix) map[string]bool {
	ids := make(map[string]bool, len(m.Requirements))
	for _, r := range m.Requirements {
		ids[r.ID] = true
	}
	return ids
}

func testIDs(m *Matrix) map[string]bool {
	ids := make(map[string]bool, len(m.TestCases))
	for _, tc := range m.TestCases {
		ids[tc.ID] = true
	}
	return ids
}

// missingFrom returns the sorted keys of a that are absent from b.
func missingFrom(a, b map[string]bool) []string {
	var out []string
	for id := range a {
		if !b[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
