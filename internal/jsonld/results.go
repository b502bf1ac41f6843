package jsonld

import (
	"encoding/json"
	"fmt"
	"os"
)

// Test-result documents use a nested shape rather than flat @graph records:
// @graph[0].testSuites[].testCases[]. Each case carries @id, name, verifies,
// and result; the owning component is not in the document at all, it is the
// name of the directory the result file was staged under.

type rawSuite struct {
	TestCases []rawNode `json:"testCases"`
}

type rawRunNode struct {
	TestSuites []rawSuite `json:"testSuites"`
}

type rawRunEnvelope struct {
	Graph []rawRunNode `json:"@graph"`
}

// LoadResults extracts test mappings from a test-result document, tagging
// each with the given component name. A document with no testSuites yields
// no mappings and no error.
func LoadResults(path, component string) ([]TestMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var env rawRunEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if len(env.Graph) == 0 {
		return nil, nil
	}

	var mappings []TestMapping
	for _, suite := range env.Graph[0].TestSuites {
		for _, tc := range suite.TestCases {
			mappings = append(mappings, TestMapping{
				ID:         tc.id(),
				Name:       tc.Name,
				Component:  component,
				Verifies:   tc.Verifies,
				Result:     tc.Result,
				SourceFile: path,
			})
		}
	}
	return mappings, nil
}
