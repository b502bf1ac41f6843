// Package jsonld loads requirement, component, and test-mapping records from
// JSON-LD documents with a top-level @graph array.
package jsonld

import (
	"encoding/json"
	"fmt"
	"os"
)

// ParseError indicates a document could not be parsed as JSON. It is fatal:
// a malformed input aborts the whole run.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parsing %s: %v", e.Path, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Document holds the typed records extracted from one JSON-LD file.
// Records of a known type that carry no id/@id are dropped and noted in
// Warnings rather than failing the load.
type Document struct {
	Path         string
	Requirements []Requirement
	Components   []Component
	Mappings     []TestMapping
	Warnings     []string
}

// rawNode accepts both the plain and the @-prefixed spellings of the
// identifier and type fields. Authoring tools emit either.
type rawNode struct {
	ID          string `json:"id"`
	AtID        string `json:"@id"`
	Type        string `json:"type"`
	AtType      string `json:"@type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Component   string `json:"component"`
	Parent      string `json:"parent"`
	Verifies    string `json:"verifies"`
	Result      string `json:"result"`
}

func (n rawNode) id() string {
	if n.AtID != "" {
		return n.AtID
	}
	return n.ID
}

func (n rawNode) kind() string {
	if n.Type != "" {
		return n.Type
	}
	return n.AtType
}

type rawEnvelope struct {
	Graph []rawNode `json:"@graph"`
}

// Load reads a JSON-LD document and extracts every @graph element whose type
// tag is Requirement, Component, TestCase, or TestMapping. Unrecognized tags
// are noted in Warnings and skipped; untyped nodes are ignored.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var env rawEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	doc := &Document{Path: path}
	for i, n := range env.Graph {
		switch n.kind() {
		case "Requirement":
			if n.id() == "" {
				doc.warnMissingID(i, "Requirement")
				continue
			}
			doc.Requirements = append(doc.Requirements, Requirement{
				ID:          n.id(),
				Name:        n.Name,
				Description: n.Description,
				Status:      Status(n.Status),
				Priority:    Priority(n.Priority),
				Component:   n.Component,
				Parent:      n.Parent,
				SourceFile:  path,
			})
		case "Component":
			if n.id() == "" {
				doc.warnMissingID(i, "Component")
				continue
			}
			doc.Components = append(doc.Components, Component{
				ID:          n.id(),
				Name:        n.Name,
				Description: n.Description,
				Parent:      n.Parent,
				SourceFile:  path,
			})
		case "TestCase", "TestMapping":
			if n.id() == "" {
				doc.warnMissingID(i, "TestMapping")
				continue
			}
			doc.Mappings = append(doc.Mappings, TestMapping{
				ID:         n.id(),
				Name:       n.Name,
				Component:  n.Component,
				Verifies:   n.Verifies,
				Result:     n.Result,
				SourceFile: path,
			})
		case "":
			// Untyped nodes (contexts, annotations) are not records.
		default:
			doc.Warnings = append(doc.Warnings,
				fmt.Sprintf("%s: @graph[%d] has unrecognized type %q, skipped", path, i, n.kind()))
		}
	}
	return doc, nil
}

func (d *Document) warnMissingID(idx int, kind string) {
	d.Warnings = append(d.Warnings,
		fmt.Sprintf("%s: %s at @graph[%d] has no id/@id, skipped", d.Path, kind, idx))
}
