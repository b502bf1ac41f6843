// Package registry indexes requirement records from many documents into one
// ID-keyed map, tagged with originating component and source file.
package registry

import (
	"github.com/journalbrand/reqtrace/internal/jsonld"
)

// Entry is a registered requirement plus its provenance. Component is the
// positional component name derived from the file's directory, which may
// differ from the component field declared inside the document; the
// component-prefix check compares the two.
type Entry struct {
	Req        jsonld.Requirement
	Component  string
	SourceFile string
}

// Duplicate records a requirement ID seen in more than one place. The merge
// itself is last-write-wins so matrix output matches the pipeline, but early
// validation surfaces duplicates as hard errors.
type Duplicate struct {
	ID           string
	FirstSource  string
	SecondSource string
}

// Registry is built once per run and read-only thereafter.
type Registry struct {
	entries    map[string]Entry
	order      []string
	components []string
	compSeen   map[string]bool
	duplicates []Duplicate
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		entries:  make(map[string]Entry),
		compSeen: make(map[string]bool),
	}
}

// AddSystem registers the system-level requirements from doc. Only records
// declared as System-owned (or with no component field) are taken; the system
// file may also carry component summaries that the component files own.
func (r *Registry) AddSystem(doc *jsonld.Document) {
	for _, req := range doc.Requirements {
		if req.Component == "System" || req.Component == "" {
			r.add(req, "System")
		}
	}
}

// AddComponent registers every requirement from a component document under
// the given positional component name.
func (r *Registry) AddComponent(doc *jsonld.Document, component string) {
	if !r.compSeen[component] {
		r.compSeen[component] = true
		r.components = append(r.components, component)
	}
	for _, req := range doc.Requirements {
		r.add(req, component)
	}
}

func (r *Registry) add(req jsonld.Requirement, component string) {
	if prev, ok := r.entries[req.ID]; ok {
		r.duplicates = append(r.duplicates, Duplicate{
			ID:           req.ID,
			FirstSource:  prev.SourceFile,
			SecondSource: req.SourceFile,
		})
	} else {
		r.order = append(r.order, req.ID)
	}
	// Last write wins on duplicate IDs.
	r.entries[req.ID] = Entry{Req: req, Component: component, SourceFile: req.SourceFile}
}

// Lookup returns the entry for id, if registered.
func (r *Registry) Lookup(id string) (Entry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.entries[id]
	return ok
}

// Len returns the number of distinct requirement IDs.
func (r *Registry) Len() int { return len(r.entries) }

// Entries returns all entries in first-insertion order, so diagnostic output
// is deterministic across runs.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

// Components returns the component names registered via AddComponent, in
// registration order. The system scope is not included.
func (r *Registry) Components() []string { return r.components }

// Duplicates returns every duplicate ID occurrence observed during merging.
func (r *Registry) Duplicates() []Duplicate { return r.duplicates }
