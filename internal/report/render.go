// Package report renders a validation result for humans or machines.
package report

import (
	"fmt"

	"github.com/journalbrand/reqtrace/internal/validate"
)

// Renderer formats a Result into bytes for output.
type Renderer interface {
	Render(result *validate.Result) ([]byte, error)
}

// NewRenderer returns a Renderer for the given format string.
// Supported formats: "text" (default), "json".
func NewRenderer(format string) (Renderer, error) {
	switch format {
	case "text":
		return &textRenderer{}, nil
	case "json":
		return &jsonRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q: supported formats are text, json", format)
	}
}
