package report

import (
	"encoding/json"

	"github.com/journalbrand/reqtrace/internal/validate"
)

type jsonRenderer struct{}

func (r *jsonRenderer) Render(result *validate.Result) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}
