package output

import (
	"encoding/json"
	"io"
)

// RenderJSON writes the plan DTO as indented JSON
func RenderJSON(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report.Plan)
}
