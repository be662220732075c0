// Package output renders production plans for the command line.
package output

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/vsinha/prodplan/pkg/application/dto"
)

// Formats accepted by Render
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Report is everything a renderer may show about one planning run
type Report struct {
	Plan dto.ProductionPlan
	// Materials labels the remaining stock; entries not found are shown by id
	Materials map[int64]dto.RawMaterialResponse
	Duration  time.Duration
	Sources   []string
}

// Options tune the text renderer
type Options struct {
	Color   bool
	Verbose bool
}

// Render writes report to w in the given format
func Render(w io.Writer, report Report, format string, opts Options) error {
	switch format {
	case FormatText, "":
		return RenderText(w, report, opts)
	case FormatJSON:
		return RenderJSON(w, report)
	case FormatCSV:
		return RenderCSV(w, report)
	case FormatXLSX:
		return RenderXLSX(w, report)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// IsBinary reports whether format should not be written to a terminal
func IsBinary(format string) bool {
	return format == FormatXLSX
}

type remainingRow struct {
	id        int64
	code      string
	name      string
	unit      string
	remaining string
}

// remainingRows lists remaining stock in ascending material id order
func remainingRows(report Report) []remainingRow {
	ids := make([]int64, 0, len(report.Plan.RemainingStock))
	for id := range report.Plan.RemainingStock {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	rows := make([]remainingRow, 0, len(ids))
	for _, id := range ids {
		row := remainingRow{id: id, remaining: report.Plan.RemainingStock[id].String()}
		if m, ok := report.Materials[id]; ok {
			row.code = m.Code
			row.name = m.Name
			row.unit = m.Unit
		}
		rows = append(rows, row)
	}
	return rows
}
