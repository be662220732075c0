package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorHeader = lipgloss.Color("#fe8019")
	colorDim    = lipgloss.Color("#928374")
	colorGreen  = lipgloss.Color("#8ec07c")
	colorYellow = lipgloss.Color("#fabd2f")
)

type styles struct {
	header, dim, good, warn, bold lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{header: plain, dim: plain, good: plain, warn: plain, bold: plain}
	}
	return styles{
		header: lipgloss.NewStyle().Foreground(colorHeader).Bold(true),
		dim:    lipgloss.NewStyle().Foreground(colorDim),
		good:   lipgloss.NewStyle().Foreground(colorGreen),
		warn:   lipgloss.NewStyle().Foreground(colorYellow),
		bold:   lipgloss.NewStyle().Bold(true),
	}
}

// RenderText writes a human readable plan summary
func RenderText(w io.Writer, report Report, opts Options) error {
	st := newStyles(opts.Color)
	plan := report.Plan
	var b strings.Builder

	b.WriteString(st.header.Render("Production Plan"))
	b.WriteString("\n\n")

	if opts.Verbose {
		if plan.RunID != "" {
			fmt.Fprintf(&b, "%s %s\n", st.dim.Render("Run:"), plan.RunID)
		}
		for _, src := range report.Sources {
			fmt.Fprintf(&b, "%s %s\n", st.dim.Render("Source:"), src)
		}
		if report.Duration > 0 {
			fmt.Fprintf(&b, "%s %v\n", st.dim.Render("Calculated in:"), report.Duration)
		}
		b.WriteString("\n")
	}

	if len(plan.Items) == 0 {
		b.WriteString(st.warn.Render("Nothing can be produced with the current stock."))
		b.WriteString("\n")
	} else {
		rows := make([][]string, 0, len(plan.Items))
		for i, item := range plan.Items {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				item.ProductSKU,
				item.ProductName,
				strconv.FormatInt(item.Quantity, 10),
				item.UnitPrice.StringFixed(2),
				item.TotalValue.StringFixed(2),
			})
		}
		b.WriteString(renderTable(st, []string{"#", "SKU", "PRODUCT", "QTY", "UNIT PRICE", "TOTAL"}, rows))
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", st.bold.Render("Total production value:"), st.good.Render(plan.TotalProductionValue.StringFixed(2)))
	fmt.Fprintf(&b, "%s %d\n", st.bold.Render("Total units:"), plan.TotalUnits)

	if remaining := remainingRows(report); len(remaining) > 0 {
		b.WriteString("\n")
		b.WriteString(st.header.Render("Remaining Stock"))
		b.WriteString("\n\n")
		rows := make([][]string, 0, len(remaining))
		for _, r := range remaining {
			rows = append(rows, []string{strconv.FormatInt(r.id, 10), r.code, r.name, r.remaining, r.unit})
		}
		b.WriteString(renderTable(st, []string{"ID", "CODE", "MATERIAL", "REMAINING", "UNIT"}, rows))
	}

	if opts.Verbose && len(plan.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(st.warn.Render("Catalog warnings"))
		b.WriteString("\n")
		for _, msg := range plan.Warnings {
			fmt.Fprintf(&b, "  - %s\n", msg)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// renderTable pads columns to the widest visible cell
func renderTable(st styles, headers []string, rows [][]string) string {
	const colGap = 2
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(headers) && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style *lipgloss.Style) {
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := widths[i] - lipgloss.Width(cell)
			if style != nil {
				cell = style.Render(cell)
			}
			b.WriteString(cell)
			if i < len(headers)-1 {
				b.WriteString(strings.Repeat(" ", pad+colGap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, &st.header)
	separators := make([]string, len(widths))
	for i, w := range widths {
		separators[i] = strings.Repeat("─", w)
	}
	writeRow(separators, &st.dim)
	for _, row := range rows {
		writeRow(row, nil)
	}
	return b.String()
}
