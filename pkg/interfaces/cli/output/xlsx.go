package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	planSheet      = "Plan"
	remainingSheet = "Remaining Stock"
)

// RenderXLSX writes a workbook with the plan items on one sheet and the
// remaining stock on another. Decimals are written as text to keep them exact.
func RenderXLSX(w io.Writer, report Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), planSheet); err != nil {
		return fmt.Errorf("failed to name plan sheet: %w", err)
	}
	if _, err := f.NewSheet(remainingSheet); err != nil {
		return fmt.Errorf("failed to add remaining stock sheet: %w", err)
	}

	planRows := [][]any{{"Product ID", "SKU", "Product", "Quantity", "Unit price", "Total value"}}
	for _, item := range report.Plan.Items {
		planRows = append(planRows, []any{
			item.ProductID, item.ProductSKU, item.ProductName, item.Quantity,
			item.UnitPrice.String(), item.TotalValue.String(),
		})
	}
	planRows = append(planRows, []any{"", "TOTAL", "", report.Plan.TotalUnits, "", report.Plan.TotalProductionValue.String()})
	if err := writeRows(f, planSheet, planRows); err != nil {
		return err
	}

	stockRows := [][]any{{"Material ID", "Code", "Material", "Remaining", "Unit"}}
	for _, r := range remainingRows(report) {
		stockRows = append(stockRows, []any{r.id, r.code, r.name, r.remaining, r.unit})
	}
	if err := writeRows(f, remainingSheet, stockRows); err != nil {
		return err
	}

	if err := f.SetPanes(planSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
