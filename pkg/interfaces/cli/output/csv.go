package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

var csvHeader = []string{"product_id", "sku", "name", "quantity", "unit_price", "total_value"}

// RenderCSV writes one row per plan item followed by a TOTAL row
func RenderCSV(w io.Writer, report Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, item := range report.Plan.Items {
		record := []string{
			strconv.FormatInt(item.ProductID, 10),
			item.ProductSKU,
			item.ProductName,
			strconv.FormatInt(item.Quantity, 10),
			item.UnitPrice.String(),
			item.TotalValue.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	total := []string{"", "TOTAL", "", strconv.FormatInt(report.Plan.TotalUnits, 10), "", report.Plan.TotalProductionValue.String()}
	if err := cw.Write(total); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	cw.Flush()
	return cw.Error()
}
