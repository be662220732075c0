package services

import (
	"fmt"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// IssueKind classifies a catalog consistency finding
type IssueKind int

const (
	EmptyBOM IssueKind = iota
	UnknownMaterial
	InactiveMaterial
)

// String method for IssueKind enum
func (k IssueKind) String() string {
	switch k {
	case EmptyBOM:
		return "EmptyBOM"
	case UnknownMaterial:
		return "UnknownMaterial"
	case InactiveMaterial:
		return "InactiveMaterial"
	default:
		return "Unknown"
	}
}

// ConsistencyIssue is a product that the calculator will never produce
// because of how its BOM relates to the raw material catalog
type ConsistencyIssue struct {
	Kind        IssueKind
	ProductRef  entities.ProductRef
	ProductSKU  string
	MaterialRef entities.MaterialRef // zero for EmptyBOM
}

func (i ConsistencyIssue) String() string {
	switch i.Kind {
	case EmptyBOM:
		return fmt.Sprintf("product %s has no bill of materials", i.ProductSKU)
	case UnknownMaterial:
		return fmt.Sprintf("product %s references unknown raw material %d", i.ProductSKU, i.MaterialRef.Value())
	case InactiveMaterial:
		return fmt.Sprintf("product %s references inactive raw material %d", i.ProductSKU, i.MaterialRef.Value())
	default:
		return fmt.Sprintf("product %s: %s", i.ProductSKU, i.Kind)
	}
}

// ConsistencyReport contains the results of a catalog consistency check
type ConsistencyReport struct {
	Issues           []ConsistencyIssue
	CheckedProducts  int
	CheckedMaterials int
}

// HasIssues reports whether any finding was recorded
func (r *ConsistencyReport) HasIssues() bool { return len(r.Issues) > 0 }

// Messages returns one human readable line per issue
func (r *ConsistencyReport) Messages() []string {
	out := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		out = append(out, issue.String())
	}
	return out
}

// CheckCatalogConsistency flags active products whose BOM is empty or points
// at materials that are missing or inactive in the given catalog. Inactive
// products are skipped since they never reach the calculator. The check only
// reports; it never changes planning behaviour.
func CheckCatalogConsistency(products []*entities.Product, rawMaterials []*entities.RawMaterial) *ConsistencyReport {
	report := &ConsistencyReport{
		Issues:           make([]ConsistencyIssue, 0),
		CheckedMaterials: len(rawMaterials),
	}

	activeByRef := make(map[entities.MaterialRef]bool, len(rawMaterials))
	for _, rm := range rawMaterials {
		if rm == nil || rm.ID().IsZero() {
			continue
		}
		activeByRef[rm.ID()] = rm.IsActive()
	}

	for _, p := range products {
		if p == nil || !p.IsActive() {
			continue
		}
		report.CheckedProducts++

		if !p.HasMaterials() {
			report.Issues = append(report.Issues, ConsistencyIssue{
				Kind:       EmptyBOM,
				ProductRef: p.ID(),
				ProductSKU: p.SKU(),
			})
			continue
		}

		for _, line := range p.Materials() {
			active, known := activeByRef[line.MaterialRef()]
			switch {
			case !known:
				report.Issues = append(report.Issues, ConsistencyIssue{
					Kind:        UnknownMaterial,
					ProductRef:  p.ID(),
					ProductSKU:  p.SKU(),
					MaterialRef: line.MaterialRef(),
				})
			case !active:
				report.Issues = append(report.Issues, ConsistencyIssue{
					Kind:        InactiveMaterial,
					ProductRef:  p.ID(),
					ProductSKU:  p.SKU(),
					MaterialRef: line.MaterialRef(),
				})
			}
		}
	}

	return report
}
