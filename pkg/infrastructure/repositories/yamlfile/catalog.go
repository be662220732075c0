// Package yamlfile reads and writes a whole catalog as a single YAML document.
package yamlfile

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

type yamlCatalog struct {
	RawMaterials []yamlRawMaterial `yaml:"raw_materials"`
	Products     []yamlProduct     `yaml:"products"`
}

type yamlRawMaterial struct {
	ID            int64       `yaml:"id"`
	Code          string      `yaml:"code"`
	Name          string      `yaml:"name"`
	Description   string      `yaml:"description,omitempty"`
	Unit          string      `yaml:"unit"`
	StockQuantity yamlDecimal `yaml:"stock_quantity"`
	UnitCost      yamlDecimal `yaml:"unit_cost"`
	Active        *bool       `yaml:"active,omitempty"`
}

type yamlProduct struct {
	ID            int64         `yaml:"id"`
	SKU           string        `yaml:"sku"`
	Name          string        `yaml:"name"`
	Description   string        `yaml:"description,omitempty"`
	UnitPrice     yamlDecimal   `yaml:"unit_price"`
	StockQuantity int64         `yaml:"stock_quantity,omitempty"`
	Active        *bool         `yaml:"active,omitempty"`
	BOM           []yamlBOMLine `yaml:"bom,omitempty"`
}

type yamlBOMLine struct {
	MaterialID      int64       `yaml:"material_id"`
	QuantityPerUnit yamlDecimal `yaml:"quantity_per_unit"`
}

// yamlDecimal keeps the scalar's literal text so 0.1 never passes through
// float64
type yamlDecimal struct {
	decimal.Decimal
}

func (d *yamlDecimal) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	if node.Value == "" {
		d.Decimal = decimal.Zero
		return nil
	}
	v, err := decimal.NewFromString(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid number %q", node.Line, node.Value)
	}
	d.Decimal = v
	return nil
}

func (d yamlDecimal) MarshalYAML() (any, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: d.String()}, nil
}

// Load reads a catalog document from filename
func Load(filename string) (*repositories.Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file %s: %w", filename, err)
	}
	defer file.Close()

	dataset, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return dataset, nil
}

// Read decodes a catalog document. Unknown fields are rejected so typos do
// not silently drop data.
func Read(r io.Reader) (*repositories.Dataset, error) {
	var doc yamlCatalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	now := time.Now().UTC()
	dataset := &repositories.Dataset{
		RawMaterials: make([]*entities.RawMaterial, 0, len(doc.RawMaterials)),
		Products:     make([]*entities.Product, 0, len(doc.Products)),
	}

	seenMaterials := make(map[int64]bool, len(doc.RawMaterials))
	for i, ym := range doc.RawMaterials {
		m, err := ym.toEntity(now)
		if err != nil {
			return nil, fmt.Errorf("raw_materials[%d]: %w", i, err)
		}
		if seenMaterials[ym.ID] {
			return nil, fmt.Errorf("raw_materials[%d]: duplicate id %d", i, ym.ID)
		}
		seenMaterials[ym.ID] = true
		dataset.RawMaterials = append(dataset.RawMaterials, m)
	}

	seenProducts := make(map[int64]bool, len(doc.Products))
	for i, yp := range doc.Products {
		p, err := yp.toEntity(now)
		if err != nil {
			return nil, fmt.Errorf("products[%d]: %w", i, err)
		}
		if seenProducts[yp.ID] {
			return nil, fmt.Errorf("products[%d]: duplicate id %d", i, yp.ID)
		}
		seenProducts[yp.ID] = true
		dataset.Products = append(dataset.Products, p)
	}
	return dataset, nil
}

// Write encodes dataset as a catalog document
func Write(w io.Writer, dataset *repositories.Dataset) error {
	doc := yamlCatalog{
		RawMaterials: make([]yamlRawMaterial, 0, len(dataset.RawMaterials)),
		Products:     make([]yamlProduct, 0, len(dataset.Products)),
	}
	for _, m := range dataset.RawMaterials {
		active := m.IsActive()
		doc.RawMaterials = append(doc.RawMaterials, yamlRawMaterial{
			ID:            m.ID().Value(),
			Code:          m.Code(),
			Name:          m.Name(),
			Description:   m.Description(),
			Unit:          m.Unit().Abbreviation(),
			StockQuantity: yamlDecimal{m.StockQuantity()},
			UnitCost:      yamlDecimal{m.UnitCost()},
			Active:        &active,
		})
	}
	for _, p := range dataset.Products {
		active := p.IsActive()
		yp := yamlProduct{
			ID:            p.ID().Value(),
			SKU:           p.SKU(),
			Name:          p.Name(),
			Description:   p.Description(),
			UnitPrice:     yamlDecimal{p.UnitPrice()},
			StockQuantity: p.StockQuantity(),
			Active:        &active,
		}
		for _, line := range p.Materials() {
			yp.BOM = append(yp.BOM, yamlBOMLine{
				MaterialID:      line.MaterialRef().Value(),
				QuantityPerUnit: yamlDecimal{line.QuantityPerUnit()},
			})
		}
		doc.Products = append(doc.Products, yp)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode catalog YAML: %w", err)
	}
	return enc.Close()
}

func (ym yamlRawMaterial) toEntity(now time.Time) (*entities.RawMaterial, error) {
	ref, err := entities.NewMaterialRef(ym.ID)
	if err != nil {
		return nil, err
	}
	unit, err := entities.ParseMeasurementUnit(ym.Unit)
	if err != nil {
		return nil, err
	}
	return entities.ReconstituteRawMaterial(entities.RawMaterialRecord{
		ID:            ref,
		Code:          ym.Code,
		Name:          ym.Name,
		Description:   ym.Description,
		Unit:          unit,
		StockQuantity: ym.StockQuantity.Decimal,
		UnitCost:      ym.UnitCost.Decimal,
		Active:        ym.Active == nil || *ym.Active,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (yp yamlProduct) toEntity(now time.Time) (*entities.Product, error) {
	ref, err := entities.NewProductRef(yp.ID)
	if err != nil {
		return nil, err
	}
	lines := make([]entities.BillOfMaterialLine, 0, len(yp.BOM))
	for j, yl := range yp.BOM {
		materialRef, err := entities.NewMaterialRef(yl.MaterialID)
		if err != nil {
			return nil, fmt.Errorf("bom[%d]: %w", j, err)
		}
		line, err := entities.NewBillOfMaterialLine(materialRef, yl.QuantityPerUnit.Decimal)
		if err != nil {
			return nil, fmt.Errorf("bom[%d]: %w", j, err)
		}
		lines = append(lines, line)
	}
	return entities.ReconstituteProduct(entities.ProductRecord{
		ID:            ref,
		SKU:           yp.SKU,
		Name:          yp.Name,
		Description:   yp.Description,
		UnitPrice:     yp.UnitPrice.Decimal,
		StockQuantity: yp.StockQuantity,
		Active:        yp.Active == nil || *yp.Active,
		CreatedAt:     now,
		UpdatedAt:     now,
		Materials:     lines,
	})
}
