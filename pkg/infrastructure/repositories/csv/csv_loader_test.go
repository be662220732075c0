package csv

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/services"
)

func TestLoader_LoadCatalog(t *testing.T) {
	dir := "testdata"
	dataset, err := NewLoader().LoadCatalog(
		filepath.Join(dir, "raw_materials.csv"),
		filepath.Join(dir, "products.csv"),
		filepath.Join(dir, "bom.csv"),
	)
	require.NoError(t, err)

	require.Len(t, dataset.RawMaterials, 4)
	screws := dataset.RawMaterials[1]
	assert.Equal(t, "SCR-440", screws.Code(), "codes are normalized")
	assert.Equal(t, entities.Piece, screws.Unit())
	assert.True(t, dataset.RawMaterials[2].IsActive(), "blank active cell means active")
	assert.False(t, dataset.RawMaterials[3].IsActive())
	assert.Equal(t, entities.Meter, dataset.RawMaterials[3].Unit())

	require.Len(t, dataset.Products, 4)
	table := dataset.Products[0]
	assert.Equal(t, entities.MustProductRef(10), table.ID())
	assert.Equal(t, int64(2), table.StockQuantity())
	assert.Equal(t, 3, table.MaterialCount())
	assert.Equal(t, int64(0), dataset.Products[2].StockQuantity())

	plan, err := services.Calculate(dataset.Products, dataset.RawMaterials)
	require.NoError(t, err)
	assert.Equal(t, "2745", plan.TotalProductionValue().String())
}

func TestLoader_LoadCatalogWithoutBOM(t *testing.T) {
	dataset, err := NewLoader().LoadCatalog("testdata/raw_materials.csv", "testdata/products.csv", "")
	require.NoError(t, err)
	for _, p := range dataset.Products {
		assert.False(t, p.HasMaterials())
	}
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader().LoadRawMaterials("testdata/nope.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open raw materials file")
}

func TestLoader_ReadErrors(t *testing.T) {
	l := NewLoader()

	testCases := []struct {
		name    string
		read    func(string) error
		input   string
		wantErr string
	}{
		{
			name:    "empty materials",
			read:    func(s string) error { _, err := l.ReadRawMaterials(strings.NewReader(s)); return err },
			input:   "",
			wantErr: "raw materials CSV must have a header row",
		},
		{
			name:    "wrong header",
			read:    func(s string) error { _, err := l.ReadProducts(strings.NewReader(s)); return err },
			input:   "id,sku,name\n",
			wantErr: "products CSV header mismatch",
		},
		{
			name:    "short row",
			read:    func(s string) error { _, err := l.ReadBOM(strings.NewReader(s)); return err },
			input:   "product_id,material_id,quantity_per_unit\n1,2\n",
			wantErr: "BOM CSV row 2: expected 3 columns, got 2",
		},
		{
			name:    "bad unit",
			read:    func(s string) error { _, err := l.ReadRawMaterials(strings.NewReader(s)); return err },
			input:   "id,code,name,description,unit,stock_quantity,unit_cost,active\n1,A,Alpha,,furlong,1,1,true\n",
			wantErr: "raw materials CSV row 2",
		},
		{
			name:    "negative stock",
			read:    func(s string) error { _, err := l.ReadRawMaterials(strings.NewReader(s)); return err },
			input:   "id,code,name,description,unit,stock_quantity,unit_cost,active\n1,A,Alpha,,kg,-1,1,true\n",
			wantErr: "stock cannot go below zero",
		},
		{
			name:    "duplicate product id",
			read:    func(s string) error { _, err := l.ReadProducts(strings.NewReader(s)); return err },
			input:   "id,sku,name,description,unit_price,stock_quantity,active\n1,A,Alpha,,1,0,true\n1,B,Beta,,1,0,true\n",
			wantErr: "products CSV row 3: duplicate id 1",
		},
		{
			name:    "zero quantity",
			read:    func(s string) error { _, err := l.ReadBOM(strings.NewReader(s)); return err },
			input:   "product_id,material_id,quantity_per_unit\n1,2,0\n",
			wantErr: "quantity_per_unit must be positive",
		},
		{
			name:    "bad active flag",
			read:    func(s string) error { _, err := l.ReadProducts(strings.NewReader(s)); return err },
			input:   "id,sku,name,description,unit_price,stock_quantity,active\n1,A,Alpha,,1,0,maybe\n",
			wantErr: "invalid active flag",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.read(tc.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestAttachBOM(t *testing.T) {
	l := NewLoader()
	products, err := l.ReadProducts(strings.NewReader("id,sku,name,description,unit_price,stock_quantity,active\n1,A,Alpha,,10,0,true\n"))
	require.NoError(t, err)

	rows, err := l.ReadBOM(strings.NewReader("product_id,material_id,quantity_per_unit\n2,1,1\n"))
	require.NoError(t, err)
	err = AttachBOM(products, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown product 2")

	rows, err = l.ReadBOM(strings.NewReader("product_id,material_id,quantity_per_unit\n1,1,1\n1,1,2\n"))
	require.NoError(t, err)
	err = AttachBOM(products, rows)
	assert.ErrorIs(t, err, entities.ErrDuplicateMaterial)
}
