package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vsinha/prodplan/pkg/application/dto"
)

// executeCmd runs the root command and captures stdout and stderr
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeCmdContext(t, context.Background(), args...)
}

func executeCmdContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.ExecuteContext(ctx)
	return buf.String(), err
}

func decodePlan(t *testing.T, out string) dto.ProductionPlan {
	t.Helper()
	var plan dto.ProductionPlan
	require.NoError(t, json.Unmarshal([]byte(out), &plan), out)
	return plan
}

func TestPlan_YAMLCatalog(t *testing.T) {
	out, err := executeCmd(t, "plan", "--catalog", "testdata/catalog.yaml", "--format", "json")
	require.NoError(t, err)

	plan := decodePlan(t, out)
	assert.Equal(t, "2745", plan.TotalProductionValue.String())
	assert.Equal(t, int64(7), plan.TotalUnits)
	require.Len(t, plan.Items, 2)
	assert.Equal(t, "TBL-100", plan.Items[0].ProductSKU)
	assert.Equal(t, "0.5", plan.RemainingStock[1].String())
}

func TestPlan_CSVFilesAsText(t *testing.T) {
	out, err := executeCmd(t, "plan",
		"--materials", "testdata/raw_materials.csv",
		"--products", "testdata/products.csv",
		"--bom", "testdata/bom.csv",
		"--verbose")
	require.NoError(t, err)

	assert.Contains(t, out, "TBL-100")
	assert.Contains(t, out, "Total production value: 2745.00")
	assert.Contains(t, out, "Total units: 7")
	assert.Contains(t, out, "Source: testdata/bom.csv")
	assert.NotContains(t, out, "\x1b[")
}

func TestPlan_FileSourceErrors(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "materials without products",
			args:    []string{"--materials", "testdata/raw_materials.csv"},
			wantErr: "must specify either --catalog or both --materials and --products",
		},
		{
			name:    "catalog mixed with csv",
			args:    []string{"--catalog", "testdata/catalog.yaml", "--bom", "testdata/bom.csv"},
			wantErr: "cannot be combined",
		},
		{
			name:    "missing catalog",
			args:    []string{"--catalog", "testdata/missing.yaml"},
			wantErr: "failed to open catalog file",
		},
		{
			name:    "unknown format",
			args:    []string{"--catalog", "testdata/catalog.yaml", "--format", "pdf"},
			wantErr: `unknown output format "pdf"`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := executeCmd(t, append([]string{"plan"}, tc.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestPlan_XLSXToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.xlsx")
	out, err := executeCmd(t, "plan", "--catalog", "testdata/catalog.yaml", "--format", "xlsx", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Plan written to "+path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Plan")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestPlan_EmptyMemoryStore(t *testing.T) {
	out, err := executeCmd(t, "plan", "--format", "json")
	require.NoError(t, err)
	plan := decodePlan(t, out)
	assert.Empty(t, plan.Items)
	assert.True(t, plan.TotalProductionValue.IsZero())
}

func TestImportPlanExport_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "prodplan.db")
	store := []string{"--driver", "sqlite", "--dsn", dsn}

	out, err := executeCmd(t, append([]string{"import", "testdata/catalog.yaml"}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 4 raw materials, 4 products and 9 BOM lines")

	out, err = executeCmd(t, append([]string{"plan", "--format", "json"}, store...)...)
	require.NoError(t, err)
	assert.Equal(t, "2745", decodePlan(t, out).TotalProductionValue.String())

	exportPath := filepath.Join(t.TempDir(), "export.yaml")
	_, err = executeCmd(t, append([]string{"export", "--output", exportPath}, store...)...)
	require.NoError(t, err)
	exported, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Contains(t, string(exported), "code: SCR-440")
	assert.Contains(t, string(exported), "sku: CSH-400")

	out, err = executeCmd(t, append([]string{"plan", "--catalog", exportPath, "--format", "csv"}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, ",TOTAL,,7,,2745")
}

func TestImport_RequiresSource(t *testing.T) {
	_, err := executeCmd(t, "import")
	require.Error(t, err)

	_, err = executeCmd(t, "import", "testdata/catalog.yaml", "--catalog", "testdata/catalog.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog given both")
}

func TestMigrate(t *testing.T) {
	_, err := executeCmd(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate needs a SQL storage driver")

	dsn := filepath.Join(t.TempDir(), "prodplan.db")
	out, err := executeCmd(t, "migrate", "--driver", "sqlite", "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "applied 00001")
	assert.Contains(t, out, "schema version 1")

	out, err = executeCmd(t, "migrate", "--driver", "sqlite", "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "schema is up to date at version 1")
}

func TestConfig_DSNRequiredForSQL(t *testing.T) {
	_, err := executeCmd(t, "plan", "--driver", "sqlite")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.dsn is required")
}

func TestServe_StopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	_, err := executeCmdContext(t, ctx, "serve", "--addr", "127.0.0.1:0")
	assert.NoError(t, err)
}
