package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
)

func exportedReport() model.Report {
	return model.Report{
		ID: "WBS-2026-101530",
		Submission: model.Submission{
			What:     "Dugaan korupsi pengadaan",
			Who:      "Kepala bagian",
			When:     "Maret 2026",
			Where:    "Jakarta",
			How:      "Mark up harga",
			Evidence: "Invoice",
		},
		Status: model.StatusInvestigation,
		Classification: &model.ClassificationResult{
			ViolationType: model.ViolationKorupsi,
			ViolationCode: "V001",
			Severity:      model.SeverityCritical,
			Priority:      "P1",
		},
		Routing: &model.RoutingDecision{
			Unit:        model.UnitSPI,
			SLADeadline: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
		},
		Compliance: &model.ComplianceResult{Score: 85},
		AssignedTo: "budi.santoso",
		CreatedAt:  time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC),
	}
}

func TestWriteReports(t *testing.T) {
	path := filepath.Join(t.TempDir(), "laporan.xlsx")
	require.NoError(t, WriteReports(path, []model.Report{exportedReport()}))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	assert.Equal(t, "Laporan", f.Sheets[0].Name)

	rows := f.Sheets[0].Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "ID", rows[0].Cells[0].String())

	got := rows[1]
	assert.Equal(t, "WBS-2026-101530", got.Cells[0].String())
	assert.Equal(t, "investigation", got.Cells[1].String())
	assert.Equal(t, "Korupsi", got.Cells[2].String())
	assert.Equal(t, "V001", got.Cells[3].String())
	assert.Equal(t, "85.0", got.Cells[16].String())
}

func TestWriteReportsHandlesMissingStages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kosong.xlsx")
	r := model.Report{ID: "WBS-2026-000001", Status: model.StatusNew}
	require.NoError(t, WriteReports(path, []model.Report{r}))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, "", f.Sheets[0].Rows[1].Cells[2].String())
}

func TestReadSubmissionsRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backlog.xlsx")

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Backlog")
	require.NoError(t, err)
	header := sheet.AddRow()
	for _, col := range []string{"What", "Who", "When", "Where", "How", "Evidence", "Contact"} {
		header.AddCell().Value = col
	}
	row := sheet.AddRow()
	for _, v := range []string{"Dugaan suap vendor", "Manajer", "April 2026", "Surabaya", "Transfer pribadi", "", "lapor@contoh.id"} {
		row.AddCell().Value = v
	}
	blank := sheet.AddRow()
	blank.AddCell().Value = ""
	require.NoError(t, f.Save(path))

	subs, err := ReadSubmissions(path)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Dugaan suap vendor", subs[0].What)
	assert.Equal(t, "lapor@contoh.id", subs[0].Contact)
	assert.Equal(t, model.ChannelCLI, subs[0].Channel)
}

func TestReadSubmissionsRejectsWrongHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salah.xlsx")

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Backlog")
	require.NoError(t, err)
	row := sheet.AddRow()
	row.AddCell().Value = "Judul"
	require.NoError(t, f.Save(path))

	_, err = ReadSubmissions(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header column")
}
