package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
)

// sheetName is the worksheet used for both export and import.
const sheetName = "Laporan"

// reportHeader is the column order of the case worksheet.
var reportHeader = []string{
	"ID", "Status", "Jenis Pelanggaran", "Kode", "Severity", "Prioritas",
	"Unit", "Batas SLA", "Ditugaskan", "Dibuat",
	"What", "Who", "When", "Where", "How", "Evidence", "Skor Kepatuhan",
}

// submissionHeader is the column order expected by ReadSubmissions.
var submissionHeader = []string{"What", "Who", "When", "Where", "How", "Evidence", "Contact"}

// WriteReports writes the case worksheet to path.
func WriteReports(path string, reports []model.Report) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range reportHeader {
		header.AddCell().Value = col
	}

	for i := range reports {
		r := &reports[i]
		row := sheet.AddRow()
		for _, v := range reportRow(r) {
			row.AddCell().Value = v
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func reportRow(r *model.Report) []string {
	var violationType, code, severity, priority string
	var compliance string
	if r.Classification != nil {
		violationType = string(r.Classification.ViolationType)
		code = r.Classification.ViolationCode
		severity = string(r.Classification.Severity)
		priority = r.Classification.Priority
	}
	var unit, deadline string
	if r.Routing != nil {
		unit = string(r.Routing.Unit)
		deadline = r.Routing.SLADeadline.UTC().Format(time.RFC3339)
	}
	if r.Compliance != nil {
		compliance = strconv.FormatFloat(r.Compliance.Score, 'f', 1, 64)
	}

	return []string{
		r.ID, string(r.Status), violationType, code, severity, priority,
		unit, deadline, r.AssignedTo, r.CreatedAt.UTC().Format(time.RFC3339),
		r.Submission.What, r.Submission.Who, r.Submission.When,
		r.Submission.Where, r.Submission.How, r.Submission.Evidence, compliance,
	}
}

// ReadSubmissions parses a backlog worksheet of raw submissions. The first
// row must carry the What/Who/When/Where/How/Evidence/Contact header; rows
// with an empty What column are skipped.
func ReadSubmissions(path string) ([]model.Submission, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("export: %s has no sheets", path)
	}
	sheet := f.Sheets[0]

	var subs []model.Submission
	for i, row := range sheet.Rows {
		cells := rowToStrings(row)
		if i == 0 {
			if err := checkHeader(cells); err != nil {
				return nil, err
			}
			continue
		}
		if strings.TrimSpace(cell(cells, 0)) == "" {
			continue
		}
		subs = append(subs, model.Submission{
			What:     cell(cells, 0),
			Who:      cell(cells, 1),
			When:     cell(cells, 2),
			Where:    cell(cells, 3),
			How:      cell(cells, 4),
			Evidence: cell(cells, 5),
			Contact:  cell(cells, 6),
			Channel:  model.ChannelCLI,
		})
	}
	return subs, nil
}

func checkHeader(cells []string) error {
	for i, want := range submissionHeader {
		if !strings.EqualFold(strings.TrimSpace(cell(cells, i)), want) {
			return eris.Errorf("export: header column %d is %q, want %q", i, cell(cells, i), want)
		}
	}
	return nil
}

func cell(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return cells[i]
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, c := range row.Cells {
		cells[j] = c.String()
	}
	return cells
}
