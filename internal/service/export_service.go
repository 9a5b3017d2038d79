package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"acadflow/backend/internal/dto"
	"acadflow/backend/pkg/apperrors"
)

// ExportService renders allocation views as downloadable files. The buffer
// comes back to the handler, which sets the response headers and streams it.
type ExportService interface {
	// ExportLoadMatrix renders the latest semester's credit-load matrix as
	// an .xlsx workbook. Returns the file content and a suggested name.
	ExportLoadMatrix(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	allocation AllocationService
	logger     *zap.Logger
}

// NewExportService builds the ExportService on top of the allocation engine.
func NewExportService(allocation AllocationService, logger *zap.Logger) ExportService {
	return &exportService{allocation: allocation, logger: logger}
}

// Workbook layout:
//   - one sheet, "Load Matrix"
//   - row 1: title; row 2: Course | Type | one column per instructor
//   - one row per (course, sectionType); zero loads render as "NA"
//   - final row: per-instructor totals
func (s *exportService) ExportLoadMatrix(ctx context.Context) (*bytes.Buffer, string, error) {
	matrix, err := s.allocation.LoadMatrix(ctx)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Load Matrix"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", apperrors.ErrExternal, err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, "B", "B", 12)
	for i := range matrix.Instructors {
		col := excelColName(2 + i)
		f.SetColWidth(sheetName, col, col, 24)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(sheetName, "A1", "Credit Load Matrix")
	f.MergeCell(sheetName, "A1", excelCell(excelColName(2+len(matrix.Instructors)), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	row := 2
	f.SetCellValue(sheetName, excelCell("A", row), "Course")
	f.SetCellValue(sheetName, excelCell("B", row), "Type")
	for i, email := range matrix.Instructors {
		f.SetCellValue(sheetName, excelCell(excelColName(2+i), row), email)
	}

	row = 3
	for _, r := range matrix.Rows {
		f.SetCellValue(sheetName, excelCell("A", row), r.CourseCode)
		f.SetCellValue(sheetName, excelCell("B", row), r.Type)
		for i, c := range r.Cells {
			writeLoadCell(f, sheetName, excelColName(2+i), row, c)
		}
		row++
	}

	f.SetCellValue(sheetName, excelCell("A", row), "Total")
	for i, c := range matrix.Totals {
		writeLoadCell(f, sheetName, excelColName(2+i), row, c)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write load matrix workbook failed", zap.Error(err))
		return nil, "", fmt.Errorf("%w: generate workbook: %v", apperrors.ErrExternal, err)
	}

	return buf, "credit_load_matrix.xlsx", nil
}

func writeLoadCell(f *excelize.File, sheet, col string, row int, c dto.LoadMatrixCell) {
	if c.NA {
		f.SetCellValue(sheet, excelCell(col, row), "NA")
		return
	}
	f.SetCellValue(sheet, excelCell(col, row), c.Load)
}

// ── Helpers ──

func excelColName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func excelCell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
