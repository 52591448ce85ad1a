// Package export renders a snapshot as an xlsx workbook with a Units sheet
// and a Categories sheet.
package export

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/snapshot"
)

// Sheet names.
const (
	UnitsSheet      = "Units"
	CategoriesSheet = "Categories"
)

// UnitsHeader is the header row of the Units sheet.
var UnitsHeader = []string{
	"Unit",
	"Unit ID",
	"Category",
	"Region",
	"Status",
	"Reason",
	"Guest",
	"Arrival",
	"Departure",
	"Checking Out",
	"Degraded",
}

// CategoriesHeader is the header row of the Categories sheet.
var CategoriesHeader = []string{
	"Category",
	"Available",
	"Reserved",
	"Blocked",
	"Total",
	"Occupancy %",
}

var unitsWidths = []float64{28, 12, 14, 20, 12, 22, 24, 12, 12, 14, 10}

// Write renders snap into w.
func Write(w io.Writer, snap *snapshot.Snapshot) error {
	f, err := build(snap)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return errors.WrapIO("write", "workbook", err)
	}
	return nil
}

// Bytes renders snap and returns the workbook.
func Bytes(snap *snapshot.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile renders snap into path.
func WriteFile(path string, snap *snapshot.Snapshot) error {
	data, err := Bytes(snap)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// Filename returns the default file name for snap.
func Filename(snap *snapshot.Snapshot) string {
	return fmt.Sprintf("staymap-%s.xlsx", snap.TakenAt.Format(constants.TimeFormatFilename))
}

func build(snap *snapshot.Snapshot) (*excelize.File, error) {
	f := excelize.NewFile()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	index, err := f.NewSheet(UnitsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(CategoriesSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	units := make([][]any, 0, len(snap.Units))
	for _, u := range snap.Units {
		units = append(units, []any{
			u.Name,
			u.ID.String(),
			u.Category.Label(),
			u.Region,
			u.Status.String(),
			u.Reason,
			u.GuestName,
			u.Arrival,
			u.Departure,
			u.CheckingOut,
			u.Degraded,
		})
	}
	if err := writeSheet(f, UnitsSheet, UnitsHeader, units, header); err != nil {
		f.Close()
		return nil, err
	}
	for i, width := range unitsWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(UnitsSheet, col, col, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	categories := make([][]any, 0, len(snap.Categories)+1)
	for _, c := range snap.Categories {
		categories = append(categories, []any{c.Category.Label(), c.Available, c.Reserved, c.Blocked, c.Total, c.OccupancyRate})
	}
	p := snap.Portfolio()
	categories = append(categories, []any{snapshot.PortfolioLabel, p.Available, p.Reserved, p.Blocked, p.Total, p.OccupancyRate})
	if err := writeSheet(f, CategoriesSheet, CategoriesHeader, categories, header); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetColWidth(CategoriesSheet, "A", "A", 16); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	return f, nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any, style int) error {
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &cells); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
