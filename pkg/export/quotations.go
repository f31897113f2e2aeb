package export

import (
	"bytes"
	"fmt"

	"github.com/pipecenter/pipecenter-api/internal/domain/entity"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Quotations"
	itemsSheet   = "Items"
)

var (
	summaryHeader = []any{"Quotation ID", "Date", "Buyer Name", "Buyer Address", "Items", "Subtotal", "Transport Charges", "GST", "Total"}
	itemsHeader   = []any{"Quotation ID", "S.No", "Item Name", "Rate", "Quantity", "Unit", "Amount"}
)

// QuotationsXLSX writes one summary row per quotation and one row per line
// item on a second sheet.
func QuotationsXLSX(quotations []entity.Quotation) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(summarySheet)
	if err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, fmt.Errorf("create items sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Family: "Arial",
			Color:  "#FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#00008B"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("create number style: %w", err)
	}

	if err := writeHeader(f, summarySheet, summaryHeader, headerStyle); err != nil {
		return nil, err
	}
	if err := writeHeader(f, itemsSheet, itemsHeader, headerStyle); err != nil {
		return nil, err
	}

	itemRow := 2
	for i, q := range quotations {
		row := []any{q.ID, q.Date, q.BuyerName, q.BuyerAddress, len(q.Items), q.Subtotal, q.TransportCharges, q.GST, q.Total}
		if err := writeRow(f, summarySheet, i+2, row); err != nil {
			return nil, err
		}
		for _, item := range q.Items {
			if err := writeRow(f, itemsSheet, itemRow, []any{q.ID, item.SNo, item.ItemName, item.Rate, item.Quantity, item.Unit, item.Amount}); err != nil {
				return nil, err
			}
			itemRow++
		}
	}

	last := len(quotations) + 1
	if last > 1 {
		if err := f.SetCellStyle(summarySheet, "F2", fmt.Sprintf("I%d", last), moneyStyle); err != nil {
			return nil, err
		}
	}
	if itemRow > 2 {
		if err := f.SetCellStyle(itemsSheet, "G2", fmt.Sprintf("G%d", itemRow-1), moneyStyle); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(summarySheet, "A", "D", 22)
	_ = f.SetColWidth(itemsSheet, "A", "C", 22)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, header []any, style int) error {
	if err := writeRow(f, sheet, 1, header); err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", end, style)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
