package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/pipecenter/pipecenter-api/internal/domain/entity"
)

// Company is the letterhead printed on every quotation
type Company struct {
	Name     string
	Address  string
	Contact  string
	GSTLabel string
}

// Renderer turns a quotation into an A4 PDF document
type Renderer struct {
	company Company
}

// NewRenderer creates a renderer printing the given letterhead
func NewRenderer(company Company) *Renderer {
	if company.GSTLabel == "" {
		company.GSTLabel = "GST"
	}
	return &Renderer{company: company}
}

const (
	pageWidth   = 210.0
	margin      = 15.0
	contentWide = pageWidth - 2*margin
)

// item table column widths: S.No, Item Name, Rate, Quantity, Unit, Amount
var columns = []struct {
	title string
	width float64
	align string
}{
	{"S.No", 12, "C"},
	{"Item Name", 64, "L"},
	{"Rate", 28, "R"},
	{"Quantity", 22, "R"},
	{"Unit", 20, "C"},
	{"Amount", 34, "R"},
}

// Render builds the PDF. It depends only on q and the letterhead.
func (r *Renderer) Render(q entity.Quotation) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle("Quotation "+q.ID, true)
	pdf.SetCreator(r.company.Name, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	r.header(pdf, tr)
	details(pdf, tr, q)
	buyer(pdf, tr, q)
	itemsTable(pdf, tr, q.Items)
	r.summary(pdf, q)

	pdf.Ln(12)
	pdf.SetFont("Arial", "I", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(contentWide, 6, "Thank you for your business!", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render quotation %s: %w", q.ID, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) header(pdf *gofpdf.Fpdf, tr func(string) string) {
	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(0, 0, 139)
	pdf.CellFormat(contentWide, 10, tr(strings.ToUpper(r.company.Name)), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.SetTextColor(0, 0, 0)
	for _, line := range strings.Split(r.company.Address, "\n") {
		pdf.CellFormat(contentWide, 5, tr(strings.TrimSpace(line)), "", 1, "C", false, 0, "")
	}

	if r.company.Contact != "" {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetTextColor(0, 0, 139)
		pdf.CellFormat(contentWide, 6, tr("Contact: "+r.company.Contact), "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)
}

func details(pdf *gofpdf.Fpdf, tr func(string) string, q entity.Quotation) {
	pdf.SetFont("Arial", "B", 18)
	pdf.SetTextColor(139, 0, 0)
	pdf.CellFormat(contentWide, 10, "QUOTATION", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetTextColor(0, 0, 0)
	rows := [][2]string{
		{"Quotation ID:", q.ID},
		{"Date:", q.Date},
		{"Items:", strconv.Itoa(len(q.Items))},
	}
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 6, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(contentWide-40, 6, tr(row[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func buyer(pdf *gofpdf.Fpdf, tr func(string) string, q entity.Quotation) {
	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(0, 0, 139)
	pdf.CellFormat(contentWide, 7, "BILL TO:", "", 1, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(contentWide, 6, tr(q.BuyerName), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(contentWide, 5, tr(q.BuyerAddress), "", "L", false)
	pdf.Ln(6)
}

func itemsTable(pdf *gofpdf.Fpdf, tr func(string) string, items []entity.QuotationItem) {
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(0, 0, 139)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetDrawColor(0, 0, 0)
	for _, col := range columns {
		pdf.CellFormat(col.width, 8, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(0, 0, 0)
	for i, item := range items {
		// alternate row shading
		fill := i%2 == 1
		pdf.SetFillColor(240, 240, 240)
		cells := []string{
			strconv.Itoa(item.SNo),
			tr(item.ItemName),
			money(item.Rate),
			strconv.FormatFloat(item.Quantity, 'g', -1, 64),
			tr(item.Unit),
			money(item.Amount),
		}
		for j, col := range columns {
			pdf.CellFormat(col.width, 7, cells[j], "1", 0, col.align, fill, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)
}

func (r *Renderer) summary(pdf *gofpdf.Fpdf, q entity.Quotation) {
	const labelW, valueW = 50.0, 40.0
	indent := contentWide - labelW - valueW

	rows := []struct {
		label string
		value float64
	}{
		{"Subtotal:", q.Subtotal},
		{"Transport Charges:", q.TransportCharges},
		{r.company.GSTLabel + ":", q.GST},
	}
	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		pdf.CellFormat(indent, 7, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(labelW, 7, row.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(valueW, 7, "Rs. "+money(row.value), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(0, 0, 139)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(indent, 9, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(labelW, 9, "TOTAL:", "1", 0, "R", true, 0, "")
	pdf.CellFormat(valueW, 9, "Rs. "+money(q.Total), "1", 1, "R", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
