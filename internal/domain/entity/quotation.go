package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pipecenter/pipecenter-api/pkg/apperror"
)

// DateLayout is the display format of Quotation.Date (DD/MM/YYYY)
const DateLayout = "02/01/2006"

// Quotation represents a price quotation for a buyer
type Quotation struct {
	ID               string          `json:"id"`
	BuyerName        string          `json:"buyerName"`
	BuyerAddress     string          `json:"buyerAddress"`
	Items            []QuotationItem `json:"items"`
	Subtotal         float64         `json:"subtotal"`
	GST              float64         `json:"gst"`
	TransportCharges float64         `json:"transportCharges"`
	Total            float64         `json:"total"`
	CreatedAt        int64           `json:"createdAt"`
	Date             string          `json:"date"`
}

// RecordID returns the quotation ID
func (q Quotation) RecordID() string {
	return q.ID
}

// CreatedTime returns CreatedAt as a time.Time
func (q Quotation) CreatedTime() time.Time {
	return time.UnixMilli(q.CreatedAt)
}

// QuotationItem represents a line item in a quotation
type QuotationItem struct {
	SNo      int     `json:"sno"`
	ItemName string  `json:"itemName"`
	Rate     float64 `json:"rate"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Amount   float64 `json:"amount"`
}

// QuotationDraft is a quotation as submitted by a client or read back from
// storage, before presence of every field has been checked.
type QuotationDraft struct {
	ID               *string               `json:"id"`
	BuyerName        *string               `json:"buyerName"`
	BuyerAddress     *string               `json:"buyerAddress"`
	Items            *[]QuotationItemDraft `json:"items"`
	Subtotal         *float64              `json:"subtotal"`
	GST              *float64              `json:"gst"`
	TransportCharges *float64              `json:"transportCharges"`
	Total            *float64              `json:"total"`
	CreatedAt        *WholeNumber          `json:"createdAt"`
	Date             *string               `json:"date"`
}

// QuotationItemDraft is the unchecked form of QuotationItem
type QuotationItemDraft struct {
	SNo      *WholeNumber `json:"sno"`
	ItemName *string      `json:"itemName"`
	Rate     *float64     `json:"rate"`
	Quantity *float64     `json:"quantity"`
	Unit     *string      `json:"unit"`
	Amount   *float64     `json:"amount"`
}

// Build fills a missing id, createdAt or date and runs the record validator.
// now supplies the default date.
func (d QuotationDraft) Build(id string, createdAt int64, now time.Time) (Quotation, error) {
	if d.ID == nil || strings.TrimSpace(*d.ID) == "" {
		d.ID = &id
	}
	if d.CreatedAt == nil {
		ms := WholeNumber(createdAt)
		d.CreatedAt = &ms
	}
	return d.complete(now)
}

// Replace builds the in-place replacement of existing. The id always stays
// existing.ID; createdAt and date are carried over when the draft omits them.
func (d QuotationDraft) Replace(existing Quotation, now time.Time) (Quotation, error) {
	d.ID = &existing.ID
	if d.CreatedAt == nil {
		ms := WholeNumber(existing.CreatedAt)
		d.CreatedAt = &ms
	}
	if d.Date == nil || strings.TrimSpace(*d.Date) == "" {
		d.Date = &existing.Date
	}
	return d.complete(now)
}

func (d QuotationDraft) complete(now time.Time) (Quotation, error) {
	if err := d.checkPresence(); err != nil {
		return Quotation{}, err
	}

	items := make([]QuotationItem, 0, len(*d.Items))
	for i, it := range *d.Items {
		item, err := it.complete(i)
		if err != nil {
			return Quotation{}, err
		}
		items = append(items, item)
	}

	date := ""
	if d.Date != nil {
		date = strings.TrimSpace(*d.Date)
	}
	if date == "" {
		date = now.Format(DateLayout)
	}

	q := Quotation{
		ID:               *d.ID,
		BuyerName:        *d.BuyerName,
		BuyerAddress:     *d.BuyerAddress,
		Items:            items,
		Subtotal:         *d.Subtotal,
		GST:              *d.GST,
		TransportCharges: *d.TransportCharges,
		Total:            *d.Total,
		CreatedAt:        int64(*d.CreatedAt),
		Date:             date,
	}
	if err := ValidateQuotation(q); err != nil {
		return Quotation{}, err
	}
	return q, nil
}

func (d QuotationDraft) checkPresence() error {
	switch {
	case d.BuyerName == nil:
		return apperror.NewMissingField("buyerName")
	case d.BuyerAddress == nil:
		return apperror.NewMissingField("buyerAddress")
	case d.Items == nil:
		return apperror.NewMissingField("items")
	case d.Subtotal == nil:
		return apperror.NewMissingField("subtotal")
	case d.GST == nil:
		return apperror.NewMissingField("gst")
	case d.TransportCharges == nil:
		return apperror.NewMissingField("transportCharges")
	case d.Total == nil:
		return apperror.NewMissingField("total")
	case d.ID == nil:
		return apperror.NewMissingField("id")
	case d.CreatedAt == nil:
		return apperror.NewMissingField("createdAt")
	}
	return nil
}

func (d QuotationItemDraft) complete(index int) (QuotationItem, error) {
	missing := func(field string) error {
		return apperror.NewMissingField(itemField(index, field))
	}
	switch {
	case d.SNo == nil:
		return QuotationItem{}, missing("sno")
	case d.ItemName == nil:
		return QuotationItem{}, missing("itemName")
	case d.Rate == nil:
		return QuotationItem{}, missing("rate")
	case d.Quantity == nil:
		return QuotationItem{}, missing("quantity")
	case d.Unit == nil:
		return QuotationItem{}, missing("unit")
	case d.Amount == nil:
		return QuotationItem{}, missing("amount")
	}
	return QuotationItem{
		SNo:      int(*d.SNo),
		ItemName: *d.ItemName,
		Rate:     *d.Rate,
		Quantity: *d.Quantity,
		Unit:     *d.Unit,
		Amount:   *d.Amount,
	}, nil
}

// ParseQuotationDraft decodes a JSON object into a draft. Type mismatches are
// reported as validation errors.
func ParseQuotationDraft(raw []byte) (QuotationDraft, error) {
	var d QuotationDraft
	if err := json.Unmarshal(raw, &d); err != nil {
		return QuotationDraft{}, invalidShape("quotation", raw, quotationShape)
	}
	return d, nil
}

// DecodeQuotation decodes and validates one stored quotation. A missing date
// is defaulted from now, like on creation.
func DecodeQuotation(raw []byte, now time.Time) (Quotation, error) {
	d, err := ParseQuotationDraft(raw)
	if err != nil {
		return Quotation{}, err
	}
	return d.complete(now)
}

func itemField(index int, field string) string {
	return fmt.Sprintf("items[%d].%s", index, field)
}
