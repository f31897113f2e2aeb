package entity

import (
	"github.com/pipecenter/pipecenter-api/pkg/apperror"
)

// ValidateConfiguration checks that every percentage lies in [0,100]. Fields
// are checked in declaration order; the first violation is returned.
func ValidateConfiguration(c Configuration) error {
	percentages := []struct {
		field string
		value float64
	}{
		{"firstDiscount", c.FirstDiscount},
		{"secondDiscount", c.SecondDiscount},
		{"margin", c.Margin},
	}
	for _, p := range percentages {
		// NaN fails both comparisons, so test for the in-range case.
		if !(p.value >= 0 && p.value <= 100) {
			return apperror.NewFieldOutOfRange(p.field, p.value)
		}
	}
	return nil
}

// ValidateQuotation checks that no item rate, quantity or amount and no
// quotation total is negative.
func ValidateQuotation(q Quotation) error {
	for i, item := range q.Items {
		if err := nonNegative(itemField(i, "rate"), item.Rate); err != nil {
			return err
		}
		if err := nonNegative(itemField(i, "quantity"), item.Quantity); err != nil {
			return err
		}
		if err := nonNegative(itemField(i, "amount"), item.Amount); err != nil {
			return err
		}
	}

	totals := []struct {
		field string
		value float64
	}{
		{"subtotal", q.Subtotal},
		{"gst", q.GST},
		{"transportCharges", q.TransportCharges},
		{"total", q.Total},
	}
	for _, t := range totals {
		if err := nonNegative(t.field, t.value); err != nil {
			return err
		}
	}
	return nil
}

func nonNegative(field string, value float64) error {
	if !(value >= 0) {
		return apperror.NewNegativeValue(field, value)
	}
	return nil
}
