package entity

import (
	"math"
	"testing"
	"time"

	"github.com/pipecenter/pipecenter-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func ptr[T any](v T) *T { return &v }

func validConfigDraft() ConfigurationDraft {
	return ConfigurationDraft{
		Name:           ptr("Standard"),
		FirstDiscount:  ptr(10.0),
		SecondDiscount: ptr(5.0),
		Margin:         ptr(15.0),
	}
}

func validQuotationDraft() QuotationDraft {
	return QuotationDraft{
		BuyerName:    ptr("Acme Traders"),
		BuyerAddress: ptr("12 Market Road"),
		Items: &[]QuotationItemDraft{{
			SNo:      ptr(WholeNumber(1)),
			ItemName: ptr("PVC Pipe 1in"),
			Rate:     ptr(120.0),
			Quantity: ptr(10.0),
			Unit:     ptr("pcs"),
			Amount:   ptr(1200.0),
		}},
		Subtotal:         ptr(1200.0),
		GST:              ptr(216.0),
		TransportCharges: ptr(50.0),
		Total:            ptr(1466.0),
	}
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	appErr := apperror.GetAppError(err)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Equal(t, field, appErr.Field)
	assert.Equal(t, 400, appErr.Code)
}

func TestConfigurationBuildAssignsIDAndCreatedAt(t *testing.T) {
	cfg, err := validConfigDraft().Build("1700000000000", 1700000000000)
	require.NoError(t, err)
	assert.Equal(t, "1700000000000", cfg.ID)
	assert.Equal(t, int64(1700000000000), cfg.CreatedAt)
	assert.Equal(t, "Standard", cfg.Name)
}

func TestConfigurationBuildKeepsGivenID(t *testing.T) {
	d := validConfigDraft()
	d.ID = ptr("custom")
	d.CreatedAt = ptr(WholeNumber(42))

	cfg, err := d.Build("generated", 99)
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.ID)
	assert.Equal(t, int64(42), cfg.CreatedAt)
}

func TestConfigurationBuildBlankIDIsReplaced(t *testing.T) {
	d := validConfigDraft()
	d.ID = ptr("  ")

	cfg, err := d.Build("generated", 99)
	require.NoError(t, err)
	assert.Equal(t, "generated", cfg.ID)
}

func TestConfigurationMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		clear func(*ConfigurationDraft)
		field string
	}{
		{"name", func(d *ConfigurationDraft) { d.Name = nil }, "name"},
		{"firstDiscount", func(d *ConfigurationDraft) { d.FirstDiscount = nil }, "firstDiscount"},
		{"secondDiscount", func(d *ConfigurationDraft) { d.SecondDiscount = nil }, "secondDiscount"},
		{"margin", func(d *ConfigurationDraft) { d.Margin = nil }, "margin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validConfigDraft()
			tt.clear(&d)
			_, err := d.Build("1", 1)
			requireValidation(t, err, tt.field)
			assert.Equal(t, "Missing required field: "+tt.field, err.Error())
		})
	}
}

func TestConfigurationEmptyDraftReportsNameFirst(t *testing.T) {
	_, err := ConfigurationDraft{}.Build("1", 1)
	requireValidation(t, err, "name")
}

func TestValidateConfigurationRange(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Configuration
		field string
	}{
		{"first discount above", Configuration{FirstDiscount: 100.5}, "firstDiscount"},
		{"second discount below", Configuration{SecondDiscount: -1}, "secondDiscount"},
		{"margin above", Configuration{Margin: 101}, "margin"},
		{"nan", Configuration{Margin: math.NaN()}, "margin"},
		{"first violation wins", Configuration{FirstDiscount: -1, Margin: 200}, "firstDiscount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireValidation(t, ValidateConfiguration(tt.cfg), tt.field)
		})
	}

	assert.NoError(t, ValidateConfiguration(Configuration{FirstDiscount: 0, SecondDiscount: 100, Margin: 50}))
}

func TestValidateConfigurationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := Configuration{
			FirstDiscount:  rapid.Float64Range(0, 100).Draw(t, "first"),
			SecondDiscount: rapid.Float64Range(0, 100).Draw(t, "second"),
			Margin:         rapid.Float64Range(0, 100).Draw(t, "margin"),
		}
		if err := ValidateConfiguration(cfg); err != nil {
			t.Fatalf("in-range configuration rejected: %v", err)
		}

		field := rapid.SampledFrom([]string{"firstDiscount", "secondDiscount", "margin"}).Draw(t, "field")
		bad := rapid.OneOf(
			rapid.Float64Range(-1e9, -1e-9),
			rapid.Float64Range(100.000001, 1e9),
		).Draw(t, "bad")
		switch field {
		case "firstDiscount":
			cfg.FirstDiscount = bad
		case "secondDiscount":
			cfg.SecondDiscount = bad
		case "margin":
			cfg.Margin = bad
		}
		err := ValidateConfiguration(cfg)
		if err == nil {
			t.Fatalf("%s=%g accepted", field, bad)
		}
		if got := apperror.GetAppError(err).Field; got != field {
			t.Fatalf("expected field %s, got %s", field, got)
		}
	})
}

func TestQuotationBuildDefaultsDate(t *testing.T) {
	now := time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)
	q, err := validQuotationDraft().Build("1", now.UnixMilli(), now)
	require.NoError(t, err)
	assert.Equal(t, "07/03/2024", q.Date)
	assert.Equal(t, "1", q.ID)
	require.Len(t, q.Items, 1)
	assert.Equal(t, "pcs", q.Items[0].Unit)
}

func TestQuotationBuildKeepsGivenDate(t *testing.T) {
	d := validQuotationDraft()
	d.Date = ptr("01/01/2024")
	q, err := d.Build("1", 1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "01/01/2024", q.Date)
}

func TestQuotationNegativeValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*QuotationDraft)
		field  string
	}{
		{"rate", func(d *QuotationDraft) { (*d.Items)[0].Rate = ptr(-1.0) }, "items[0].rate"},
		{"quantity", func(d *QuotationDraft) { (*d.Items)[0].Quantity = ptr(-0.5) }, "items[0].quantity"},
		{"amount", func(d *QuotationDraft) { (*d.Items)[0].Amount = ptr(-10.0) }, "items[0].amount"},
		{"subtotal", func(d *QuotationDraft) { d.Subtotal = ptr(-1.0) }, "subtotal"},
		{"gst", func(d *QuotationDraft) { d.GST = ptr(-1.0) }, "gst"},
		{"transportCharges", func(d *QuotationDraft) { d.TransportCharges = ptr(-1.0) }, "transportCharges"},
		{"total", func(d *QuotationDraft) { d.Total = ptr(-1.0) }, "total"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validQuotationDraft()
			tt.mutate(&d)
			_, err := d.Build("1", 1, time.Now())
			requireValidation(t, err, tt.field)
		})
	}
}

func TestQuotationMissingItemField(t *testing.T) {
	d := validQuotationDraft()
	items := append(*d.Items, QuotationItemDraft{
		SNo:      ptr(WholeNumber(2)),
		ItemName: ptr("Elbow"),
		Rate:     ptr(5.0),
		Quantity: ptr(2.0),
		Amount:   ptr(10.0),
	})
	d.Items = &items

	_, err := d.Build("1", 1, time.Now())
	requireValidation(t, err, "items[1].unit")
}

func TestQuotationReplaceKeepsIdentity(t *testing.T) {
	existing := Quotation{ID: "42", CreatedAt: 1000, Date: "05/05/2024"}
	d := validQuotationDraft()
	d.ID = ptr("other")

	q, err := d.Replace(existing, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "42", q.ID)
	assert.Equal(t, int64(1000), q.CreatedAt)
	assert.Equal(t, "05/05/2024", q.Date)
}

func TestParseDraftWrongType(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		parse func([]byte) error
		field string
		msg   string
	}{
		{
			name:  "configuration number as string",
			raw:   `{"name":"x","firstDiscount":"ten"}`,
			parse: func(b []byte) error { _, err := ParseConfigurationDraft(b); return err },
			field: "firstDiscount",
			msg:   "Validation error: firstDiscount must be a number",
		},
		{
			name:  "configuration fractional createdAt",
			raw:   `{"name":"x","createdAt":1718452800000.5}`,
			parse: func(b []byte) error { _, err := ParseConfigurationDraft(b); return err },
			field: "createdAt",
			msg:   "Validation error: createdAt must be a whole number",
		},
		{
			name:  "configuration not an object",
			raw:   `[1,2]`,
			parse: func(b []byte) error { _, err := ParseConfigurationDraft(b); return err },
			field: "configuration",
			msg:   "Validation error: configuration must be a JSON object",
		},
		{
			name:  "quotation items not an array",
			raw:   `{"items":"none"}`,
			parse: func(b []byte) error { _, err := ParseQuotationDraft(b); return err },
			field: "items",
			msg:   "Validation error: items must be an array",
		},
		{
			name:  "quotation item field",
			raw:   `{"buyerName":"a","items":[{"sno":1},{"sno":2,"rate":"cheap"}]}`,
			parse: func(b []byte) error { _, err := ParseQuotationDraft(b); return err },
			field: "items[1].rate",
			msg:   "Validation error: items[1].rate must be a number",
		},
		{
			name:  "quotation item not an object",
			raw:   `{"items":[7]}`,
			parse: func(b []byte) error { _, err := ParseQuotationDraft(b); return err },
			field: "items[0]",
			msg:   "Validation error: items[0] must be an object",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parse([]byte(tt.raw))
			requireValidation(t, err, tt.field)
			assert.Equal(t, tt.msg, err.Error())
			assert.NotContains(t, err.Error(), "expected")
			assert.NotContains(t, err.Error(), "JSON input")
		})
	}
}

func TestIntegralFloatsAreWholeNumbers(t *testing.T) {
	raw := []byte(`{"id":"7","buyerName":"Acme","buyerAddress":"Road",
		"items":[{"sno":1.0,"itemName":"Pipe","rate":1,"quantity":1,"unit":"m","amount":1}],
		"subtotal":1,"gst":0,"transportCharges":0,"total":1,
		"createdAt":1718452800000.0,"date":"15/06/2024"}`)

	q, err := DecodeQuotation(raw, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1718452800000), q.CreatedAt)
	assert.Equal(t, 1, q.Items[0].SNo)

	cfg, err := DecodeConfiguration([]byte(`{"id":"1","name":"x","firstDiscount":1,"secondDiscount":2,"margin":3,"createdAt":1.7184528e12}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1718452800000), cfg.CreatedAt)
}

func TestWholeNumberRejectsFractions(t *testing.T) {
	for _, raw := range []string{`1.5`, `"12"`, `true`, `1e300`} {
		var n WholeNumber
		assert.Error(t, n.UnmarshalJSON([]byte(raw)), raw)
	}
	var n WholeNumber
	require.NoError(t, n.UnmarshalJSON([]byte(`-3.0`)))
	assert.Equal(t, WholeNumber(-3), n)
}

func TestDecodeConfigurationRequiresStoredFields(t *testing.T) {
	_, err := DecodeConfiguration([]byte(`{"name":"x","firstDiscount":1,"secondDiscount":2,"margin":3,"createdAt":1}`))
	requireValidation(t, err, "id")

	cfg, err := DecodeConfiguration([]byte(`{"id":"1","name":"x","firstDiscount":1,"secondDiscount":2,"margin":3,"createdAt":1}`))
	require.NoError(t, err)
	assert.Equal(t, "x", cfg.Name)
}

func TestQuotationNegativeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := validQuotationDraft()
		neg := rapid.Float64Range(-1e9, -1e-9).Draw(t, "neg")
		switch rapid.IntRange(0, 2).Draw(t, "which") {
		case 0:
			(*d.Items)[0].Rate = &neg
		case 1:
			(*d.Items)[0].Quantity = &neg
		default:
			(*d.Items)[0].Amount = &neg
		}
		_, err := d.Build("1", 1, time.Now())
		if !apperror.IsKind(err, apperror.KindValidation) {
			t.Fatalf("negative item value accepted: %v", err)
		}
	})
}
