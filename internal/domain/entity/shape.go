package entity

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/pipecenter/pipecenter-api/pkg/apperror"
)

// WholeNumber is an integer field that also accepts integral floats such as
// 1718452800000.0, as written by clients that store every number as a double.
type WholeNumber int64

// UnmarshalJSON accepts integer literals and floats without a fractional part
func (n *WholeNumber) UnmarshalJSON(raw []byte) error {
	s := string(bytes.TrimSpace(raw))
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*n = WholeNumber(v)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) >= 1<<63 {
		return &json.UnmarshalTypeError{Value: "non-integral value", Type: reflect.TypeOf(int64(0))}
	}
	*n = WholeNumber(f)
	return nil
}

const (
	wantString = "a string"
	wantNumber = "a number"
	wantWhole  = "a whole number"
	wantArray  = "an array"
)

// fieldShape is the JSON kind a record field must have. elem, when set, is
// the shape of each object in an array field.
type fieldShape struct {
	name string
	want string
	elem []fieldShape
}

var configurationShape = []fieldShape{
	{name: "id", want: wantString},
	{name: "name", want: wantString},
	{name: "firstDiscount", want: wantNumber},
	{name: "secondDiscount", want: wantNumber},
	{name: "margin", want: wantNumber},
	{name: "createdAt", want: wantWhole},
}

var quotationShape = []fieldShape{
	{name: "id", want: wantString},
	{name: "buyerName", want: wantString},
	{name: "buyerAddress", want: wantString},
	{name: "items", want: wantArray, elem: []fieldShape{
		{name: "sno", want: wantWhole},
		{name: "itemName", want: wantString},
		{name: "rate", want: wantNumber},
		{name: "quantity", want: wantNumber},
		{name: "unit", want: wantString},
		{name: "amount", want: wantNumber},
	}},
	{name: "subtotal", want: wantNumber},
	{name: "gst", want: wantNumber},
	{name: "transportCharges", want: wantNumber},
	{name: "total", want: wantNumber},
	{name: "createdAt", want: wantWhole},
	{name: "date", want: wantString},
}

// invalidShape explains a failed decode in terms of the first offending field.
// Decoder messages are never passed through.
func invalidShape(record string, raw []byte, shape []fieldShape) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return apperror.NewInvalidField(record, "must be a JSON object")
	}
	if err := checkShape(fields, "", shape); err != nil {
		return err
	}
	return apperror.NewInvalidField(record, "has a field of the wrong type")
}

func checkShape(fields map[string]json.RawMessage, prefix string, shape []fieldShape) error {
	for _, f := range shape {
		v, ok := fields[f.name]
		if !ok || isNull(v) {
			continue
		}
		name := prefix + f.name
		if !hasKind(v, f.want) {
			return apperror.NewInvalidField(name, "must be "+f.want)
		}
		if f.elem == nil {
			continue
		}
		var elems []json.RawMessage
		if err := json.Unmarshal(v, &elems); err != nil {
			return apperror.NewInvalidField(name, "must be "+f.want)
		}
		for i, e := range elems {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(e, &obj); err != nil {
				return apperror.NewInvalidField(fmt.Sprintf("%s[%d]", name, i), "must be an object")
			}
			if err := checkShape(obj, fmt.Sprintf("%s[%d].", name, i), f.elem); err != nil {
				return err
			}
		}
	}
	return nil
}

func isNull(v json.RawMessage) bool {
	return string(bytes.TrimSpace(v)) == "null"
}

func hasKind(v json.RawMessage, want string) bool {
	b := bytes.TrimSpace(v)
	if len(b) == 0 {
		return false
	}
	switch want {
	case wantString:
		return b[0] == '"'
	case wantArray:
		return b[0] == '['
	case wantNumber:
		return isNumber(b)
	case wantWhole:
		var n WholeNumber
		return isNumber(b) && n.UnmarshalJSON(b) == nil
	}
	return false
}

func isNumber(b []byte) bool {
	return b[0] == '-' || (b[0] >= '0' && b[0] <= '9')
}
