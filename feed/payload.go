package feed

import (
	// Go Internal Packages
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	// Local Packages
	errors "fraud-pipeline/errors"
	models "fraud-pipeline/models"

	// External Packages
	"github.com/shopspring/decimal"
)

// DecodeTable parses a feed body into a table. The feed sometimes wraps the
// document in a JSON string; one level of wrapping is unwrapped here.
func DecodeTable(body []byte) (models.FeedTable, error) {
	var table models.FeedTable

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return table, errors.E(errors.MalformedPayload, "decode wrapped payload", err)
		}
		trimmed = bytes.TrimSpace([]byte(inner))
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&table); err != nil {
		return table, errors.E(errors.MalformedPayload, "decode table", err)
	}
	if dec.More() {
		return table, errors.E(errors.MalformedPayload, "unexpected data after table", nil)
	}
	if table.Columns == nil || table.Data == nil {
		return table, errors.E(errors.MalformedPayload, "payload has no columns/data", nil)
	}
	return table, nil
}

// FirstRow maps the first data row to a RawTransaction.
func FirstRow(table models.FeedTable) (models.RawTransaction, error) {
	if len(table.Data) == 0 {
		return models.RawTransaction{}, errors.E(errors.EmptyFeed, "feed returned zero rows", nil)
	}
	row := table.Data[0]
	if len(row) != len(table.Columns) {
		msg := fmt.Sprintf("row has %d values for %d columns", len(row), len(table.Columns))
		return models.RawTransaction{}, errors.E(errors.MalformedPayload, msg, nil)
	}

	values := make(map[string]any, len(row))
	for i, col := range table.Columns {
		values[col] = row[i]
	}
	return toRaw(values)
}

func toRaw(values map[string]any) (models.RawTransaction, error) {
	p := &rowParser{values: values}

	tx := models.RawTransaction{
		TransNum:  p.text(models.ColTransNum),
		EventTime: p.integer(models.ColEventTime),
		CCNum:     p.optText(models.ColCCNum),
		Merchant:  p.optText(models.ColMerchant),
		Category:  p.optText(models.ColCategory),
		Amount:    p.money(models.ColAmount),
		First:     p.optText(models.ColFirst),
		Last:      p.optText(models.ColLast),
		Gender:    p.optText(models.ColGender),
		Street:    p.optText(models.ColStreet),
		City:      p.optText(models.ColCity),
		State:     p.optText(models.ColState),
		Zip:       p.integer(models.ColZip),
		Lat:       p.number(models.ColLat),
		Long:      p.number(models.ColLong),
		CityPop:   p.integer(models.ColCityPop),
		Job:       p.optText(models.ColJob),
		DOB:       p.optText(models.ColDOB),
		MerchLat:  p.number(models.ColMerchLat),
		MerchLong: p.number(models.ColMerchLong),
	}
	if p.err != nil {
		return models.RawTransaction{}, p.err
	}
	if tx.TransNum == "" {
		return models.RawTransaction{}, errors.E(errors.MalformedPayload, "missing "+models.ColTransNum, nil)
	}

	for col, v := range values {
		if p.seen[col] {
			continue
		}
		if tx.Extra == nil {
			tx.Extra = make(map[string]any)
		}
		tx.Extra[col] = plain(v)
	}
	return tx, nil
}

// rowParser converts loosely typed JSON values and keeps the first error.
type rowParser struct {
	values map[string]any
	seen   map[string]bool
	err    error
}

func (p *rowParser) get(col string) (any, bool) {
	if p.seen == nil {
		p.seen = make(map[string]bool)
	}
	p.seen[col] = true
	v, ok := p.values[col]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (p *rowParser) fail(col string, v any) {
	if p.err == nil {
		msg := fmt.Sprintf("column %s has unexpected value %v (%T)", col, v, v)
		p.err = errors.E(errors.MalformedPayload, msg, nil)
	}
}

func (p *rowParser) text(col string) string {
	if s := p.optText(col); s != nil {
		return *s
	}
	return ""
}

func (p *rowParser) optText(col string) *string {
	v, ok := p.get(col)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case string:
		return &t
	case json.Number:
		s := t.String()
		return &s
	}
	p.fail(col, v)
	return nil
}

func (p *rowParser) number(col string) *float64 {
	v, ok := p.get(col)
	if !ok {
		return nil
	}
	var (
		f   float64
		err error
	)
	switch t := v.(type) {
	case json.Number:
		f, err = t.Float64()
	case string:
		f, err = strconv.ParseFloat(t, 64)
	default:
		p.fail(col, v)
		return nil
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		p.fail(col, v)
		return nil
	}
	return &f
}

func (p *rowParser) integer(col string) *int64 {
	v, ok := p.get(col)
	if !ok {
		return nil
	}
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = t
	default:
		p.fail(col, v)
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}
	// Tabular feeds serialize integer columns as floats (e.g. 1700000000.0).
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		p.fail(col, v)
		return nil
	}
	n := int64(f)
	return &n
}

func (p *rowParser) money(col string) decimal.NullDecimal {
	v, ok := p.get(col)
	if !ok {
		return decimal.NullDecimal{}
	}
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = t
	default:
		p.fail(col, v)
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		p.fail(col, v)
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// plain turns decoded JSON scalars into string, float64, bool or nil.
func plain(v any) any {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case string, bool, float64:
		return t
	case nil:
		return nil
	}
	return fmt.Sprint(v)
}
