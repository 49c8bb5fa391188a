package models

import (
	// External Packages
	"github.com/shopspring/decimal"
)

// Column names as they appear in the upstream feed and in the store.
const (
	ColTransNum  = "trans_num"
	ColEventTime = "current_time"
	ColCCNum     = "cc_num"
	ColMerchant  = "merchant"
	ColCategory  = "category"
	ColAmount    = "amt"
	ColFirst     = "first"
	ColLast      = "last"
	ColGender    = "gender"
	ColStreet    = "street"
	ColCity      = "city"
	ColState     = "state"
	ColZip       = "zip"
	ColLat       = "lat"
	ColLong      = "long"
	ColCityPop   = "city_pop"
	ColJob       = "job"
	ColDOB       = "dob"
	ColMerchLat  = "merch_lat"
	ColMerchLong = "merch_long"
)

// RawTransaction is one payment event as observed on the upstream feed.
// Nil pointers are columns the feed did not carry or carried as null.
type RawTransaction struct {
	TransNum  string              `json:"trans_num"`
	EventTime *int64              `json:"current_time,omitempty"`
	CCNum     *string             `json:"cc_num,omitempty"`
	Merchant  *string             `json:"merchant,omitempty"`
	Category  *string             `json:"category,omitempty"`
	Amount    decimal.NullDecimal `json:"amt"`
	First     *string             `json:"first,omitempty"`
	Last      *string             `json:"last,omitempty"`
	Gender    *string             `json:"gender,omitempty"`
	Street    *string             `json:"street,omitempty"`
	City      *string             `json:"city,omitempty"`
	State     *string             `json:"state,omitempty"`
	Zip       *int64              `json:"zip,omitempty"`
	Lat       *float64            `json:"lat,omitempty"`
	Long      *float64            `json:"long,omitempty"`
	CityPop   *int64              `json:"city_pop,omitempty"`
	Job       *string             `json:"job,omitempty"`
	DOB       *string             `json:"dob,omitempty"`
	MerchLat  *float64            `json:"merch_lat,omitempty"`
	MerchLong *float64            `json:"merch_long,omitempty"`

	// Extra holds feed columns that are not persisted (label, alternate
	// timestamps, ...). Values are string, float64, bool or nil.
	Extra map[string]any `json:"-"`
}

// Columns returns the full row keyed by column name. Text columns map to
// string, numeric columns to float64 and absent values to nil.
func (t RawTransaction) Columns() map[string]any {
	cols := make(map[string]any, 20+len(t.Extra))
	for k, v := range t.Extra {
		cols[k] = v
	}

	cols[ColTransNum] = t.TransNum
	cols[ColEventTime] = intCol(t.EventTime)
	cols[ColCCNum] = strCol(t.CCNum)
	cols[ColMerchant] = strCol(t.Merchant)
	cols[ColCategory] = strCol(t.Category)
	cols[ColFirst] = strCol(t.First)
	cols[ColLast] = strCol(t.Last)
	cols[ColGender] = strCol(t.Gender)
	cols[ColStreet] = strCol(t.Street)
	cols[ColCity] = strCol(t.City)
	cols[ColState] = strCol(t.State)
	cols[ColZip] = intCol(t.Zip)
	cols[ColLat] = floatCol(t.Lat)
	cols[ColLong] = floatCol(t.Long)
	cols[ColCityPop] = intCol(t.CityPop)
	cols[ColJob] = strCol(t.Job)
	cols[ColDOB] = strCol(t.DOB)
	cols[ColMerchLat] = floatCol(t.MerchLat)
	cols[ColMerchLong] = floatCol(t.MerchLong)

	if t.Amount.Valid {
		cols[ColAmount] = t.Amount.Decimal.InexactFloat64()
	} else {
		cols[ColAmount] = nil
	}
	return cols
}

func strCol(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func intCol(v *int64) any {
	if v == nil {
		return nil
	}
	return float64(*v)
}

func floatCol(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
