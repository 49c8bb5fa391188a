package feed

import (
	// Go Internal Packages
	"encoding/json"
	"testing"

	// Local Packages
	errors "fraud-pipeline/errors"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tablePayload = `{"columns":["trans_num","current_time","cc_num","merchant","category","amt","first","gender","zip","lat","city_pop","job","is_fraud"],` +
	`"data":[["T1",1700000000,2291163933867244,"fraud_Kirlin and Sons","personal_care",42.50,"Jeff","M",29209,33.9659,333497,"Mechanical engineer",0]]}`

func TestDecodeTableDoubleEncoded(t *testing.T) {
	wrapped, err := json.Marshal(tablePayload)
	require.NoError(t, err)

	direct, err := DecodeTable([]byte(tablePayload))
	require.NoError(t, err)
	unwrapped, err := DecodeTable(wrapped)
	require.NoError(t, err)

	assert.Equal(t, direct, unwrapped)
	assert.Len(t, unwrapped.Columns, 13)
	assert.Len(t, unwrapped.Data, 1)
}

func TestFirstRow(t *testing.T) {
	table, err := DecodeTable([]byte(tablePayload))
	require.NoError(t, err)

	tx, err := FirstRow(table)
	require.NoError(t, err)

	assert.Equal(t, "T1", tx.TransNum)
	require.NotNil(t, tx.EventTime)
	assert.Equal(t, int64(1700000000), *tx.EventTime)
	require.NotNil(t, tx.CCNum)
	assert.Equal(t, "2291163933867244", *tx.CCNum)
	assert.True(t, tx.Amount.Valid)
	assert.Equal(t, "42.5", tx.Amount.Decimal.String())
	assert.Equal(t, "M", *tx.Gender)
	assert.Equal(t, int64(29209), *tx.Zip)
	assert.Equal(t, 33.9659, *tx.Lat)
	assert.Equal(t, int64(333497), *tx.CityPop)
	assert.Nil(t, tx.Street)
	assert.Equal(t, map[string]any{"is_fraud": float64(0)}, tx.Extra)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind errors.Kind
	}{
		{name: "not json", body: `<html>oops</html>`, kind: errors.MalformedPayload},
		{name: "wrapped garbage", body: `"not a table"`, kind: errors.MalformedPayload},
		{name: "missing data", body: `{"columns":["trans_num"]}`, kind: errors.MalformedPayload},
		{name: "missing columns", body: `{"data":[["T1"]]}`, kind: errors.MalformedPayload},
		{name: "empty data", body: `{"columns":["trans_num","amt"],"data":[]}`, kind: errors.EmptyFeed},
		{name: "row width mismatch", body: `{"columns":["trans_num","amt"],"data":[["T1"]]}`, kind: errors.MalformedPayload},
		{name: "missing trans_num", body: `{"columns":["amt"],"data":[[1.5]]}`, kind: errors.MalformedPayload},
		{name: "empty trans_num", body: `{"columns":["trans_num"],"data":[[""]]}`, kind: errors.MalformedPayload},
		{name: "null trans_num", body: `{"columns":["trans_num"],"data":[[null]]}`, kind: errors.MalformedPayload},
		{name: "non numeric amount", body: `{"columns":["trans_num","amt"],"data":[["T1","lots"]]}`, kind: errors.MalformedPayload},
		{name: "fractional zip", body: `{"columns":["trans_num","zip"],"data":[["T1",123.4]]}`, kind: errors.MalformedPayload},
		{name: "nan latitude", body: `{"columns":["trans_num","lat"],"data":[["T1","NaN"]]}`, kind: errors.MalformedPayload},
		{name: "infinite longitude", body: `{"columns":["trans_num","long"],"data":[["T1","+Infinity"]]}`, kind: errors.MalformedPayload},
		{name: "trailing data", body: `{"columns":["trans_num"],"data":[["T1"]]} trailing-garbage`, kind: errors.MalformedPayload},
		{name: "second document", body: `{"columns":["trans_num"],"data":[["T1"]]}{"columns":[],"data":[]}`, kind: errors.MalformedPayload},
		{name: "object merchant", body: `{"columns":["trans_num","merchant"],"data":[["T1",{"a":1}]]}`, kind: errors.MalformedPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := DecodeTable([]byte(tt.body))
			if err == nil {
				_, err = FirstRow(table)
			}
			require.Error(t, err)
			assert.Equal(t, tt.kind, errors.KindOf(err), err.Error())
		})
	}
}

func TestFirstRowIntegerAsFloat(t *testing.T) {
	table, err := DecodeTable([]byte(`{"columns":["trans_num","current_time","amt"],"data":[["T9",1700000000.0,null]]}`))
	require.NoError(t, err)

	tx, err := FirstRow(table)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), *tx.EventTime)
	assert.False(t, tx.Amount.Valid)
}

func TestFirstRowNumericTransNum(t *testing.T) {
	table, err := DecodeTable([]byte(`{"columns":["trans_num"],"data":[[123456789012345678]]}`))
	require.NoError(t, err)

	tx, err := FirstRow(table)
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678", tx.TransNum)
}
