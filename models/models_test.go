package models

import (
	// Go Internal Packages
	"encoding/json"
	"testing"

	// External Packages
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNewScoredTransactionThreshold(t *testing.T) {
	raw := RawTransaction{TransNum: "T1"}

	tests := []struct {
		name        string
		probability float64
		threshold   float64
		want        bool
	}{
		{name: "above", probability: 0.82, threshold: 0.5, want: true},
		{name: "below", probability: 0.10, threshold: 0.5, want: false},
		{name: "exactly at threshold", probability: 0.5, threshold: 0.5, want: true},
		{name: "zero threshold flags everything", probability: 0, threshold: 0, want: true},
		{name: "threshold one", probability: 0.9999, threshold: 1, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScoredTransaction(raw, tt.probability, tt.threshold, "xgb-rt")
			assert.Equal(t, tt.want, s.FraudFlag())
			assert.Equal(t, tt.probability, s.FraudProba)
			assert.Equal(t, "xgb-rt", s.ModelVersion)
		})
	}
}

func TestScoredTransactionJSONIncludesFlag(t *testing.T) {
	raw := RawTransaction{TransNum: "T1", Amount: decimal.NewNullDecimal(decimal.RequireFromString("42.50"))}
	s := NewScoredTransaction(raw, 0.82, 0.5, "xgb-rt")

	out, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "T1", decoded["trans_num"])
	assert.Equal(t, true, decoded["fraud_flag"])
	assert.Equal(t, 0.82, decoded["fraud_proba"])
	assert.Equal(t, "42.5", decoded["amt"])
}

func TestColumns(t *testing.T) {
	raw := RawTransaction{
		TransNum: "T1",
		Amount:   decimal.NewNullDecimal(decimal.RequireFromString("42.50")),
		Category: ptr("grocery_pos"),
		Zip:      ptr(int64(28611)),
		Lat:      ptr(36.0788),
		Extra:    map[string]any{"is_fraud": float64(0), ColTransNum: "ignored"},
	}

	cols := raw.Columns()
	assert.Equal(t, "T1", cols[ColTransNum])
	assert.Equal(t, 42.5, cols[ColAmount])
	assert.Equal(t, "grocery_pos", cols[ColCategory])
	assert.Equal(t, float64(28611), cols[ColZip])
	assert.Equal(t, 36.0788, cols[ColLat])
	assert.Equal(t, float64(0), cols["is_fraud"])
	assert.Nil(t, cols[ColMerchant])
	assert.Contains(t, cols, ColMerchant)
}
