package mongodb

import (
	// Go Internal Packages
	"testing"
	"time"

	// Local Packages
	models "fraud-pipeline/models"

	// External Packages
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func ptr[T any](v T) *T { return &v }

func TestDocumentRoundTrip(t *testing.T) {
	raw := models.RawTransaction{
		TransNum: "T1",
		Amount:   decimal.NewNullDecimal(decimal.RequireFromString("42.50")),
		Merchant: ptr("fraud_Kirlin and Sons"),
		Zip:      ptr(int64(29209)),
		Lat:      ptr(33.9659),
	}
	scored := models.NewScoredTransaction(raw, 0.82, 0.5, "xgb-rt")

	fields, err := toFields(scored)
	require.NoError(t, err)
	assert.True(t, fields.FraudFlag)
	require.NotNil(t, fields.Amount)
	assert.Equal(t, "42.5", fields.Amount.String())

	ingested := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := bson.Marshal(ScoredDocument{TransNum: "T1", ScoredFields: fields, IngestedAt: ingested})
	require.NoError(t, err)

	var doc ScoredDocument
	require.NoError(t, bson.Unmarshal(data, &doc))
	back, err := doc.Transform()
	require.NoError(t, err)

	assert.Equal(t, "T1", back.TransNum)
	assert.True(t, back.Amount.Decimal.Equal(decimal.RequireFromString("42.5")))
	assert.Equal(t, "fraud_Kirlin and Sons", *back.Merchant)
	assert.Equal(t, int64(29209), *back.Zip)
	assert.Nil(t, back.Street)
	assert.Equal(t, 0.82, back.FraudProba)
	assert.True(t, back.FraudFlag())
	assert.Equal(t, ingested, back.IngestedAt.UTC())
}

func TestFieldsWriteNullsForAbsentValues(t *testing.T) {
	fields, err := toFields(models.NewScoredTransaction(models.RawTransaction{TransNum: "T2"}, 0.1, 0.5, "xgb-rt"))
	require.NoError(t, err)

	data, err := bson.Marshal(fields)
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(data, &m))
	assert.Contains(t, m, "amt")
	assert.Nil(t, m["amt"])
	assert.Contains(t, m, "merchant")
	assert.Equal(t, false, m["fraud_flag"])
	assert.NotContains(t, m, "_id")
	assert.NotContains(t, m, "ingested_at")
}
