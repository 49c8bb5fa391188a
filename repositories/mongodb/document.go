package mongodb

import (
	// Go Internal Packages
	"fmt"
	"time"

	// Local Packages
	models "fraud-pipeline/models"

	// External Packages
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScoredFields are overwritten on every upsert.
type ScoredFields struct {
	EventTime    *int64                `bson:"event_time"`
	CCNum        *string               `bson:"cc_num"`
	Merchant     *string               `bson:"merchant"`
	Category     *string               `bson:"category"`
	Amount       *primitive.Decimal128 `bson:"amt"`
	First        *string               `bson:"first"`
	Last         *string               `bson:"last"`
	Gender       *string               `bson:"gender"`
	Street       *string               `bson:"street"`
	City         *string               `bson:"city"`
	State        *string               `bson:"state"`
	Zip          *int64                `bson:"zip"`
	Lat          *float64              `bson:"lat"`
	Long         *float64              `bson:"long"`
	CityPop      *int64                `bson:"city_pop"`
	Job          *string               `bson:"job"`
	DOB          *string               `bson:"dob"`
	MerchLat     *float64              `bson:"merch_lat"`
	MerchLong    *float64              `bson:"merch_long"`
	FraudProba   float64               `bson:"fraud_proba"`
	FraudFlag    bool                  `bson:"fraud_flag"`
	ModelVersion string                `bson:"model_version"`
}

type ScoredDocument struct {
	TransNum     string    `bson:"_id"`
	ScoredFields `bson:",inline"`
	IngestedAt   time.Time `bson:"ingested_at"`
}

// toFields maps a scored transaction to the fields written by an upsert.
func toFields(s models.ScoredTransaction) (ScoredFields, error) {
	f := ScoredFields{
		EventTime:    s.EventTime,
		CCNum:        s.CCNum,
		Merchant:     s.Merchant,
		Category:     s.Category,
		First:        s.First,
		Last:         s.Last,
		Gender:       s.Gender,
		Street:       s.Street,
		City:         s.City,
		State:        s.State,
		Zip:          s.Zip,
		Lat:          s.Lat,
		Long:         s.Long,
		CityPop:      s.CityPop,
		Job:          s.Job,
		DOB:          s.DOB,
		MerchLat:     s.MerchLat,
		MerchLong:    s.MerchLong,
		FraudProba:   s.FraudProba,
		FraudFlag:    s.FraudFlag(),
		ModelVersion: s.ModelVersion,
	}
	if s.Amount.Valid {
		amt, err := primitive.ParseDecimal128(s.Amount.Decimal.String())
		if err != nil {
			return ScoredFields{}, fmt.Errorf("convert amount %s: %w", s.Amount.Decimal, err)
		}
		f.Amount = &amt
	}
	return f, nil
}

// Transform converts a stored document back into the domain model.
func (d ScoredDocument) Transform() (models.ScoredTransaction, error) {
	raw := models.RawTransaction{
		TransNum:  d.TransNum,
		EventTime: d.EventTime,
		CCNum:     d.CCNum,
		Merchant:  d.Merchant,
		Category:  d.Category,
		First:     d.First,
		Last:      d.Last,
		Gender:    d.Gender,
		Street:    d.Street,
		City:      d.City,
		State:     d.State,
		Zip:       d.Zip,
		Lat:       d.Lat,
		Long:      d.Long,
		CityPop:   d.CityPop,
		Job:       d.Job,
		DOB:       d.DOB,
		MerchLat:  d.MerchLat,
		MerchLong: d.MerchLong,
	}
	if d.Amount != nil {
		amt, err := decimal.NewFromString(d.Amount.String())
		if err != nil {
			return models.ScoredTransaction{}, fmt.Errorf("parse amount %s: %w", d.Amount, err)
		}
		raw.Amount = decimal.NewNullDecimal(amt)
	}
	return models.RestoreScoredTransaction(raw, d.FraudProba, d.FraudFlag, d.ModelVersion, d.IngestedAt), nil
}
