package models

import (
	// Go Internal Packages
	"encoding/json"
	"time"
)

// ScoredTransaction is a RawTransaction together with its score. The fraud
// flag is derived from probability and threshold and cannot be set directly.
type ScoredTransaction struct {
	RawTransaction
	FraudProba   float64   `json:"fraud_proba"`
	ModelVersion string    `json:"model_version"`
	IngestedAt   time.Time `json:"ingested_at"`

	fraudFlag bool
}

// NewScoredTransaction scores raw; the flag is set when probability is at or
// above threshold.
func NewScoredTransaction(raw RawTransaction, probability, threshold float64, modelVersion string) ScoredTransaction {
	return ScoredTransaction{
		RawTransaction: raw,
		FraudProba:     probability,
		ModelVersion:   modelVersion,
		fraudFlag:      probability >= threshold,
	}
}

// RestoreScoredTransaction rebuilds a record read back from a store,
// keeping the flag exactly as it was persisted.
func RestoreScoredTransaction(raw RawTransaction, probability float64, flag bool, modelVersion string, ingestedAt time.Time) ScoredTransaction {
	return ScoredTransaction{
		RawTransaction: raw,
		FraudProba:     probability,
		ModelVersion:   modelVersion,
		IngestedAt:     ingestedAt,
		fraudFlag:      flag,
	}
}

func (s ScoredTransaction) FraudFlag() bool {
	return s.fraudFlag
}

func (s ScoredTransaction) MarshalJSON() ([]byte, error) {
	type plain ScoredTransaction
	return json.Marshal(struct {
		plain
		FraudFlag bool `json:"fraud_flag"`
	}{plain(s), s.fraudFlag})
}
