package models

import (
	// Go Internal Packages
	"encoding/json"
)

// FeedTable is the tabular payload served by the upstream feed.
type FeedTable struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

// FeatureVector is the encoded model input for one transaction.
type FeatureVector struct {
	Values          []float64
	ArtifactVersion string
}

func (v FeatureVector) Len() int {
	return len(v.Values)
}

// Score is what the scoring endpoint returned for a vector.
type Score struct {
	Probability  float64
	ModelVersion string
}

// Notification is handed to an alert channel.
type Notification struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	TransNum  string `json:"trans_num"`
}

func (n Notification) JSON() ([]byte, error) {
	return json.Marshal(n)
}
