package features

import (
	// Go Internal Packages
	"fmt"
	"strconv"

	// Local Packages
	errors "fraud-pipeline/errors"
	models "fraud-pipeline/models"

	// External Packages
	"github.com/cespare/xxhash/v2"
)

// droppedColumns never reach the transformers: the label, timestamps only
// used for derived features, and identity fields.
var droppedColumns = []string{
	"is_fraud",
	models.ColEventTime,
	"trans_date_trans_time",
	"unix_time",
	models.ColFirst,
	models.ColLast,
	models.ColStreet,
	models.ColCity,
	models.ColDOB,
	models.ColTransNum,
	models.ColCCNum,
}

// Encoder applies one loaded artifact for the lifetime of the process.
type Encoder struct {
	artifact *Artifact
}

func NewEncoder(artifact *Artifact) *Encoder {
	return &Encoder{artifact: artifact}
}

func (e *Encoder) Encode(raw models.RawTransaction) (models.FeatureVector, error) {
	return Encode(raw, e.artifact)
}

// Encode turns raw into the model input described by artifact. It is a pure
// function of its arguments.
func Encode(raw models.RawTransaction, artifact *Artifact) (models.FeatureVector, error) {
	if artifact == nil {
		return models.FeatureVector{}, errors.E(errors.ArtifactLoadError, "no artifact loaded", nil)
	}
	if err := artifact.Validate(); err != nil {
		return models.FeatureVector{}, errors.E(errors.ArtifactLoadError, "artifact "+artifact.Version, err)
	}

	cols := raw.Columns()
	for _, c := range droppedColumns {
		delete(cols, c)
	}
	if g, ok := cols[models.ColGender]; ok {
		cols[models.ColGender] = recodeGender(g)
	}

	out := make([]float64, 0, artifact.OutputLength)
	for _, t := range artifact.Transformers {
		var err error
		switch t.Kind {
		case KindOneHot:
			out, err = oneHot(t, cols, artifact.Fill, out)
		case KindHashing:
			out, err = hashing(t, cols, artifact.Fill, out)
		case KindPassthrough:
			out, err = passthrough(t, cols, artifact.Fill, out)
		default:
			err = errors.E(errors.ArtifactLoadError, fmt.Sprintf("transformer %s has unknown kind %q", t.Name, t.Kind), nil)
		}
		if err != nil {
			return models.FeatureVector{}, err
		}
	}

	if len(out) != artifact.OutputLength {
		msg := fmt.Sprintf("encoded %d features, artifact %s declares %d", len(out), artifact.Version, artifact.OutputLength)
		return models.FeatureVector{}, errors.E(errors.EncodingSchemaMismatch, msg, nil)
	}
	return models.FeatureVector{Values: out, ArtifactVersion: artifact.Version}, nil
}

func recodeGender(v any) any {
	switch v {
	case "M":
		return 0.0
	case "F":
		return 1.0
	}
	return nil
}

// lookup returns the column value, falling back to the fitted fill value.
func lookup(cols map[string]any, fill map[string]Fill, col string) (any, error) {
	if v, ok := cols[col]; ok && v != nil {
		return v, nil
	}
	if f, ok := fill[col]; ok {
		if f.Number != nil {
			return *f.Number, nil
		}
		if f.Text != nil {
			return *f.Text, nil
		}
	}
	return nil, errors.E(errors.EncodingSchemaMismatch, "column "+col+" is missing and has no fill value", nil)
}

func asText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

func asNumber(col string, v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f, nil
		}
	}
	return 0, errors.E(errors.EncodingSchemaMismatch, fmt.Sprintf("column %s is not numeric: %v", col, v), nil)
}

func oneHot(t Transformer, cols map[string]any, fill map[string]Fill, out []float64) ([]float64, error) {
	for i, col := range t.Columns {
		v, err := lookup(cols, fill, col)
		if err != nil {
			return nil, err
		}
		s := asText(v)
		// Unknown categories encode as all zeros.
		for _, cat := range t.Categories[i] {
			if cat == s {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}
	return out, nil
}

func hashing(t Transformer, cols map[string]any, fill map[string]Fill, out []float64) ([]float64, error) {
	buckets := make([]float64, t.NFeatures)
	n := uint64(t.NFeatures)
	for _, col := range t.Columns {
		v, err := lookup(cols, fill, col)
		if err != nil {
			return nil, err
		}
		h := xxhash.Sum64String(asText(v))
		sign := 1.0
		if h>>63 == 1 {
			sign = -1.0
		}
		buckets[h%n] += sign
	}
	return append(out, buckets...), nil
}

func passthrough(t Transformer, cols map[string]any, fill map[string]Fill, out []float64) ([]float64, error) {
	for _, col := range t.Columns {
		v, err := lookup(cols, fill, col)
		if err != nil {
			return nil, err
		}
		f, err := asNumber(col, v)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
