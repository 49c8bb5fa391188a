package features

import (
	// Go Internal Packages
	"fmt"
	"maps"
	"os"
	"slices"

	// Local Packages
	errors "fraud-pipeline/errors"

	// External Packages
	"go.mongodb.org/mongo-driver/bson"
)

// ArtifactFormat identifies the serialized layout this package understands.
const ArtifactFormat = "fraud-encoder/v1"

// Transformer kinds.
const (
	KindOneHot      = "onehot"
	KindHashing     = "hashing"
	KindPassthrough = "passthrough"
)

// Artifact is a fitted column transformer exported by the training job.
// Once loaded it is never mutated.
type Artifact struct {
	Format       string          `bson:"format"`
	Version      string          `bson:"version"`
	OutputLength int             `bson:"output_length"`
	Fill         map[string]Fill `bson:"fill,omitempty"`
	Transformers []Transformer   `bson:"transformers"`
}

// Fill is the imputation value fitted for a column. Exactly one of Number
// and Text is set.
type Fill struct {
	Number *float64 `bson:"number,omitempty"`
	Text   *string  `bson:"text,omitempty"`
}

// Transformer maps a group of input columns to a contiguous slice of the
// output vector.
type Transformer struct {
	Name    string   `bson:"name"`
	Kind    string   `bson:"kind"`
	Columns []string `bson:"columns"`

	// onehot: fitted categories, one list per column.
	Categories [][]string `bson:"categories,omitempty"`

	// hashing: number of buckets shared by all columns.
	NFeatures int `bson:"n_features,omitempty"`
}

// Width is the number of output values the transformer produces.
func (t Transformer) Width() int {
	switch t.Kind {
	case KindOneHot:
		n := 0
		for _, cats := range t.Categories {
			n += len(cats)
		}
		return n
	case KindHashing:
		return t.NFeatures
	case KindPassthrough:
		return len(t.Columns)
	}
	return 0
}

// InputColumns lists every column the artifact reads, in transformer order.
func (a *Artifact) InputColumns() []string {
	var cols []string
	for _, t := range a.Transformers {
		cols = append(cols, t.Columns...)
	}
	return cols
}

// Validate checks the artifact is internally consistent.
func (a *Artifact) Validate() error {
	ve := errors.ValidationErrs()

	if a.Format != ArtifactFormat {
		ve.Add("format", fmt.Sprintf("must be %q, got %q", ArtifactFormat, a.Format))
	}
	if a.Version == "" {
		ve.Add("version", "cannot be empty")
	}
	if len(a.Transformers) == 0 {
		ve.Add("transformers", "cannot be empty")
	}

	width := 0
	for i, t := range a.Transformers {
		field := fmt.Sprintf("transformers[%d]", i)
		if len(t.Columns) == 0 {
			ve.Add(field+".columns", "cannot be empty")
		}
		switch t.Kind {
		case KindOneHot:
			if len(t.Categories) != len(t.Columns) {
				ve.Add(field+".categories", "must have one list per column")
			}
		case KindHashing:
			if t.NFeatures <= 0 {
				ve.Add(field+".n_features", "must be positive")
			}
		case KindPassthrough:
		default:
			ve.Add(field+".kind", fmt.Sprintf("unknown kind %q", t.Kind))
		}
		width += t.Width()
	}
	for _, col := range slices.Sorted(maps.Keys(a.Fill)) {
		if f := a.Fill[col]; (f.Number == nil) == (f.Text == nil) {
			ve.Add("fill."+col, "must set exactly one of number/text")
		}
	}
	if width != a.OutputLength {
		ve.Add("output_length", fmt.Sprintf("is %d but transformers produce %d", a.OutputLength, width))
	}

	return ve.Err()
}

// DecodeArtifact parses a serialized artifact.
func DecodeArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := bson.Unmarshal(data, &a); err != nil {
		return nil, errors.E(errors.ArtifactLoadError, "decode artifact", err)
	}
	if err := a.Validate(); err != nil {
		return nil, errors.E(errors.ArtifactLoadError, "artifact "+a.Version, err)
	}
	return &a, nil
}

// LoadArtifact reads and decodes the artifact at path.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.E(errors.ArtifactLoadError, "read "+path, err)
	}
	return DecodeArtifact(data)
}

// EncodeArtifact serializes a. Used by tooling and tests.
func EncodeArtifact(a *Artifact) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return bson.Marshal(a)
}
