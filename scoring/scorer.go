package scoring

import (
	// Go Internal Packages
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	// Local Packages
	errors "fraud-pipeline/errors"
	models "fraud-pipeline/models"
	utils "fraud-pipeline/utils"

	// External Packages
	"go.uber.org/zap"
)

// ContentType is the request format scoring endpoints accept.
const ContentType = "text/csv"

// EndpointRef identifies the deployed model.
type EndpointRef struct {
	Name         string
	Region       string
	URL          string
	ModelVersion string

	// Features is the vector length the model was trained on. Zero skips
	// the check.
	Features int
}

// Invoker performs one synchronous request against a scoring endpoint and
// returns the raw response body.
type Invoker interface {
	Invoke(ctx context.Context, contentType string, body []byte) ([]byte, error)
}

type Scorer struct {
	endpoint EndpointRef
	invoker  Invoker
	logger   *zap.Logger
}

func NewScorer(endpoint EndpointRef, invoker Invoker, logger *zap.Logger) *Scorer {
	return &Scorer{endpoint: endpoint, invoker: invoker, logger: logger}
}

// Score sends vec to the endpoint. It does not retry.
func (s *Scorer) Score(ctx context.Context, vec models.FeatureVector) (models.Score, error) {
	if s.endpoint.Features > 0 && vec.Len() != s.endpoint.Features {
		msg := fmt.Sprintf("vector has %d features, endpoint %s expects %d", vec.Len(), s.endpoint.Name, s.endpoint.Features)
		return models.Score{}, errors.E(errors.EncodingSchemaMismatch, msg, nil)
	}

	line := utils.JoinFloat64Slice(vec.Values)
	resp, err := s.invoker.Invoke(ctx, ContentType, []byte(line))
	if err != nil {
		return models.Score{}, errors.E(errors.ScoringEndpointUnavailable, "invoke "+s.endpoint.Name, err)
	}

	p, err := ParseProbability(resp)
	if err != nil {
		return models.Score{}, err
	}

	s.logger.Debug("scored feature vector",
		zap.String("endpoint", s.endpoint.Name),
		zap.Int("features", vec.Len()),
		zap.Float64("fraud_proba", p),
	)
	return models.Score{Probability: p, ModelVersion: s.endpoint.ModelVersion}, nil
}

// ParseProbability reads a single float in [0, 1]. Out of range values are
// rejected rather than clamped.
func ParseProbability(body []byte) (float64, error) {
	text := strings.TrimSpace(string(body))
	p, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, errors.E(errors.InvalidScoreResponse, fmt.Sprintf("response %q is not a float", truncate(text, 64)), err)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, errors.E(errors.InvalidScoreResponse, fmt.Sprintf("probability %v outside [0, 1]", p), nil)
	}
	return p, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
