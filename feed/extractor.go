package feed

import (
	// Go Internal Packages
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	// Local Packages
	errors "fraud-pipeline/errors"
	models "fraud-pipeline/models"

	// External Packages
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single feed request.
const DefaultTimeout = 20 * time.Second

// maxBodyBytes caps how much of a feed response is read.
const maxBodyBytes = 4 << 20

type Extractor struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewExtractor creates an extractor for the feed at url. A zero timeout
// falls back to DefaultTimeout.
func NewExtractor(url string, timeout time.Duration, logger *zap.Logger) *Extractor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Extractor{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// FetchCurrent returns the transaction the feed currently exposes.
func (e *Extractor) FetchCurrent(ctx context.Context) (models.RawTransaction, error) {
	body, err := e.get(ctx)
	if err != nil {
		return models.RawTransaction{}, err
	}

	table, err := DecodeTable(body)
	if err != nil {
		return models.RawTransaction{}, err
	}

	tx, err := FirstRow(table)
	if err != nil {
		return models.RawTransaction{}, err
	}

	e.logger.Debug("fetched current transaction",
		zap.String("trans_num", tx.TransNum),
		zap.Int("rows", len(table.Data)),
		zap.Int("columns", len(table.Columns)),
	)
	return tx, nil
}

func (e *Extractor) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, nil)
	if err != nil {
		return nil, errors.E(errors.UpstreamUnavailable, "create feed request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.E(errors.UpstreamUnavailable, "GET feed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.E(errors.UpstreamUnavailable, fmt.Sprintf("feed returned status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.E(errors.UpstreamUnavailable, "read feed body", err)
	}
	return body, nil
}
