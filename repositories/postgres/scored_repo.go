package postgres

import (
	// Go Internal Packages
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	// Local Packages
	errors "fraud-pipeline/errors"
	models "fraud-pipeline/models"
)

// DefaultQueryTimeout bounds a single statement.
const DefaultQueryTimeout = 10 * time.Second

const upsertScoredSQL = `
	INSERT INTO payments_scored (
		trans_num, event_time, cc_num, merchant, category, amt, first, last, gender,
		street, city, state, zip, lat, long, city_pop, job, dob, merch_lat, merch_long,
		fraud_proba, fraud_flag, model_version
	)
	VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9,
		$10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		$21, $22, $23
	)
	ON CONFLICT (trans_num) DO UPDATE SET
		event_time    = EXCLUDED.event_time,
		cc_num        = EXCLUDED.cc_num,
		merchant      = EXCLUDED.merchant,
		category      = EXCLUDED.category,
		amt           = EXCLUDED.amt,
		first         = EXCLUDED.first,
		last          = EXCLUDED.last,
		gender        = EXCLUDED.gender,
		street        = EXCLUDED.street,
		city          = EXCLUDED.city,
		state         = EXCLUDED.state,
		zip           = EXCLUDED.zip,
		lat           = EXCLUDED.lat,
		long          = EXCLUDED.long,
		city_pop      = EXCLUDED.city_pop,
		job           = EXCLUDED.job,
		dob           = EXCLUDED.dob,
		merch_lat     = EXCLUDED.merch_lat,
		merch_long    = EXCLUDED.merch_long,
		fraud_proba   = EXCLUDED.fraud_proba,
		fraud_flag    = EXCLUDED.fraud_flag,
		model_version = EXCLUDED.model_version,
		ingested_at   = now()
	RETURNING ingested_at
`

const selectScoredSQL = `
	SELECT trans_num, event_time, cc_num, merchant, category, amt, first, last, gender,
		street, city, state, zip, lat, long, city_pop, job, dob, merch_lat, merch_long,
		fraud_proba, fraud_flag, model_version, ingested_at
	FROM payments_scored
	WHERE trans_num = $1
`

type ScoredRepository struct {
	db      *sql.DB
	timeout time.Duration
}

func NewScoredRepository(db *sql.DB, timeout time.Duration) *ScoredRepository {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &ScoredRepository{db: db, timeout: timeout}
}

// Upsert writes the scored transaction in one statement; concurrent writers
// for the same trans_num are resolved by the unique constraint.
func (r *ScoredRepository) Upsert(ctx context.Context, raw models.RawTransaction, probability, threshold float64, modelVersion string) (models.ScoredTransaction, error) {
	if err := validateUpsert(raw, probability); err != nil {
		return models.ScoredTransaction{}, err
	}
	scored := models.NewScoredTransaction(raw, probability, threshold, modelVersion)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, upsertScoredSQL,
		raw.TransNum, raw.EventTime, raw.CCNum, raw.Merchant, raw.Category, raw.Amount,
		raw.First, raw.Last, raw.Gender, raw.Street, raw.City, raw.State, raw.Zip,
		raw.Lat, raw.Long, raw.CityPop, raw.Job, raw.DOB, raw.MerchLat, raw.MerchLong,
		scored.FraudProba, scored.FraudFlag(), scored.ModelVersion,
	).Scan(&scored.IngestedAt)
	if err != nil {
		return models.ScoredTransaction{}, errors.E(errors.StoreUnavailable, "upsert "+raw.TransNum, err)
	}
	return scored, nil
}

// Get returns the stored record for transNum. found is false when no row exists.
func (r *ScoredRepository) Get(ctx context.Context, transNum string) (scored models.ScoredTransaction, found bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		raw          models.RawTransaction
		proba        float64
		flag         bool
		modelVersion string
		ingestedAt   time.Time
	)
	err = r.db.QueryRowContext(ctx, selectScoredSQL, transNum).Scan(
		&raw.TransNum, &raw.EventTime, &raw.CCNum, &raw.Merchant, &raw.Category, &raw.Amount,
		&raw.First, &raw.Last, &raw.Gender, &raw.Street, &raw.City, &raw.State, &raw.Zip,
		&raw.Lat, &raw.Long, &raw.CityPop, &raw.Job, &raw.DOB, &raw.MerchLat, &raw.MerchLong,
		&proba, &flag, &modelVersion, &ingestedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return models.ScoredTransaction{}, false, nil
	}
	if err != nil {
		return models.ScoredTransaction{}, false, errors.E(errors.StoreUnavailable, "get "+transNum, err)
	}
	return models.RestoreScoredTransaction(raw, proba, flag, modelVersion, ingestedAt), true, nil
}

func validateUpsert(raw models.RawTransaction, probability float64) error {
	if raw.TransNum == "" {
		return errors.EmptyParamErr(models.ColTransNum)
	}
	if !(probability >= 0 && probability <= 1) {
		return errors.ValidationFailedErr(fmt.Errorf("fraud_proba %v outside [0, 1]", probability))
	}
	return nil
}
