package postgres

import (
	// Go Internal Packages
	"context"
	"database/sql/driver"
	stderrors "errors"
	"testing"
	"time"

	// Local Packages
	errors "fraud-pipeline/errors"
	models "fraud-pipeline/models"

	// External Packages
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

var scoredColumns = []string{
	"trans_num", "event_time", "cc_num", "merchant", "category", "amt", "first", "last", "gender",
	"street", "city", "state", "zip", "lat", "long", "city_pop", "job", "dob", "merch_lat", "merch_long",
	"fraud_proba", "fraud_flag", "model_version", "ingested_at",
}

func testRaw() models.RawTransaction {
	return models.RawTransaction{
		TransNum:  "T1",
		EventTime: ptr(int64(1700000000)),
		CCNum:     ptr("2291163933867244"),
		Merchant:  ptr("fraud_Kirlin and Sons"),
		Category:  ptr("personal_care"),
		Amount:    decimal.NewNullDecimal(decimal.RequireFromString("42.50")),
		Gender:    ptr("M"),
		State:     ptr("SC"),
		Zip:       ptr(int64(29209)),
		Lat:       ptr(33.9659),
		Long:      ptr(-80.9355),
		CityPop:   ptr(int64(333497)),
	}
}

func upsertArgs(proba float64, flag bool) []driver.Value {
	return []driver.Value{
		"T1", int64(1700000000), "2291163933867244", "fraud_Kirlin and Sons", "personal_care", "42.5",
		nil, nil, "M", nil, nil, "SC", int64(29209),
		33.9659, -80.9355, int64(333497), nil, nil, nil, nil,
		proba, flag, "xgb-rt",
	}
}

func newMock(t *testing.T) (*ScoredRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewScoredRepository(db, time.Second), mock
}

func TestUpsertInsertsScoredRow(t *testing.T) {
	repo, mock := newMock(t)
	ingested := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO payments_scored .* ON CONFLICT \(trans_num\) DO UPDATE SET .* ingested_at\s+= now\(\)\s+RETURNING ingested_at`).
		WithArgs(upsertArgs(0.82, true)...).
		WillReturnRows(sqlmock.NewRows([]string{"ingested_at"}).AddRow(ingested))

	scored, err := repo.Upsert(context.Background(), testRaw(), 0.82, 0.5, "xgb-rt")
	require.NoError(t, err)

	assert.Equal(t, "T1", scored.TransNum)
	assert.Equal(t, 0.82, scored.FraudProba)
	assert.True(t, scored.FraudFlag())
	assert.Equal(t, "xgb-rt", scored.ModelVersion)
	assert.Equal(t, ingested, scored.IngestedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertThresholdBoundary(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`INSERT INTO payments_scored`).
		WithArgs(upsertArgs(0.5, true)...).
		WillReturnRows(sqlmock.NewRows([]string{"ingested_at"}).AddRow(time.Now()))

	scored, err := repo.Upsert(context.Background(), testRaw(), 0.5, 0.5, "xgb-rt")
	require.NoError(t, err)
	assert.True(t, scored.FraudFlag())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBelowThreshold(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`INSERT INTO payments_scored`).
		WithArgs(upsertArgs(0.10, false)...).
		WillReturnRows(sqlmock.NewRows([]string{"ingested_at"}).AddRow(time.Now()))

	scored, err := repo.Upsert(context.Background(), testRaw(), 0.10, 0.5, "xgb-rt")
	require.NoError(t, err)
	assert.False(t, scored.FraudFlag())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertStoreUnavailable(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`INSERT INTO payments_scored`).
		WillReturnError(stderrors.New("pq: the database system is shutting down"))

	_, err := repo.Upsert(context.Background(), testRaw(), 0.82, 0.5, "xgb-rt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.StoreUnavailable))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRejectsInvalidInput(t *testing.T) {
	repo, mock := newMock(t)

	_, err := repo.Upsert(context.Background(), models.RawTransaction{}, 0.5, 0.5, "xgb-rt")
	assert.True(t, errors.Is(err, errors.Invalid))

	_, err = repo.Upsert(context.Background(), testRaw(), 1.5, 0.5, "xgb-rt")
	assert.True(t, errors.Is(err, errors.Invalid))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	repo, mock := newMock(t)
	ingested := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := sqlmock.NewRows(scoredColumns).AddRow(
		"T1", int64(1700000000), "2291163933867244", "fraud_Kirlin and Sons", "personal_care", "42.50",
		nil, nil, "M", nil, nil, "SC", int64(29209),
		33.9659, -80.9355, int64(333497), nil, nil, nil, nil,
		0.82, true, "xgb-rt", ingested,
	)
	mock.ExpectQuery(`SELECT .* FROM payments_scored\s+WHERE trans_num = \$1`).WithArgs("T1").WillReturnRows(rows)

	scored, found, err := repo.Get(context.Background(), "T1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "T1", scored.TransNum)
	assert.Equal(t, "42.5", scored.Amount.Decimal.String())
	assert.Nil(t, scored.First)
	assert.Equal(t, int64(29209), *scored.Zip)
	assert.True(t, scored.FraudFlag())
	assert.Equal(t, ingested, scored.IngestedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(`SELECT .* FROM payments_scored`).WithArgs("missing").WillReturnRows(sqlmock.NewRows(scoredColumns))

	_, found, err := repo.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}
