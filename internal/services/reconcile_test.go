package services

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	apperrors "presusimple/internal/errors"
	"presusimple/internal/models"
	"presusimple/internal/testutil"
)

func categoriesWith(amounts ...string) []models.Category {
	categories := make([]models.Category, 0, len(amounts))
	for _, a := range amounts {
		categories = append(categories, models.Category{Budgeted: decimal.RequireFromString(a)})
	}
	return categories
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name      string
		envelope  string
		amounts   []string
		clamp     bool
		budgeted  string
		available string
	}{
		{name: "empty", envelope: "1000", budgeted: "0", available: "1000"},
		{name: "under_envelope", envelope: "1000", amounts: []string{"600", "200"}, budgeted: "800", available: "200"},
		{name: "over_envelope", envelope: "100", amounts: []string{"150"}, budgeted: "150", available: "-50"},
		{name: "over_envelope_clamped", envelope: "100", amounts: []string{"150"}, clamp: true, budgeted: "150", available: "0"},
		{name: "fractional", envelope: "10.5", amounts: []string{"0.1", "0.2"}, budgeted: "0.3", available: "10.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(decimal.RequireFromString(tt.envelope), categoriesWith(tt.amounts...), tt.clamp)
			assert.True(t, got.TotalBudgeted.Equal(decimal.RequireFromString(tt.budgeted)), "budgeted %s", got.TotalBudgeted)
			assert.True(t, got.TotalAvailable.Equal(decimal.RequireFromString(tt.available)), "available %s", got.TotalAvailable)
		})
	}
}

func TestComputeTotals_conservesEnvelope(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		envelope := decimal.New(rng.Int63n(1_000_000), -2)
		categories := make([]models.Category, rng.Intn(12))
		for j := range categories {
			categories[j].Budgeted = decimal.New(rng.Int63n(200_000), -2)
		}

		got := ComputeTotals(envelope, categories, false)
		require.True(t, got.TotalBudgeted.Add(got.TotalAvailable).Equal(envelope),
			"iteration %d: %s + %s != %s", i, got.TotalBudgeted, got.TotalAvailable, envelope)

		clamped := ComputeTotals(envelope, categories, true)
		require.False(t, clamped.TotalAvailable.IsNegative())
	}
}

func TestWithBudgetRetry(t *testing.T) {
	t.Run("gives_up_after_max_attempts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		attempts := 0
		err := withBudgetRetry(db, func(tx *gorm.DB) error {
			attempts++
			return errStaleBudget
		})
		assert.Equal(t, maxBudgetAttempts, attempts)
		testutil.AssertAppError(t, err, "CONCURRENT_UPDATE")
	})

	t.Run("succeeds_on_retry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		attempts := 0
		err := withBudgetRetry(db, func(tx *gorm.DB) error {
			attempts++
			if attempts == 1 {
				return errStaleBudget
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, attempts)
	})

	t.Run("plain_errors_become_internal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		err := withBudgetRetry(db, func(tx *gorm.DB) error {
			return errors.New("boom")
		})
		testutil.AssertAppError(t, err, "INTERNAL_ERROR")
	})

	t.Run("stale_version_is_detected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 100, "monthly")
		stale := *budget
		require.NoError(t, reconcileBudget(db, budget, false))

		err := reconcileBudget(db, &stale, false)
		assert.True(t, errors.Is(err, errStaleBudget))
	})
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestReconcileBudget_databaseErrors(t *testing.T) {
	t.Run("category_query_fails", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "categories"`).WillReturnError(errors.New("connection reset"))

		err := reconcileBudget(db, &models.Budget{Base: models.Base{ID: "b1"}, Envelope: decimal.NewFromInt(10)}, false)
		testutil.AssertAppError(t, err, "INTERNAL_ERROR")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no_rows_updated_is_stale", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "categories"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "budgeted"}).AddRow("c1", "4"))
		mock.ExpectExec(`UPDATE "budgets" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := reconcileBudget(db, &models.Budget{Base: models.Base{ID: "b1"}, Envelope: decimal.NewFromInt(10)}, false)
		assert.True(t, errors.Is(err, errStaleBudget))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestResetBudget_databaseError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "budgets"`).WillReturnError(errors.New("connection reset"))

	svc := NewResetService(db, &fakeDirectory{users: map[string]string{"a@example.com": "u1"}}, nil)
	_, err := svc.ResetBudget(context.Background(), "a@example.com")

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INTERNAL_ERROR", appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
