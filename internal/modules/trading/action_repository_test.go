package trading

import (
	"testing"

	"github.com/aristath/rebalancer/internal/domain"
	testingutil "github.com/aristath/rebalancer/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestActionRepository(t *testing.T) *ActionRepository {
	db := testingutil.NewTestDB(t)
	return NewActionRepository(db.Conn(), zerolog.New(nil).Level(zerolog.Disabled))
}

func sampleActions() []domain.Action {
	return []domain.Action{
		{Ticker: "TSLA", Direction: domain.DirectionSell, Currency: "USD", Quantity: 4, CurrentValue: 800, TargetValue: 0, CurrentPrice: 200, Difference: -800},
		{Ticker: "AAPL", Direction: domain.DirectionBuy, Currency: "USD", Quantity: 5, CurrentValue: 0, TargetValue: 500, CurrentPrice: 100, Difference: 500},
	}
}

func TestActionRepository_ReplaceAll(t *testing.T) {
	repo := newTestActionRepository(t)

	require.NoError(t, repo.ReplaceAll("run-1", sampleActions()))

	stored, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, sampleActions(), Actions(stored))
	assert.Equal(t, "run-1", stored[0].RunID)
	assert.Equal(t, 0, stored[0].Seq)
	assert.Equal(t, 1, stored[1].Seq)
	assert.False(t, stored[0].CreatedAt.IsZero())
}

func TestActionRepository_ReplaceAll_DiscardsPreviousRun(t *testing.T) {
	repo := newTestActionRepository(t)

	require.NoError(t, repo.ReplaceAll("run-1", sampleActions()))
	require.NoError(t, repo.ReplaceAll("run-2", sampleActions()[1:]))

	stored, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "run-2", stored[0].RunID)
	assert.Equal(t, "AAPL", stored[0].Ticker)
}

func TestActionRepository_ReplaceAll_Empty(t *testing.T) {
	repo := newTestActionRepository(t)

	require.NoError(t, repo.ReplaceAll("run-1", sampleActions()))
	require.NoError(t, repo.ReplaceAll("run-2", []domain.Action{}))

	stored, err := repo.GetAll()
	require.NoError(t, err)
	assert.NotNil(t, stored)
	assert.Empty(t, stored)
}

func TestActionRepository_ReplaceAll_InvalidKeepsPrevious(t *testing.T) {
	repo := newTestActionRepository(t)

	require.NoError(t, repo.ReplaceAll("run-1", sampleActions()))

	bad := []domain.Action{{Ticker: "AAPL", Direction: "Hold", Currency: "USD", Quantity: 1}}
	assert.Error(t, repo.ReplaceAll("run-2", bad))

	stored, err := repo.GetAll()
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	assert.Equal(t, "run-1", stored[0].RunID)
}

func TestActionRepository_DeleteAll(t *testing.T) {
	repo := newTestActionRepository(t)

	require.NoError(t, repo.ReplaceAll("run-1", sampleActions()))
	require.NoError(t, repo.DeleteAll())

	stored, err := repo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, stored)
}
