package scheduler

import (
	"testing"

	"github.com/aristath/rebalancer/internal/modules/portfolio"
	testingutil "github.com/aristath/rebalancer/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWALCheckpointJob_Name(t *testing.T) {
	job := NewWALCheckpointJob(nil, zerolog.Nop())
	assert.Equal(t, "wal_checkpoint", job.Name())
}

func TestWALCheckpointJob_Run_NoDatabase(t *testing.T) {
	job := NewWALCheckpointJob(nil, zerolog.New(nil).Level(zerolog.Disabled))
	assert.NoError(t, job.Run())
}

func TestWALCheckpointJob_Run(t *testing.T) {
	db := testingutil.NewTestDB(t)

	repo := portfolio.NewAssetRepository(db.Conn(), zerolog.Nop())
	require.NoError(t, repo.SeedSampleAssets())

	job := NewWALCheckpointJob(db, zerolog.Nop())
	assert.NoError(t, job.Run())
}
