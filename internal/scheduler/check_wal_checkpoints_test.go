package scheduler

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aristath/rotation/internal/database"
	testingpkg "github.com/aristath/rotation/internal/testing"
)

func TestCheckWALCheckpointsJob_Name(t *testing.T) {
	job := NewCheckWALCheckpointsJob(nil, zerolog.Nop())
	assert.Equal(t, "check_wal_checkpoints", job.Name())
}

func TestCheckWALCheckpointsJob_Run_NoDatabases(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	job := NewCheckWALCheckpointsJob([]*database.DB{nil}, log)

	err := job.Run()
	assert.NoError(t, err) // Should handle nil databases gracefully
}

func TestCheckWALCheckpointsJob_Run(t *testing.T) {
	historyDB, cleanupHistory := testingpkg.NewTestDB(t, database.NameHistory)
	defer cleanupHistory()
	ledgerDB, cleanupLedger := testingpkg.NewTestDB(t, database.NameLedger)
	defer cleanupLedger()

	job := NewCheckWALCheckpointsJob([]*database.DB{historyDB, ledgerDB}, zerolog.Nop())
	assert.NoError(t, job.Run())
}
